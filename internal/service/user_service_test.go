package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bearer-auth/internal/domain"
	"bearer-auth/internal/repository/sqlite"
	"bearer-auth/internal/security"
)

func newTestService(t *testing.T) (AuthService, *security.TokenService) {
	t.Helper()

	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := sqlite.NewUserRepository(db)
	require.NoError(t, users.Init(context.Background()))

	tokens, err := security.NewTokenService(security.TokenConfig{
		Secret: []byte("service-secret"),
		Issuer: "service-test",
		TTL:    time.Minute,
	})
	require.NoError(t, err)

	return NewAuthService(users, tokens), tokens
}

func TestRegister_IssuesVerifiableToken(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newTestService(t)

	res, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Identity.Username())
	assert.Equal(t, []string{domain.RoleUser}, res.Identity.Roles())

	got, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.True(t, res.Identity.Equal(got))
}

func TestRegister_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "pw1")
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestRegister_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, tc := range []struct{ username, password string }{
		{"", "pw"},
		{"   ", "pw"},
		{"al ice", "pw"},
		{"alice", ""},
	} {
		_, err := svc.Register(ctx, tc.username, tc.password)
		require.ErrorIs(t, err, domain.ErrInvalidInput, "%q/%q", tc.username, tc.password)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newTestService(t)

	_, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	got, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username())
	assert.True(t, got.HasRole(domain.RoleUser))

	again, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, res.Token, again.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrongpw")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, domain.KindInvalidCredentials, domain.KindOf(err))
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "ghost", "pw")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGrantRole(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newTestService(t)

	_, err := svc.Register(ctx, "root", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.GrantRole(ctx, "root", domain.RoleAdmin))

	res, err := svc.Login(ctx, "root", "pw")
	require.NoError(t, err)
	got, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleAdmin, domain.RoleUser}, got.Roles())

	require.ErrorIs(t, svc.GrantRole(ctx, "", domain.RoleAdmin), domain.ErrInvalidInput)
	require.ErrorIs(t, svc.GrantRole(ctx, "ghost", domain.RoleAdmin), domain.ErrUserNotFound)
}

type failingIssuer struct{}

func (failingIssuer) Issue(domain.Identity) (string, error) {
	return "", domain.NewError(domain.KindTokenCreation, "could not sign token", errors.New("boom"))
}

func TestRegister_TokenCreationFailure(t *testing.T) {
	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := sqlite.NewUserRepository(db)
	require.NoError(t, users.Init(context.Background()))

	svc := NewAuthService(users, failingIssuer{})
	_, err = svc.Register(context.Background(), "alice", "pw1")
	require.ErrorIs(t, err, domain.ErrTokenCreation)
}

func TestLogin_PasswordSharingBcryptPrefix(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	password := strings.Repeat("a", 72)
	_, err := svc.Register(ctx, "alice", password)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", password+"WRONG-SUFFIX")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "alice", password)
	require.NoError(t, err)
}
