package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NewError(KindUserNotFound, "user bob not found", errors.New("no rows"))

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrUserAlreadyExists)
	assert.ErrorIs(t, fmt.Errorf("login: %w", err), ErrUserNotFound)
	assert.Equal(t, "user bob not found: no rows", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTokenExpired, KindOf(fmt.Errorf("wrap: %w", ErrTokenExpired)))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "invalid credentials", MessageOf(ErrInvalidCredentials))
	assert.Equal(t, "internal server error", MessageOf(errors.New("db exploded")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "signature_invalid", KindSignatureInvalid.String())
	assert.Equal(t, "kind(200)", Kind(200).String())
}

func TestIdentity(t *testing.T) {
	a := NewIdentity("alice", " user ", "admin", "user", "")
	b := NewIdentity("alice", "admin", "user")

	assert.True(t, a.Equal(b))
	assert.Equal(t, []string{"admin", "user"}, a.Roles())
	assert.True(t, a.HasRole("admin"))
	assert.False(t, a.HasRole("root"))
	assert.True(t, a.HasAnyRole("root", "user"))

	roles := a.Roles()
	roles[0] = "mutated"
	assert.True(t, a.HasRole("admin"))

	assert.False(t, a.Equal(NewIdentity("alice", "user")))
	assert.False(t, a.Equal(NewIdentity("bob", "admin", "user")))
}
