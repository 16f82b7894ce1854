package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"bearer-auth/internal/domain"
	"bearer-auth/internal/repository"
	"bearer-auth/internal/security"
)

const maxUsernameLength = 64

// TokenIssuer mints tokens for authenticated identities.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

// AuthResult is returned by a successful login or registration.
type AuthResult struct {
	Identity domain.Identity
	Token    string
}

// AuthService describes login and registration.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	GrantRole(ctx context.Context, username, role string) error
}

type authService struct {
	users        repository.UserRepository
	tokens       TokenIssuer
	defaultRoles []string
}

// NewAuthService returns an AuthService. New accounts receive defaultRoles,
// or domain.RoleUser when none are given.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, defaultRoles ...string) AuthService {
	if len(defaultRoles) == 0 {
		defaultRoles = []string{domain.RoleUser}
	}
	return &authService{
		users:        users,
		tokens:       tokens,
		defaultRoles: defaultRoles,
	}
}

func (s *authService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	username, err := validateCredentials(username, password)
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Roles:        s.defaultRoles,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user.Identity())
}

func (s *authService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username, err := validateCredentials(username, password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user.Identity())
}

func (s *authService) GrantRole(ctx context.Context, username, role string) error {
	username = strings.TrimSpace(username)
	role = strings.TrimSpace(role)
	if username == "" || role == "" {
		return domain.NewError(domain.KindInvalidInput, "username and role are required", nil)
	}
	return s.users.AddRole(ctx, username, role)
}

func (s *authService) issue(identity domain.Identity) (*AuthResult, error) {
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Identity: identity, Token: token}, nil
}

// validateCredentials returns the trimmed username. Passwords are used verbatim.
func validateCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return "", domain.NewError(domain.KindInvalidInput, "username is required", nil)
	case len(username) > maxUsernameLength:
		return "", domain.NewError(domain.KindInvalidInput, fmt.Sprintf("username must be at most %d characters", maxUsernameLength), nil)
	case strings.IndexFunc(username, unicode.IsSpace) >= 0:
		return "", domain.NewError(domain.KindInvalidInput, "username must not contain whitespace", nil)
	case password == "":
		return "", domain.NewError(domain.KindInvalidInput, "password is required", nil)
	}
	return username, nil
}
