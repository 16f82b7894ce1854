package auth

import (
	"net/http"
	"strings"

	"bearer-auth/internal/domain"
)

const bearerScheme = "Bearer"

// Verifier turns a bearer token into the identity it was issued for.
type Verifier interface {
	Verify(token string) (domain.Identity, error)
}

// Gate authenticates inbound requests carrying an Authorization: Bearer header.
type Gate struct {
	verifier Verifier
}

func NewGate(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authenticate extracts the bearer token from r and verifies it.
func (g *Gate) Authenticate(r *http.Request) (domain.Identity, error) {
	return g.AuthenticateHeader(r.Header.Get("Authorization"))
}

// AuthenticateHeader verifies the value of an Authorization header.
// Verifier errors are returned unchanged.
func (g *Gate) AuthenticateHeader(header string) (domain.Identity, error) {
	token, err := BearerToken(header)
	if err != nil {
		return domain.Identity{}, err
	}
	return g.verifier.Verify(token)
}

// BearerToken returns the token of a "Bearer <token>" header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", domain.ErrMissingCredentials
	}

	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], bearerScheme) {
		return "", domain.ErrInvalidCredentialsFormat
	}
	return fields[1], nil
}

// RequireAnyRole fails with a forbidden error unless identity holds one of roles.
func RequireAnyRole(identity domain.Identity, roles ...string) error {
	if len(roles) == 0 || identity.HasAnyRole(roles...) {
		return nil
	}
	return domain.NewError(domain.KindForbidden, "requires role "+strings.Join(roles, " or "), nil)
}
