package security

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bearer-auth/internal/domain"
)

var signingMethod = jwt.SigningMethodHS256

// segmentParser decodes token segments; it never checks signatures itself.
var segmentParser = jwt.NewParser(jwt.WithStrictDecoding())

// lenientParser accepts non-canonical trailing bits in base64url segments.
var lenientParser = jwt.NewParser()

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// TokenConfig is the secret material used to sign and verify tokens.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// VerifiedToken is the result of inspecting a token whose signature and expiry checked out.
type VerifiedToken struct {
	Identity  domain.Identity
	Issuer    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and verifies tokens with one immutable secret.
// It is safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*TokenService)

// WithClock overrides the time source used for issued-at, expiry and verification.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenService(cfg TokenConfig, opts ...Option) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("token issuer is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	s := &TokenService{
		secret: slices.Clone(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *TokenService) Issue(identity domain.Identity) (string, error) {
	return issue(identity, s.issuer, s.ttl, s.secret, s.now())
}

func (s *TokenService) Verify(token string) (domain.Identity, error) {
	verified, err := verify(token, s.secret, s.now())
	if err != nil {
		return domain.Identity{}, err
	}
	return verified.Identity, nil
}

// Inspect verifies token and returns its claims alongside the identity.
func (s *TokenService) Inspect(token string) (*VerifiedToken, error) {
	return verify(token, s.secret, s.now())
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for identity that expires ttl from now.
func Issue(identity domain.Identity, issuer string, ttl time.Duration, secret []byte) (string, error) {
	return issue(identity, issuer, ttl, secret, time.Now())
}

// Verify checks token against secret and returns the identity it carries.
func Verify(token string, secret []byte) (domain.Identity, error) {
	verified, err := verify(token, secret, time.Now())
	if err != nil {
		return domain.Identity{}, err
	}
	return verified.Identity, nil
}

func issue(identity domain.Identity, issuer string, ttl time.Duration, secret []byte, now time.Time) (string, error) {
	switch {
	case len(secret) == 0:
		return "", domain.NewError(domain.KindTokenCreation, "signing secret is empty", nil)
	case ttl <= 0:
		return "", domain.NewError(domain.KindTokenCreation, "token ttl must be positive", nil)
	case identity.Username() == "":
		return "", domain.NewError(domain.KindTokenCreation, "token subject is empty", nil)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   identity.Username(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: identity.Roles(),
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(secret)
	if err != nil {
		return "", domain.NewError(domain.KindTokenCreation, "could not sign token", err)
	}
	return signed, nil
}

// verify checks the signature before anything in the claims segment is decoded.
func verify(token string, secret []byte, now time.Time) (*VerifiedToken, error) {
	if len(secret) == 0 {
		return nil, domain.NewError(domain.KindSignatureInvalid, "verification secret is empty", nil)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, domain.NewError(domain.KindMalformedToken, "token must have three segments", nil)
	}

	sig, err := segmentParser.DecodeSegment(parts[2])
	if err != nil {
		// Non-canonical encodings are never issued; treat them as a forged signature.
		if _, lenientErr := lenientParser.DecodeSegment(parts[2]); lenientErr == nil {
			return nil, domain.NewError(domain.KindSignatureInvalid, "token signature is invalid", err)
		}
		return nil, domain.NewError(domain.KindMalformedToken, "token signature is not valid base64url", err)
	}

	if err := signingMethod.Verify(parts[0]+"."+parts[1], sig, secret); err != nil {
		return nil, domain.NewError(domain.KindSignatureInvalid, "token signature is invalid", err)
	}

	claims := &Claims{}
	parsed, _, err := segmentParser.ParseUnverified(token, claims)
	if err != nil {
		return nil, domain.NewError(domain.KindMalformedToken, "token claims are unreadable", err)
	}
	if parsed.Method == nil || parsed.Method.Alg() != signingMethod.Alg() {
		return nil, domain.NewError(domain.KindMalformedToken, "unexpected signing method", nil)
	}
	if claims.Subject == "" {
		return nil, domain.NewError(domain.KindMalformedToken, "token subject is missing", nil)
	}
	if claims.ExpiresAt == nil {
		return nil, domain.NewError(domain.KindMalformedToken, "token expiry is missing", nil)
	}

	// A token is still valid at the exact instant it expires.
	if now.After(claims.ExpiresAt.Time) {
		return nil, domain.NewError(domain.KindTokenExpired, "token has expired", nil)
	}

	verified := &VerifiedToken{
		Identity:  domain.NewIdentity(claims.Subject, claims.Roles...),
		Issuer:    claims.Issuer,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		verified.IssuedAt = claims.IssuedAt.Time
	}
	return verified, nil
}
