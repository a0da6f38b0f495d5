// Package jwtprovider implements the gate's IdentityProvider port on top of
// HS256 JWTs issued by the hosted identity service. The gate treats tokens
// as opaque credentials; this provider owns format and signature checks.
package jwtprovider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatekeeper/internal/gate/models"
	dErrors "gatekeeper/pkg/domain-errors"
)

const defaultIssuer = "gatekeeper-identity"

// Claims are the token claims accepted from the identity service. The role
// claim is advisory; the gate re-resolves role and permissions from the
// profile store.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Provider validates tokens and maps them to identities.
type Provider struct {
	signingKey []byte
	issuer     string
}

// Option configures a Provider.
type Option func(*Provider)

// WithIssuer overrides the expected issuer claim.
func WithIssuer(issuer string) Option {
	return func(p *Provider) { p.issuer = issuer }
}

// New creates a provider with the given HS256 signing key.
func New(signingKey string, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(signingKey) == "" {
		return nil, errors.New("signing key is required")
	}
	p := &Provider{signingKey: []byte(signingKey), issuer: defaultIssuer}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ResolveCredential validates the token and returns the identity it names.
// Every failure maps to CodeUnauthenticated; the caller never learns which
// claim was wrong.
func (p *Provider) ResolveCredential(_ context.Context, credential string) (models.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return models.Identity{}, dErrors.New(dErrors.CodeUnauthenticated, "missing credential")
	}

	parsed, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return p.signingKey, nil
	}, jwt.WithIssuer(p.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, dErrors.New(dErrors.CodeUnauthenticated, "credential expired")
		}
		return models.Identity{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid credential")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return models.Identity{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid credential")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return models.Identity{}, dErrors.New(dErrors.CodeUnauthenticated, "credential names no identity")
	}

	return models.Identity{
		ID:   claims.Subject,
		Role: models.Role(claims.Role),
	}, nil
}

// IssueToken signs a token for the given identity. Used by tests and the
// local development seeder; production tokens come from the identity
// service.
func (p *Provider) IssueToken(identityID string, role models.Role, ttl time.Duration) (string, error) {
	if strings.TrimSpace(identityID) == "" {
		return "", errors.New("identityID is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be greater than zero")
	}
	now := time.Now().UTC()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.signingKey)
}
