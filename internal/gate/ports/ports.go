// Package ports defines the interfaces the gate consumes. Implementations
// live under internal/identity, internal/profile, internal/ownership and
// pkg/platform/audit; tests substitute memory fakes.
package ports

import (
	"context"

	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/platform/audit"
)

// IdentityProvider resolves an opaque credential to an identity. The
// provider owns token formats and signature checks; the gate only cares
// whether a stable identity ID comes back.
type IdentityProvider interface {
	ResolveCredential(ctx context.Context, credential string) (models.Identity, error)
}

// ProfileStore looks up the stored account record for an identity.
// Returns sentinel.ErrNotFound when the identity has no profile.
type ProfileStore interface {
	GetProfile(ctx context.Context, identityID string) (models.Profile, error)
}

// OwnershipStore answers which identity owns a resource. Returns
// sentinel.ErrNotFound when the resource type does not know the ID.
type OwnershipStore interface {
	ResourceOwner(ctx context.Context, resourceType models.ResourceType, resourceID string) (string, error)
}

// AuditPublisher accepts fire-and-forget audit and security events.
// Emission must never block or fail the caller's primary operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
	EmitSecurity(ctx context.Context, event audit.SecurityEvent)
}

// ReputationChecker flags remote addresses as suspicious. Deployments
// inject a threat-intel lookup; the default implementation never flags.
type ReputationChecker interface {
	IsSuspicious(ctx context.Context, remoteAddr string) bool
}

// ReputationFunc adapts a plain function to a ReputationChecker.
type ReputationFunc func(ctx context.Context, remoteAddr string) bool

// IsSuspicious calls f.
func (f ReputationFunc) IsSuspicious(ctx context.Context, remoteAddr string) bool {
	return f(ctx, remoteAddr)
}
