package gate

import (
	"context"
	"errors"

	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/platform/audit"
	"gatekeeper/pkg/platform/sentinel"
	"gatekeeper/pkg/requestcontext"
)

// clientOperations is the closed allow-list for the client role. Operations
// absent from this map are denied for clients no matter what resource they
// target.
var clientOperations = map[models.Operation]bool{
	models.OpReadCreditReport: true,
	models.OpCreateDispute:    true,
	models.OpReadDispute:      true,
	models.OpReadProfile:      true,
}

// Authorize decides whether the identity may perform the operation.
// resourceID may be empty for operations that are not resource-scoped.
//
// Denials resolve locally into false; only the decision crosses the
// boundary. An unexpected ownership-store failure is fail-closed: the
// request is denied and the error logged, never propagated.
func (s *Service) Authorize(ctx context.Context, identity models.Identity, operation models.Operation, resourceID string) bool {
	switch identity.Role {
	case models.RoleAdmin:
		s.observeAuthorization("allowed")
		return true

	case models.RoleClient:
		if !clientOperations[operation] {
			s.denyAuthorization(ctx, identity, operation, resourceID, audit.ActionPermissionDenied, "operation outside client allow-list")
			return false
		}
		if resourceID == "" {
			// Not resource-scoped; the allow-list decides alone.
			s.observeAuthorization("allowed")
			return true
		}
		if !s.ownsResource(ctx, identity, operation, resourceID) {
			return false
		}
		s.observeAuthorization("allowed")
		return true

	case models.RoleTeamMember:
		s.denyAuthorization(ctx, identity, operation, resourceID, audit.ActionPermissionDenied, "role has no granted operations")
		return false

	default:
		s.denyAuthorization(ctx, identity, operation, resourceID, audit.ActionPermissionDenied, "unknown role")
		return false
	}
}

// ownsResource probes each known resource type in order; the first store
// that knows the resource decides. A resource no store knows is denied.
func (s *Service) ownsResource(ctx context.Context, identity models.Identity, operation models.Operation, resourceID string) bool {
	for _, resourceType := range models.OwnedResourceTypes {
		owner, err := s.ownership.ResourceOwner(ctx, resourceType, resourceID)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "ownership lookup failed, denying",
				"identity_id", identity.ID,
				"resource_type", string(resourceType),
				"resource_id", resourceID,
				"error", err,
			)
			s.observeAuthorization("error")
			return false
		}
		if owner == identity.ID {
			return true
		}
		s.denyAuthorization(ctx, identity, operation, resourceID, audit.ActionOwnershipDenied, "resource owned by another identity")
		return false
	}
	s.denyAuthorization(ctx, identity, operation, resourceID, audit.ActionOwnershipDenied, "resource unknown to all owned types")
	return false
}

func (s *Service) denyAuthorization(ctx context.Context, identity models.Identity, operation models.Operation, resourceID string, action audit.Action, reason string) {
	s.observeAuthorization("denied")
	s.logger.WarnContext(ctx, "authorization denied",
		"identity_id", identity.ID,
		"role", string(identity.Role),
		"operation", string(operation),
		"resource_id", resourceID,
		"reason", reason,
	)
	if s.publisher != nil {
		s.publisher.EmitSecurity(ctx, audit.SecurityEvent{
			IdentityID: identity.ID,
			Action:     string(action),
			Reason:     reason,
			RequestID:  requestcontext.RequestID(ctx),
			Severity:   audit.SeverityInfo,
		})
	}
}

func (s *Service) observeAuthorization(decision string) {
	if s.metrics != nil {
		s.metrics.ObserveAuthorization(decision)
	}
}
