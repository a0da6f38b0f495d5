// Package models defines the access-control domain types shared by the gate
// service, its ports, and transports.
package models

import (
	"strings"
	"time"
)

// Role is the closed set of principal roles. New roles are a compile-time
// addition: every switch over Role must be extended, which is the point.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleClient     Role = "client"
	RoleTeamMember Role = "team_member"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleTeamMember:
		return true
	}
	return false
}

// Operation names an action a caller may request.
type Operation string

const (
	OpReadCreditReport Operation = "read_credit_report"
	OpCreateDispute    Operation = "create_dispute"
	OpReadDispute      Operation = "read_dispute"
	OpReadProfile      Operation = "read_profile"
	OpAdminAccess      Operation = "admin_access"
	OpReadAllUsers     Operation = "read_all_users"
	OpModifyUser       Operation = "modify_user"
)

// ResourceType identifies the kind of resource an operation is scoped to.
// Ownership lookups probe the known types in declaration order; the first
// store that knows the resource wins.
type ResourceType string

const (
	ResourceCreditReport ResourceType = "credit_report"
	ResourceDispute      ResourceType = "dispute"

	// ResourceProfile appears in audit records only; profiles are keyed by
	// identity and never enter the ownership probe.
	ResourceProfile ResourceType = "profile"
)

// OwnedResourceTypes is the probe order for ownership validation.
var OwnedResourceTypes = []ResourceType{ResourceCreditReport, ResourceDispute}

// Identity is the authenticated principal. The ID comes from the identity
// provider; role and permissions come from the profile record.
type Identity struct {
	ID          string
	Role        Role
	Permissions []string
}

// Profile is the stored account record for an identity. Read-only to the
// gate.
type Profile struct {
	IdentityID  string
	Role        Role
	Permissions []string
	Status      string
	CreatedAt   time.Time
}

// RequestDescriptor is the gate's view of one inbound request. It carries
// only what validation needs; request bodies never enter the gate.
type RequestDescriptor struct {
	// BearerToken and CookieToken are the two accepted credential
	// carriers. Bearer wins when both are present.
	BearerToken string
	CookieToken string

	// Headers holds the request headers relevant to origin resolution and
	// agent checks. Lookup is case-insensitive.
	Headers map[string]string

	// Endpoint is the logical route being requested, recorded with
	// rate-limit entries.
	Endpoint string

	// ReceivedAt is when the transport accepted the request.
	ReceivedAt time.Time
}

// Credential returns the effective credential, preferring the bearer token.
func (d RequestDescriptor) Credential() string {
	if d.BearerToken != "" {
		return d.BearerToken
	}
	return d.CookieToken
}

// Header performs a case-insensitive header lookup.
func (d RequestDescriptor) Header(name string) string {
	for k, v := range d.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// UserAgent returns the declared agent string, which may be empty.
func (d RequestDescriptor) UserAgent() string {
	return d.Header("User-Agent")
}

// DenyReason states why validation rejected a request. Exactly one reason
// is set on an invalid result.
type DenyReason string

const (
	// DenyUnauthenticated: no credential, or it did not resolve.
	DenyUnauthenticated DenyReason = "unauthenticated"
	// DenyForbidden: a heuristic security check flagged the request.
	DenyForbidden DenyReason = "forbidden"
	// DenyRateLimited: the caller's window budget is exhausted.
	DenyRateLimited DenyReason = "rate_limited"
	// DenyProfileNotFound: the identity has no profile record (or the
	// lookup failed; profile resolution is fail-closed).
	DenyProfileNotFound DenyReason = "profile_not_found"
)

// SessionMeta carries correlation data for a validated session. The
// correlation ID exists for downstream log correlation only; it has no
// persistence or expiry semantics.
type SessionMeta struct {
	CorrelationID string
	RemoteAddr    string
	UserAgent     string
	ValidatedAt   time.Time
	RateRemaining int
}

// SessionValidationResult is never partially valid: either Valid is true
// and Identity/Meta are fully populated, or Valid is false and Reason holds
// exactly one documented denial.
type SessionValidationResult struct {
	Valid    bool
	Identity Identity
	Meta     SessionMeta
	Reason   DenyReason
}

// Denied builds an invalid result with the given reason.
func Denied(reason DenyReason) SessionValidationResult {
	return SessionValidationResult{Reason: reason}
}
