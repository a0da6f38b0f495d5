// Package audit defines the event model shared by the audit pipeline:
// append-only records of completed actions, and security events recording
// anomalies and denials. Events are transport-agnostic so stores and sinks
// can fan out.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose, which
// drives retention policy and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance.
	// Credit-repair disputes fall under FCRA record-keeping, so these need
	// tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers anomalies and denials that feed monitoring
	// and alerting pipelines.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	// Short retention, may be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is an append-only audit record of a completed action. Written once
// by the gate, owned thereafter by the backing store; never mutated.
type Event struct {
	Timestamp    time.Time
	IdentityID   string
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]string
	RequestID    string
}

// SecurityEvent records a denial or anomaly observed during validation.
// Distinct from Event: it captures what was rejected and why, not what was
// done.
type SecurityEvent struct {
	Timestamp  time.Time
	IdentityID string
	Action     string
	Reason     string
	IP         string
	RequestID  string
	Severity   Severity
}

// Severity levels for security events, used for alert routing.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Action is a known audit action name.
type Action string

const (
	// Compliance actions
	ActionDisputeCreated       Action = "dispute_created"
	ActionCreditReportUploaded Action = "credit_report_uploaded"
	ActionProfileUpdated       Action = "profile_updated"

	// Security actions
	ActionRateLimitExceeded Action = "rate_limit_exceeded"
	ActionOriginFlagged     Action = "suspicious_origin"
	ActionAgentFlagged      Action = "suspicious_agent"
	ActionPermissionDenied  Action = "permission_denied"
	ActionOwnershipDenied   Action = "ownership_denied"

	// Operations actions
	ActionSessionValidated    Action = "session_validated"
	ActionCreditReportRead    Action = "credit_report_read"
	ActionDisputeRead         Action = "dispute_read"
	ActionProfileRead         Action = "profile_read"
)

// actionCategories maps each action to its category. Unknown actions
// default to operations.
var actionCategories = map[Action]EventCategory{
	ActionDisputeCreated:       CategoryCompliance,
	ActionCreditReportUploaded: CategoryCompliance,
	ActionProfileUpdated:       CategoryCompliance,

	ActionRateLimitExceeded: CategorySecurity,
	ActionOriginFlagged:     CategorySecurity,
	ActionAgentFlagged:      CategorySecurity,
	ActionPermissionDenied:  CategorySecurity,
	ActionOwnershipDenied:   CategorySecurity,

	ActionSessionValidated: CategoryOperations,
	ActionCreditReportRead: CategoryOperations,
	ActionDisputeRead:      CategoryOperations,
	ActionProfileRead:      CategoryOperations,
}

// Category returns the EventCategory for this action.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
