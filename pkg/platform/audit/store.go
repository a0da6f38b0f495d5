package audit

import "context"

// Store persists audit events. Implementations must treat entries as
// append-only; nothing in this module updates or deletes them.
type Store interface {
	Append(ctx context.Context, event Event) error
	AppendSecurity(ctx context.Context, event SecurityEvent) error
}
