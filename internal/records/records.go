// Package records stores the credit reports and disputes the demo routes
// serve. The gate treats these as opaque owned resources; this package is
// where their content lives.
package records

import (
	"context"
	"time"
)

// CreditReport is a pulled bureau report for one identity.
type CreditReport struct {
	ID          string    `json:"id"`
	IdentityID  string    `json:"identity_id"`
	Bureau      string    `json:"bureau"`
	Score       int       `json:"score"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Dispute is a challenge against an item on a credit report.
type Dispute struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	ReportID   string    `json:"report_id"`
	Item       string    `json:"item"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Dispute lifecycle statuses.
const (
	DisputeStatusSubmitted = "submitted"
	DisputeStatusResolved  = "resolved"
)

// Store is the persistence boundary for reports and disputes. Lookups
// return sentinel.ErrNotFound for unknown IDs.
type Store interface {
	GetCreditReport(ctx context.Context, id string) (CreditReport, error)
	GetDispute(ctx context.Context, id string) (Dispute, error)
	CreateDispute(ctx context.Context, dispute Dispute) error
}
