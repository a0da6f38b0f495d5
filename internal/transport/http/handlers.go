package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	gatemw "gatekeeper/internal/gate/middleware"
	"gatekeeper/internal/gate/models"
	"gatekeeper/internal/records"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/audit"
	"gatekeeper/pkg/platform/bind"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/platform/sentinel"
	"gatekeeper/pkg/requestcontext"
)

// Auditor records completed actions. Satisfied by the gate service.
type Auditor interface {
	RecordAudit(ctx context.Context, identityID string, action audit.Action, resourceType models.ResourceType, resourceID string, metadata map[string]string)
}

// ProfileReader resolves the caller's own profile for /v1/profile.
type ProfileReader interface {
	GetProfile(ctx context.Context, identityID string) (models.Profile, error)
}

// OwnerRegistrar registers ownership for records created at runtime. The
// in-memory ownership store needs explicit registration; the PostgreSQL
// store derives owners from the record tables, so it passes nil.
type OwnerRegistrar interface {
	Put(resourceType models.ResourceType, resourceID, identityID string)
}

// Handler serves the demo resource routes.
type Handler struct {
	records  records.Store
	profiles ProfileReader
	auditor  Auditor
	owners   OwnerRegistrar
	logger   *slog.Logger
}

// NewHandler wires the route handlers. owners may be nil.
func NewHandler(store records.Store, profiles ProfileReader, auditor Auditor, owners OwnerRegistrar, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		records:  store,
		profiles: profiles,
		auditor:  auditor,
		owners:   owners,
		logger:   logger,
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReadReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, _ := gatemw.Session(ctx)
	reportID := chi.URLParam(r, "reportID")

	report, err := h.records.GetCreditReport(ctx, reportID)
	if err != nil {
		h.writeStoreError(w, r, err, "credit report")
		return
	}

	h.auditor.RecordAudit(ctx, session.Identity.ID, audit.ActionCreditReportRead, models.ResourceCreditReport, reportID, map[string]string{
		"bureau": report.Bureau,
	})
	httputil.WriteJSON(w, http.StatusOK, report)
}

// CreateDisputeRequest is the POST /v1/disputes body.
type CreateDisputeRequest struct {
	ReportID string `json:"report_id" validate:"required,uuid4"`
	Item     string `json:"item" validate:"required,max=200"`
	Reason   string `json:"reason" validate:"required,max=2000"`
}

func (h *Handler) handleCreateDispute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, _ := gatemw.Session(ctx)

	req, err := bind.JSON[CreateDisputeRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The referenced report must exist and belong to the caller. Admins may
	// file on any report. Authorization middleware cannot enforce this: the
	// report ID travels in the body, which the gate never reads.
	report, err := h.records.GetCreditReport(ctx, req.ReportID)
	if err != nil {
		h.writeStoreError(w, r, err, "credit report")
		return
	}
	if report.IdentityID != session.Identity.ID && session.Identity.Role != models.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "access denied"))
		return
	}

	dispute := records.Dispute{
		ID:         uuid.NewString(),
		IdentityID: session.Identity.ID,
		ReportID:   req.ReportID,
		Item:       req.Item,
		Reason:     req.Reason,
		Status:     records.DisputeStatusSubmitted,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := h.records.CreateDispute(ctx, dispute); err != nil {
		h.writeStoreError(w, r, err, "dispute")
		return
	}
	if h.owners != nil {
		h.owners.Put(models.ResourceDispute, dispute.ID, dispute.IdentityID)
	}

	h.auditor.RecordAudit(ctx, session.Identity.ID, audit.ActionDisputeCreated, models.ResourceDispute, dispute.ID, map[string]string{
		"report_id": dispute.ReportID,
		"item":      dispute.Item,
	})
	httputil.WriteJSON(w, http.StatusCreated, dispute)
}

func (h *Handler) handleReadDispute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, _ := gatemw.Session(ctx)
	disputeID := chi.URLParam(r, "disputeID")

	dispute, err := h.records.GetDispute(ctx, disputeID)
	if err != nil {
		h.writeStoreError(w, r, err, "dispute")
		return
	}

	h.auditor.RecordAudit(ctx, session.Identity.ID, audit.ActionDisputeRead, models.ResourceDispute, disputeID, nil)
	httputil.WriteJSON(w, http.StatusOK, dispute)
}

// profileResponse omits internal permission details.
type profileResponse struct {
	IdentityID string `json:"identity_id"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

func (h *Handler) handleReadProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, _ := gatemw.Session(ctx)

	profile, err := h.profiles.GetProfile(ctx, session.Identity.ID)
	if err != nil {
		h.writeStoreError(w, r, err, "profile")
		return
	}

	h.auditor.RecordAudit(ctx, session.Identity.ID, audit.ActionProfileRead, models.ResourceProfile, session.Identity.ID, nil)
	httputil.WriteJSON(w, http.StatusOK, profileResponse{
		IdentityID: profile.IdentityID,
		Role:       string(profile.Role),
		Status:     profile.Status,
		CreatedAt:  profile.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, entity+" not found"))
		return
	}
	h.logger.ErrorContext(r.Context(), "store lookup failed",
		"entity", entity,
		"error", err,
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "service temporarily unavailable"))
}
