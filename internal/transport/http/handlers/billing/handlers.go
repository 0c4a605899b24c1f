package billinghandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"staffing/internal/domain/audit"
	"staffing/internal/domain/auth"
	"staffing/internal/domain/billing"
	"staffing/internal/transport/http/api"
	"staffing/internal/transport/http/middleware"
	"staffing/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, candidateID string) ([]billing.Profile, error)
	ResolveActive(ctx context.Context, candidateID string) (billing.Profile, error)
	ResolveAt(ctx context.Context, candidateID string, date time.Time) (billing.Profile, error)
	Create(ctx context.Context, profile billing.Profile) (billing.Profile, error)
	Supersede(ctx context.Context, candidateID string, next billing.Profile) (billing.Profile, error)
}

type Handler struct {
	Service Service
	Audit   shared.Auditor
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, auditor shared.Auditor, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditor, Perms: perms}
}

type profilePayload struct {
	HourlyRate          decimal.Decimal `json:"hourlyRate"`
	Currency            string          `json:"currency"`
	WorkingHoursPerWeek decimal.Decimal `json:"workingHoursPerWeek"`
	WorkingDaysPerWeek  int             `json:"workingDaysPerWeek"`
	EmploymentType      string          `json:"employmentType"`
	TDSRate             decimal.Decimal `json:"tdsRate"`
	Benefits            []string        `json:"benefits"`
	SickLeaveDays       int             `json:"sickLeaveDays"`
	PaidLeaveDays       int             `json:"paidLeaveDays"`
	OvertimeMultiplier  decimal.Decimal `json:"overtimeMultiplier"`
	EffectiveFrom       string          `json:"effectiveFrom"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/candidates/{candidateID}/billing-profiles", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermBillingRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermBillingRead, h.Perms)).Get("/active", h.handleActive)
		r.With(middleware.RequirePermission(auth.PermBillingWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermBillingWrite, h.Perms)).Post("/supersede", h.handleSupersede)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Service.List(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		shared.WriteError(w, r, err, "billing_list_failed")
		return
	}
	if profiles == nil {
		profiles = []billing.Profile{}
	}
	api.Success(w, profiles, middleware.GetRequestID(r.Context()))
}

// handleActive returns the active profile, or the one in effect on ?date=.
func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	var (
		profile billing.Profile
		err     error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		v := shared.NewValidator()
		on, ok := v.Date("date", raw)
		if v.Reject(w, middleware.GetRequestID(r.Context())) || !ok {
			return
		}
		profile, err = h.Service.ResolveAt(r.Context(), candidateID, on)
	} else {
		profile, err = h.Service.ResolveActive(r.Context(), candidateID)
	}
	if err != nil {
		shared.WriteError(w, r, err, "billing_resolve_failed")
		return
	}
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	profile, ok := h.decodeProfile(w, r)
	if !ok {
		return
	}
	profile.CreatedBy = user.UserID

	created, err := h.Service.Create(r.Context(), profile)
	if err != nil {
		shared.WriteError(w, r, err, "billing_create_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityBillingProfile,
		EntityID:   created.ID,
		After:      created,
	})
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSupersede(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	profile, ok := h.decodeProfile(w, r)
	if !ok {
		return
	}
	profile.CreatedBy = user.UserID

	previous, err := h.Service.ResolveActive(r.Context(), profile.CandidateID)
	if err != nil {
		shared.WriteError(w, r, err, "billing_supersede_failed")
		return
	}
	next, err := h.Service.Supersede(r.Context(), profile.CandidateID, profile)
	if err != nil {
		shared.WriteError(w, r, err, "billing_supersede_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionSupersede,
		EntityType: audit.EntityBillingProfile,
		EntityID:   next.ID,
		Before:     previous,
		After:      next,
	})
	api.Created(w, next, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeProfile(w http.ResponseWriter, r *http.Request) (billing.Profile, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload profilePayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return billing.Profile{}, false
	}

	v := shared.NewValidator()
	v.Positive("hourlyRate", payload.HourlyRate)
	v.Required("currency", payload.Currency, "is required")
	v.Enum("currency", payload.Currency, []string{"INR", "USD"}, "must be INR or USD")
	v.Required("employmentType", payload.EmploymentType, "is required")
	v.Enum("employmentType", payload.EmploymentType, []string{billing.EmploymentSubcontract, billing.EmploymentFulltime}, "must be subcontract or fulltime")
	v.NonNegative("tdsRate", payload.TDSRate)
	effectiveFrom, _ := v.Date("effectiveFrom", payload.EffectiveFrom)
	if v.Reject(w, reqID) {
		return billing.Profile{}, false
	}

	return billing.Profile{
		CandidateID:         chi.URLParam(r, "candidateID"),
		HourlyRate:          payload.HourlyRate,
		Currency:            payload.Currency,
		WorkingHoursPerWeek: payload.WorkingHoursPerWeek,
		WorkingDaysPerWeek:  payload.WorkingDaysPerWeek,
		EmploymentType:      payload.EmploymentType,
		TDSRate:             payload.TDSRate,
		Benefits:            payload.Benefits,
		SickLeaveDays:       payload.SickLeaveDays,
		PaidLeaveDays:       payload.PaidLeaveDays,
		OvertimeMultiplier:  payload.OvertimeMultiplier,
		EffectiveFrom:       effectiveFrom,
	}, true
}
