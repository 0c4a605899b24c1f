package reportshandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"staffing/internal/domain/auth"
	"staffing/internal/domain/reports"
	"staffing/internal/transport/http/api"
	"staffing/internal/transport/http/middleware"
	"staffing/internal/transport/http/shared"
)

type Service interface {
	Dashboard(ctx context.Context, candidateID string, year int) (reports.Dashboard, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	now     func() time.Time
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/dashboard", h.handleDashboard)
	})
}

// handleDashboard reports timesheet and invoice status for one candidate
// or, without candidateId, across all candidates.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	candidateID, ok := middleware.CandidateScope(w, r, strings.TrimSpace(r.URL.Query().Get("candidateId")))
	if !ok {
		return
	}
	year := shared.QueryInt(r, "year", h.now().UTC().Year())
	if year < 2000 || year > 9999 {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "year", Reason: "must be a four digit year"}})
		return
	}

	dashboard, err := h.Service.Dashboard(r.Context(), candidateID, year)
	if err != nil {
		shared.WriteError(w, r, err, "dashboard_failed")
		return
	}
	api.Success(w, dashboard, reqID)
}
