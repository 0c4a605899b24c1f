package timesheethandler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"staffing/internal/domain/audit"
	"staffing/internal/domain/auth"
	"staffing/internal/domain/timesheet"
	"staffing/internal/domain/workflow"
	"staffing/internal/platform/metrics"
	"staffing/internal/transport/http/api"
	"staffing/internal/transport/http/middleware"
	"staffing/internal/transport/http/shared"
)

type Service interface {
	CreateWeekly(ctx context.Context, in timesheet.WeeklyInput) (timesheet.Weekly, error)
	UpdateWeekly(ctx context.Context, id string, days [timesheet.DaysPerWeek]timesheet.DayEntry) (timesheet.Weekly, error)
	GetWeekly(ctx context.Context, id string) (timesheet.Weekly, error)
	ListWeekly(ctx context.Context, filter timesheet.WeeklyFilter, limit, offset int) ([]timesheet.Weekly, int, error)
	TransitionWeekly(ctx context.Context, id, to, actor, reason string) (timesheet.Weekly, error)
	ConvertWeekly(ctx context.Context, id string, rate decimal.Decimal, on time.Time) (timesheet.Weekly, error)
	LeaveUsage(ctx context.Context, candidateID string, year int, asOf time.Time) (timesheet.LeaveUsage, error)

	GenerateBiWeekly(ctx context.Context, week1ID, week2ID, actor string) (timesheet.BiWeekly, error)
	GetBiWeekly(ctx context.Context, id string) (timesheet.BiWeekly, error)
	ListBiWeekly(ctx context.Context, candidateID string, limit, offset int) ([]timesheet.BiWeekly, int, error)
	TransitionBiWeekly(ctx context.Context, id, to, actor, reason string) (timesheet.BiWeekly, error)

	GenerateMonthly(ctx context.Context, candidateID string, year, month int, actor string) (timesheet.Monthly, error)
	GetMonthly(ctx context.Context, id string) (timesheet.Monthly, error)
	ListMonthly(ctx context.Context, candidateID string, limit, offset int) ([]timesheet.Monthly, int, error)
	TransitionMonthly(ctx context.Context, id, to, actor, reason string) (timesheet.Monthly, error)
}

type Handler struct {
	Service Service
	Audit   shared.Auditor
	Perms   middleware.PermissionStore
	Metrics *metrics.Collector
	now     func() time.Time
}

func NewHandler(service Service, auditor shared.Auditor, perms middleware.PermissionStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Audit: auditor, Perms: perms, Metrics: collector, now: time.Now}
}

type weeklyPayload struct {
	CandidateID   string               `json:"candidateId"`
	WeekStartDate string               `json:"weekStartDate"`
	Days          []timesheet.DayEntry `json:"days"`
}

type statusPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type conversionPayload struct {
	Rate decimal.Decimal `json:"rate"`
	Date string          `json:"date"`
}

type biWeeklyPayload struct {
	Week1ID string `json:"week1Id"`
	Week2ID string `json:"week2Id"`
}

type monthlyPayload struct {
	CandidateID string `json:"candidateId"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermTimesheetsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermTimesheetsWrite, h.Perms)
	approve := middleware.RequirePermission(auth.PermTimesheetsApprove, h.Perms)

	r.Route("/timesheets", func(r chi.Router) {
		r.With(read).Get("/weekly", h.handleListWeekly)
		r.With(write).Post("/weekly", h.handleCreateWeekly)
		r.With(read).Get("/weekly/{weeklyID}", h.handleGetWeekly)
		r.With(write).Put("/weekly/{weeklyID}", h.handleUpdateWeekly)
		r.With(write).Post("/weekly/{weeklyID}/status", h.handleWeeklyStatus)
		r.With(approve).Post("/weekly/{weeklyID}/conversion", h.handleConvertWeekly)
		r.With(read).Get("/leave-usage", h.handleLeaveUsage)

		r.With(read).Get("/biweekly", h.handleListBiWeekly)
		r.With(approve).Post("/biweekly", h.handleGenerateBiWeekly)
		r.With(read).Get("/biweekly/{periodID}", h.handleGetBiWeekly)
		r.With(approve).Post("/biweekly/{periodID}/status", h.handleBiWeeklyStatus)

		r.With(read).Get("/monthly", h.handleListMonthly)
		r.With(approve).Post("/monthly", h.handleGenerateMonthly)
		r.With(read).Get("/monthly/{periodID}", h.handleGetMonthly)
		r.With(approve).Post("/monthly/{periodID}/status", h.handleMonthlyStatus)
	})
}

func (h *Handler) handleListWeekly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	candidateID, ok := middleware.CandidateScope(w, r, strings.TrimSpace(r.URL.Query().Get("candidateId")))
	if !ok {
		return
	}
	filter := timesheet.WeeklyFilter{CandidateID: candidateID, Status: strings.TrimSpace(r.URL.Query().Get("status"))}

	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{workflow.StatusDraft, workflow.StatusSubmitted, workflow.StatusApproved, workflow.StatusRejected}, "must be a weekly status")
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, ok := v.Date("from", raw); ok {
			filter.From = &from
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, ok := v.Date("to", raw); ok {
			filter.To = &to
		}
	}
	if filter.From != nil && filter.To != nil {
		v.DateOrder("from", *filter.From, "to", *filter.To)
	}
	if v.Reject(w, reqID) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	weeks, total, err := h.Service.ListWeekly(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err, "weekly_list_failed")
		return
	}
	out := make([]timesheet.Weekly, 0, len(weeks))
	for _, wk := range weeks {
		out = append(out, wk.Rounded())
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, out, reqID)
}

func (h *Handler) handleCreateWeekly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload weeklyPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	candidateID, ok := middleware.CandidateScope(w, r, strings.TrimSpace(payload.CandidateID))
	if !ok {
		return
	}

	v := shared.NewValidator()
	v.Required("candidateId", candidateID, "is required")
	weekStart, _ := v.Date("weekStartDate", payload.WeekStartDate)
	days := daysFrom(v, payload.Days)
	if v.Reject(w, reqID) {
		return
	}

	week, err := h.Service.CreateWeekly(r.Context(), timesheet.WeeklyInput{
		CandidateID:   candidateID,
		WeekStartDate: weekStart,
		Days:          days,
		CreatedBy:     user.UserID,
	})
	if err != nil {
		shared.WriteError(w, r, err, "weekly_create_failed")
		return
	}
	h.Metrics.Count(metrics.EventWeeklyCreated, 1)
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityWeekly,
		EntityID:   week.ID,
		After:      week.Rounded(),
	})
	api.Created(w, week.Rounded(), reqID)
}

func (h *Handler) handleGetWeekly(w http.ResponseWriter, r *http.Request) {
	week, ok := h.loadWeekly(w, r)
	if !ok {
		return
	}
	api.Success(w, week.Rounded(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateWeekly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	before, ok := h.loadWeekly(w, r)
	if !ok {
		return
	}

	var payload weeklyPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	days := daysFrom(v, payload.Days)
	if v.Reject(w, reqID) {
		return
	}

	week, err := h.Service.UpdateWeekly(r.Context(), before.ID, days)
	if err != nil {
		shared.WriteError(w, r, err, "weekly_update_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityWeekly,
		EntityID:   week.ID,
		Before:     before.Rounded(),
		After:      week.Rounded(),
	})
	api.Success(w, week.Rounded(), reqID)
}

// handleWeeklyStatus submits a week (owner or staff) or decides it
// (approvers only).
func (h *Handler) handleWeeklyStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	before, ok := h.loadWeekly(w, r)
	if !ok {
		return
	}
	payload, ok := decodeStatus(w, r, []string{workflow.StatusSubmitted, workflow.StatusApproved, workflow.StatusRejected})
	if !ok {
		return
	}
	if payload.Status != workflow.StatusSubmitted && !h.canApprove(w, r, user) {
		return
	}

	week, err := h.Service.TransitionWeekly(r.Context(), before.ID, payload.Status, user.UserID, payload.Reason)
	if err != nil {
		shared.WriteError(w, r, err, "weekly_status_failed")
		return
	}
	if payload.Status != workflow.StatusSubmitted {
		h.Metrics.Count(metrics.EventWeeklyDecided, 1)
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     statusAction(payload.Status),
		EntityType: audit.EntityWeekly,
		EntityID:   week.ID,
		Before:     map[string]string{"status": before.Status},
		After:      map[string]string{"status": week.Status, "reason": week.RejectionReason},
	})
	api.Success(w, week.Rounded(), reqID)
}

func (h *Handler) handleConvertWeekly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload conversionPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Positive("rate", payload.Rate)
	var on time.Time
	if payload.Date != "" {
		on, _ = v.Date("date", payload.Date)
	}
	if v.Reject(w, reqID) {
		return
	}

	week, err := h.Service.ConvertWeekly(r.Context(), chi.URLParam(r, "weeklyID"), payload.Rate, on)
	if err != nil {
		shared.WriteError(w, r, err, "weekly_conversion_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionConvert,
		EntityType: audit.EntityWeekly,
		EntityID:   week.ID,
		After:      week.Conversion,
	})
	api.Success(w, week.Rounded(), reqID)
}

func (h *Handler) handleLeaveUsage(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	candidateID, ok := middleware.CandidateScope(w, r, strings.TrimSpace(r.URL.Query().Get("candidateId")))
	if !ok {
		return
	}
	now := h.now().UTC()
	year := shared.QueryInt(r, "year", now.Year())

	v := shared.NewValidator()
	v.Required("candidateId", candidateID, "is required")
	if year < 2000 || year > 9999 {
		v.Add("year", "must be a four digit year")
	}
	if v.Reject(w, reqID) {
		return
	}

	asOf := now
	if year != now.Year() {
		asOf = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	usage, err := h.Service.LeaveUsage(r.Context(), candidateID, year, asOf)
	if err != nil {
		shared.WriteError(w, r, err, "leave_usage_failed")
		return
	}
	api.Success(w, map[string]any{
		"candidateId": candidateID,
		"year":        year,
		"usage":       usage,
		"exceeded":    usage.Exceeded(),
	}, reqID)
}

func (h *Handler) handleListBiWeekly(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := middleware.CandidateScope(w, r, strings.TrimSpace(r.URL.Query().Get("candidateId")))
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	periods, total, err := h.Service.ListBiWeekly(r.Context(), candidateID, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err, "biweekly_list_failed")
		return
	}
	out := make([]timesheet.BiWeekly, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.Rounded())
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerateBiWeekly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload biWeeklyPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("week1Id", payload.Week1ID, "is required")
	v.Required("week2Id", payload.Week2ID, "is required")
	if v.Reject(w, reqID) {
		return
	}

	period, err := h.Service.GenerateBiWeekly(r.Context(), payload.Week1ID, payload.Week2ID, user.UserID)
	if err != nil {
		shared.WriteError(w, r, err, "biweekly_generate_failed")
		return
	}
	h.Metrics.Count(metrics.EventPeriodAggregated, 1)
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionAggregate,
		EntityType: audit.EntityBiWeekly,
		EntityID:   period.ID,
		After:      period.Rounded().Totals,
	})
	api.Created(w, period.Rounded(), reqID)
}

func (h *Handler) handleGetBiWeekly(w http.ResponseWriter, r *http.Request) {
	period, err := h.Service.GetBiWeekly(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.WriteError(w, r, err, "biweekly_get_failed")
		return
	}
	if !middleware.OwnsRecord(w, r, period.CandidateID) {
		return
	}
	api.Success(w, period.Rounded(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBiWeeklyStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	payload, ok := decodeStatus(w, r, []string{workflow.StatusSubmitted, workflow.StatusApproved, workflow.StatusRejected})
	if !ok {
		return
	}
	period, err := h.Service.TransitionBiWeekly(r.Context(), chi.URLParam(r, "periodID"), payload.Status, user.UserID, payload.Reason)
	if err != nil {
		shared.WriteError(w, r, err, "biweekly_status_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     statusAction(payload.Status),
		EntityType: audit.EntityBiWeekly,
		EntityID:   period.ID,
		After:      map[string]string{"status": period.Status, "reason": period.RejectionReason},
	})
	api.Success(w, period.Rounded(), reqID)
}

func (h *Handler) handleListMonthly(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := middleware.CandidateScope(w, r, strings.TrimSpace(r.URL.Query().Get("candidateId")))
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	periods, total, err := h.Service.ListMonthly(r.Context(), candidateID, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err, "monthly_list_failed")
		return
	}
	out := make([]timesheet.Monthly, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.Rounded())
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerateMonthly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload monthlyPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("candidateId", payload.CandidateID, "is required")
	if payload.Month < 1 || payload.Month > 12 {
		v.Add("month", "must be between 1 and 12")
	}
	if payload.Year < 2000 || payload.Year > 9999 {
		v.Add("year", "must be a four digit year")
	}
	if v.Reject(w, reqID) {
		return
	}

	period, err := h.Service.GenerateMonthly(r.Context(), payload.CandidateID, payload.Year, payload.Month, user.UserID)
	if err != nil {
		shared.WriteError(w, r, err, "monthly_generate_failed")
		return
	}
	h.Metrics.Count(metrics.EventPeriodAggregated, 1)
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionAggregate,
		EntityType: audit.EntityMonthly,
		EntityID:   period.ID,
		After:      period.Rounded().Totals,
	})
	api.Created(w, period.Rounded(), reqID)
}

func (h *Handler) handleGetMonthly(w http.ResponseWriter, r *http.Request) {
	period, err := h.Service.GetMonthly(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.WriteError(w, r, err, "monthly_get_failed")
		return
	}
	if !middleware.OwnsRecord(w, r, period.CandidateID) {
		return
	}
	api.Success(w, period.Rounded(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMonthlyStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	payload, ok := decodeStatus(w, r, []string{workflow.StatusSubmitted, workflow.StatusApproved, workflow.StatusRejected})
	if !ok {
		return
	}
	period, err := h.Service.TransitionMonthly(r.Context(), chi.URLParam(r, "periodID"), payload.Status, user.UserID, payload.Reason)
	if err != nil {
		shared.WriteError(w, r, err, "monthly_status_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     statusAction(payload.Status),
		EntityType: audit.EntityMonthly,
		EntityID:   period.ID,
		After:      map[string]string{"status": period.Status, "reason": period.RejectionReason},
	})
	api.Success(w, period.Rounded(), reqID)
}

func (h *Handler) loadWeekly(w http.ResponseWriter, r *http.Request) (timesheet.Weekly, bool) {
	week, err := h.Service.GetWeekly(r.Context(), chi.URLParam(r, "weeklyID"))
	if err != nil {
		shared.WriteError(w, r, err, "weekly_get_failed")
		return timesheet.Weekly{}, false
	}
	if !middleware.OwnsRecord(w, r, week.CandidateID) {
		return timesheet.Weekly{}, false
	}
	return week, true
}

func (h *Handler) canApprove(w http.ResponseWriter, r *http.Request, user auth.UserContext) bool {
	allowed, err := h.Perms.HasPermission(r.Context(), user.RoleName, auth.PermTimesheetsApprove)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", middleware.GetRequestID(r.Context()))
		return false
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func decodeStatus(w http.ResponseWriter, r *http.Request, allowed []string) (statusPayload, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload statusPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return statusPayload{}, false
	}
	payload.Status = strings.ToLower(strings.TrimSpace(payload.Status))
	v := shared.NewValidator()
	v.Required("status", payload.Status, "is required")
	v.Enum("status", payload.Status, allowed, "must be one of "+strings.Join(allowed, ", "))
	if v.Reject(w, reqID) {
		return statusPayload{}, false
	}
	return payload, true
}

func daysFrom(v *shared.Validator, in []timesheet.DayEntry) [timesheet.DaysPerWeek]timesheet.DayEntry {
	var days [timesheet.DaysPerWeek]timesheet.DayEntry
	if len(in) != timesheet.DaysPerWeek {
		v.Add("days", "must list exactly 7 days starting Monday")
		return days
	}
	copy(days[:], in)
	return days
}

func statusAction(status string) string {
	switch status {
	case workflow.StatusSubmitted:
		return audit.ActionSubmit
	case workflow.StatusApproved:
		return audit.ActionApprove
	case workflow.StatusRejected:
		return audit.ActionReject
	}
	return audit.ActionTransition
}
