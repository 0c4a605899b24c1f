package invoicehandler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"staffing/internal/domain/audit"
	"staffing/internal/domain/auth"
	"staffing/internal/domain/invoice"
	"staffing/internal/domain/money"
	"staffing/internal/domain/workflow"
	"staffing/internal/platform/metrics"
	"staffing/internal/transport/http/api"
	"staffing/internal/transport/http/middleware"
	"staffing/internal/transport/http/shared"
)

const endpointGenerate = "invoices.generate"

type Service interface {
	Generate(ctx context.Context, req invoice.GenerateRequest) (invoice.Invoice, error)
	Get(ctx context.Context, id string) (invoice.Invoice, error)
	List(ctx context.Context, filter invoice.Filter, limit, offset int) ([]invoice.Invoice, int, error)
	Transition(ctx context.Context, id, to string) (invoice.Invoice, error)
	Document(ctx context.Context, id string) (invoice.Invoice, []byte, error)
}

type IdempotencyStore interface {
	Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

// OverdueRunner triggers the overdue sweep out of schedule.
type OverdueRunner interface {
	SweepOverdue(ctx context.Context) (int64, error)
}

type Handler struct {
	Service     Service
	Idempotency IdempotencyStore
	Jobs        OverdueRunner
	Audit       shared.Auditor
	Perms       middleware.PermissionStore
	Metrics     *metrics.Collector
}

func NewHandler(service Service, idem IdempotencyStore, jobs OverdueRunner, auditor shared.Auditor, perms middleware.PermissionStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Idempotency: idem, Jobs: jobs, Audit: auditor, Perms: perms, Metrics: collector}
}

type generatePayload struct {
	WeeklyTimesheetID   string              `json:"weeklyTimesheetId"`
	BiWeeklyTimesheetID string              `json:"biweeklyTimesheetId"`
	ClientCompanyID     string              `json:"clientCompanyId"`
	EndUserID           string              `json:"endUserId"`
	InvoiceNumber       string              `json:"invoiceNumber"`
	SixMonthAverageRate decimal.Decimal     `json:"sixMonthAverageRate"`
	SpotRate            decimal.NullDecimal `json:"spotRate"`
	Basis               string              `json:"basis"`
	IssuedDate          string              `json:"issuedDate"`
}

type statusPayload struct {
	Status string `json:"status"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermInvoicesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermInvoicesWrite, h.Perms)

	r.Route("/invoices", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleGenerate)
		r.With(write).Post("/overdue/run", h.handleRunOverdue)
		r.With(read).Get("/{invoiceID}", h.handleGet)
		r.With(read).Get("/{invoiceID}/pdf", h.handleDocument)
		r.With(write).Post("/{invoiceID}/status", h.handleStatus)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	candidateID, ok := middleware.CandidateScope(w, r, strings.TrimSpace(r.URL.Query().Get("candidateId")))
	if !ok {
		return
	}
	filter := invoice.Filter{CandidateID: candidateID, Status: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))}

	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{workflow.StatusGenerated, workflow.StatusSent, workflow.StatusPaid, workflow.StatusOverdue}, "must be an invoice status")
	if v.Reject(w, reqID) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	invoices, total, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err, "invoice_list_failed")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, invoices, reqID)
}

// handleGenerate invoices one approved timesheet. A repeated request with
// the same Idempotency-Key replays the first response.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	key := strings.TrimSpace(r.Header.Get(middleware.IdempotencyHeader))
	requestHash := middleware.RequestHash(body)
	if key != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, endpointGenerate, key, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different request", reqID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "requestId", reqID, "err", err)
		}
		if found {
			h.Metrics.Count(metrics.EventIdempotentReplays, 1)
			api.Created(w, stored, reqID)
			return
		}
	}

	var payload generatePayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	req, ok := buildRequest(w, reqID, payload)
	if !ok {
		return
	}
	req.CreatedBy = user.UserID

	inv, err := h.Service.Generate(r.Context(), req)
	if err != nil {
		if errors.Is(err, invoice.ErrInvoiceAlreadyExists) {
			h.Metrics.Count(metrics.EventInvoiceDuplicate, 1)
		}
		shared.WriteError(w, r, err, "invoice_generate_failed")
		return
	}
	h.Metrics.Count(metrics.EventInvoiceGenerated, 1)
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionGenerate,
		EntityType: audit.EntityInvoice,
		EntityID:   inv.ID,
		After:      inv,
	})

	if key != "" && h.Idempotency != nil {
		encoded, err := json.Marshal(inv)
		if err == nil {
			err = h.Idempotency.Save(r.Context(), user.UserID, endpointGenerate, key, requestHash, encoded)
		}
		if err != nil {
			slog.Warn("idempotency save failed", "requestId", reqID, "err", err)
		}
	}
	api.Created(w, inv, reqID)
}

func buildRequest(w http.ResponseWriter, reqID string, payload generatePayload) (invoice.GenerateRequest, bool) {
	req := invoice.GenerateRequest{
		WeeklyTimesheetID:   strings.TrimSpace(payload.WeeklyTimesheetID),
		BiWeeklyTimesheetID: strings.TrimSpace(payload.BiWeeklyTimesheetID),
		ClientCompanyID:     strings.TrimSpace(payload.ClientCompanyID),
		EndUserID:           strings.TrimSpace(payload.EndUserID),
		InvoiceNumber:       strings.TrimSpace(payload.InvoiceNumber),
		Rates:               invoice.Rates{SixMonthAverage: payload.SixMonthAverageRate, Spot: payload.SpotRate},
		Basis:               strings.ToUpper(strings.TrimSpace(payload.Basis)),
	}

	v := shared.NewValidator()
	if (req.WeeklyTimesheetID == "") == (req.BiWeeklyTimesheetID == "") {
		v.Add("weeklyTimesheetId", "exactly one of weeklyTimesheetId or biweeklyTimesheetId is required")
	}
	if req.EndUserID != "" && req.ClientCompanyID == "" {
		v.Add("clientCompanyId", "is required when endUserId is set")
	}
	v.Positive("sixMonthAverageRate", payload.SixMonthAverageRate)
	if payload.SpotRate.Valid {
		v.Positive("spotRate", payload.SpotRate.Decimal)
	}
	v.Enum("basis", req.Basis, []string{money.CurrencyINR, money.CurrencyUSD}, "must be INR or USD")
	if payload.IssuedDate != "" {
		req.IssuedDate, _ = v.Date("issuedDate", payload.IssuedDate)
	}
	if v.Reject(w, reqID) {
		return invoice.GenerateRequest{}, false
	}
	return req, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r); !ok {
		return
	}
	inv, data, err := h.Service.Document(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		shared.WriteError(w, r, err, "invoice_document_failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.InvoiceNumber+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("invoice document write failed", "invoiceId", inv.ID, "err", err)
	}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	before, ok := h.load(w, r)
	if !ok {
		return
	}

	var payload statusPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	payload.Status = strings.ToLower(strings.TrimSpace(payload.Status))
	v := shared.NewValidator()
	v.Required("status", payload.Status, "is required")
	v.Enum("status", payload.Status, []string{workflow.StatusSent, workflow.StatusPaid, workflow.StatusOverdue}, "must be sent, paid or overdue")
	if v.Reject(w, reqID) {
		return
	}

	inv, err := h.Service.Transition(r.Context(), before.ID, payload.Status)
	if err != nil {
		shared.WriteError(w, r, err, "invoice_status_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionTransition,
		EntityType: audit.EntityInvoice,
		EntityID:   inv.ID,
		Before:     map[string]string{"status": before.Status},
		After:      map[string]string{"status": inv.Status},
	})
	api.Success(w, inv, reqID)
}

func (h *Handler) handleRunOverdue(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if h.Jobs == nil {
		api.Fail(w, http.StatusServiceUnavailable, "jobs_unavailable", "background jobs are not configured", reqID)
		return
	}
	updated, err := h.Jobs.SweepOverdue(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "overdue_sweep_failed")
		return
	}
	if updated > 0 {
		h.Metrics.Count(metrics.EventOverdueSwept, uint64(updated))
	}
	api.Success(w, map[string]int64{"updated": updated}, reqID)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (invoice.Invoice, bool) {
	inv, err := h.Service.Get(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		shared.WriteError(w, r, err, "invoice_get_failed")
		return invoice.Invoice{}, false
	}
	if !middleware.OwnsRecord(w, r, inv.CandidateID) {
		return invoice.Invoice{}, false
	}
	return inv, true
}
