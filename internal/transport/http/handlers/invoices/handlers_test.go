package invoicehandler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffing/internal/domain/audit"
	"staffing/internal/domain/auth"
	"staffing/internal/domain/invoice"
	"staffing/internal/domain/workflow"
	"staffing/internal/platform/metrics"
	"staffing/internal/transport/http/middleware"
)

type fakeService struct {
	invoices  map[string]invoice.Invoice
	requests  []invoice.GenerateRequest
	generated int
}

func (f *fakeService) Generate(_ context.Context, req invoice.GenerateRequest) (invoice.Invoice, error) {
	f.requests = append(f.requests, req)
	for _, inv := range f.invoices {
		if inv.WeeklyTimesheetID != "" && inv.WeeklyTimesheetID == req.WeeklyTimesheetID {
			return invoice.Invoice{}, invoice.ErrInvoiceAlreadyExists
		}
	}
	rate, err := req.Rates.Effective()
	if err != nil {
		return invoice.Invoice{}, err
	}
	conv, err := invoice.ConvertAndTax(decimal.NewFromInt(2000), "USD", req.Rates, decimal.NewFromInt(18), "INR")
	if err != nil {
		return invoice.Invoice{}, err
	}
	conv = conv.Settle()
	f.generated++
	inv := invoice.Invoice{
		ID:                     fmt.Sprintf("inv-%d", f.generated),
		InvoiceNumber:          invoice.FormatNumber("INV", 2026, int64(f.generated)),
		CandidateID:            "c1",
		WeeklyTimesheetID:      req.WeeklyTimesheetID,
		Currency:               conv.Basis,
		CurrencyConversionRate: rate,
		TotalAmount:            conv.TotalAmount,
		GSTAmount:              conv.GSTAmount,
		TotalWithGST:           conv.TotalWithGST,
		Status:                 workflow.StatusGenerated,
	}
	f.invoices[inv.ID] = inv
	return inv, nil
}

func (f *fakeService) Get(_ context.Context, id string) (invoice.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return invoice.Invoice{}, invoice.ErrNotFound
	}
	return inv, nil
}

func (f *fakeService) List(_ context.Context, filter invoice.Filter, _, _ int) ([]invoice.Invoice, int, error) {
	out := []invoice.Invoice{}
	for _, inv := range f.invoices {
		if filter.CandidateID != "" && inv.CandidateID != filter.CandidateID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (f *fakeService) Transition(_ context.Context, id, to string) (invoice.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return invoice.Invoice{}, invoice.ErrNotFound
	}
	if err := workflow.Invoice.Transition(inv.Status, to, ""); err != nil {
		return invoice.Invoice{}, err
	}
	inv.Status = to
	f.invoices[id] = inv
	return inv, nil
}

func (f *fakeService) Document(_ context.Context, id string) (invoice.Invoice, []byte, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return invoice.Invoice{}, nil, invoice.ErrNotFound
	}
	return inv, []byte("%PDF-1.3 fake"), nil
}

type memoryIdempotency struct {
	entries map[string]struct {
		hash     string
		response json.RawMessage
	}
}

func (m *memoryIdempotency) Check(_ context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	entry, ok := m.entries[userID+"|"+endpoint+"|"+key]
	if !ok {
		return nil, false, nil
	}
	if entry.hash != requestHash {
		return nil, false, middleware.ErrIdempotencyConflict
	}
	return entry.response, true, nil
}

func (m *memoryIdempotency) Save(_ context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	m.entries[userID+"|"+endpoint+"|"+key] = struct {
		hash     string
		response json.RawMessage
	}{requestHash, response}
	return nil
}

type fakeJobs struct {
	runs int
}

func (f *fakeJobs) SweepOverdue(context.Context) (int64, error) {
	f.runs++
	return 2, nil
}

type fakeAuditor struct {
	entries []audit.Entry
}

func (f *fakeAuditor) Record(_ context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

var (
	finance   = auth.UserContext{UserID: "u-f1", RoleName: auth.RoleFinance}
	candidate = auth.UserContext{UserID: "u-c1", RoleName: auth.RoleCandidate, CandidateID: "c1"}
)

type harness struct {
	svc     *fakeService
	idem    *memoryIdempotency
	jobs    *fakeJobs
	auditor *fakeAuditor
	metrics *metrics.Collector
	router  chi.Router
}

func newHarness() *harness {
	h := &harness{
		svc: &fakeService{invoices: map[string]invoice.Invoice{}},
		idem: &memoryIdempotency{entries: map[string]struct {
			hash     string
			response json.RawMessage
		}{}},
		jobs:    &fakeJobs{},
		auditor: &fakeAuditor{},
		metrics: metrics.New(),
	}
	handler := NewHandler(h.svc, h.idem, h.jobs, h.auditor, auth.StaticPermissions{}, h.metrics)
	h.router = chi.NewRouter()
	handler.RegisterRoutes(h.router)
	return h
}

func (h *harness) do(user auth.UserContext, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) events() map[string]uint64 {
	return h.metrics.Snapshot()["events"].(map[string]uint64)
}

func decodeInvoice(t *testing.T, rec *httptest.ResponseRecorder) invoice.Invoice {
	t.Helper()
	var env struct {
		Data invoice.Invoice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

const generateBody = `{"weeklyTimesheetId":"w1","sixMonthAverageRate":"83"}`

func TestGenerateInvoice(t *testing.T) {
	h := newHarness()
	rec := h.do(finance, http.MethodPost, "/invoices", generateBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	inv := decodeInvoice(t, rec)
	assert.Equal(t, "INV-2026-00001", inv.InvoiceNumber)
	assert.Equal(t, "166000", inv.TotalAmount.String())
	assert.Equal(t, "29880", inv.GSTAmount.String())
	assert.Equal(t, "195880", inv.TotalWithGST.String())
	require.Len(t, h.svc.requests, 1)
	assert.Equal(t, "u-f1", h.svc.requests[0].CreatedBy)
	assert.Equal(t, uint64(1), h.events()[metrics.EventInvoiceGenerated])
	require.Len(t, h.auditor.entries, 1)
	assert.Equal(t, audit.ActionGenerate, h.auditor.entries[0].Action)
}

func TestGenerateSpotRateOverridesAverage(t *testing.T) {
	h := newHarness()
	rec := h.do(finance, http.MethodPost, "/invoices", `{"weeklyTimesheetId":"w1","sixMonthAverageRate":"83","spotRate":"84.5"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "84.5", decodeInvoice(t, rec).CurrencyConversionRate.String())
}

func TestGenerateValidation(t *testing.T) {
	h := newHarness()
	cases := map[string]string{
		"no timesheet":   `{"sixMonthAverageRate":"83"}`,
		"both":           `{"weeklyTimesheetId":"w1","biweeklyTimesheetId":"b1","sixMonthAverageRate":"83"}`,
		"zero rate":      `{"weeklyTimesheetId":"w1","sixMonthAverageRate":"0"}`,
		"bad basis":      `{"weeklyTimesheetId":"w1","sixMonthAverageRate":"83","basis":"EUR"}`,
		"orphan enduser": `{"weeklyTimesheetId":"w1","sixMonthAverageRate":"83","endUserId":"e1"}`,
		"unknown field":  `{"weeklyTimesheetId":"w1","sixMonthAverageRate":"83","gst":"5"}`,
	}
	for name, body := range cases {
		rec := h.do(finance, http.MethodPost, "/invoices", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	assert.Empty(t, h.svc.requests)
}

func TestGenerateDuplicateRejected(t *testing.T) {
	h := newHarness()
	require.Equal(t, http.StatusCreated, h.do(finance, http.MethodPost, "/invoices", generateBody, nil).Code)

	rec := h.do(finance, http.MethodPost, "/invoices", generateBody, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "invoice_already_exists")
	assert.Equal(t, uint64(1), h.events()[metrics.EventInvoiceDuplicate])
}

func TestGenerateIdempotencyReplay(t *testing.T) {
	h := newHarness()
	headers := map[string]string{middleware.IdempotencyHeader: "key-1"}

	first := h.do(finance, http.MethodPost, "/invoices", generateBody, headers)
	require.Equal(t, http.StatusCreated, first.Code)
	second := h.do(finance, http.MethodPost, "/invoices", generateBody, headers)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	assert.Equal(t, decodeInvoice(t, first).ID, decodeInvoice(t, second).ID)
	assert.Len(t, h.svc.requests, 1)
	assert.Equal(t, uint64(1), h.events()[metrics.EventIdempotentReplays])

	conflict := h.do(finance, http.MethodPost, "/invoices", `{"weeklyTimesheetId":"w2","sixMonthAverageRate":"83"}`, headers)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Contains(t, conflict.Body.String(), "idempotency_conflict")
}

func TestInvoiceStatusFlow(t *testing.T) {
	h := newHarness()
	inv := decodeInvoice(t, h.do(finance, http.MethodPost, "/invoices", generateBody, nil))
	path := "/invoices/" + inv.ID + "/status"

	rec := h.do(finance, http.MethodPost, path, `{"status":"paid"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_transition")

	rec = h.do(finance, http.MethodPost, path, `{"status":"generated"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(finance, http.MethodPost, path, `{"status":"sent"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workflow.StatusSent, decodeInvoice(t, rec).Status)

	rec = h.do(finance, http.MethodPost, path, `{"status":"Paid"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workflow.StatusPaid, decodeInvoice(t, rec).Status)

	last := h.auditor.entries[len(h.auditor.entries)-1]
	assert.Equal(t, audit.ActionTransition, last.Action)
	assert.Equal(t, map[string]string{"status": workflow.StatusPaid}, last.After)
}

func TestInvoiceReadsAndDocument(t *testing.T) {
	h := newHarness()
	inv := decodeInvoice(t, h.do(finance, http.MethodPost, "/invoices", generateBody, nil))

	rec := h.do(finance, http.MethodGet, "/invoices?status=generated", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	rec = h.do(finance, http.MethodGet, "/invoices?status=void", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(finance, http.MethodGet, "/invoices/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(finance, http.MethodGet, "/invoices/"+inv.ID+"/pdf", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "INV-2026-00001.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestCandidateCannotReadInvoices(t *testing.T) {
	h := newHarness()
	inv := decodeInvoice(t, h.do(finance, http.MethodPost, "/invoices", generateBody, nil))

	assert.Equal(t, http.StatusForbidden, h.do(candidate, http.MethodGet, "/invoices", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(candidate, http.MethodGet, "/invoices/"+inv.ID, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(candidate, http.MethodPost, "/invoices", generateBody, nil).Code)
}

func TestRunOverdueSweep(t *testing.T) {
	h := newHarness()
	rec := h.do(finance, http.MethodPost, "/invoices/overdue/run", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":2`)
	assert.Equal(t, 1, h.jobs.runs)
	assert.Equal(t, uint64(2), h.events()[metrics.EventOverdueSwept])
}
