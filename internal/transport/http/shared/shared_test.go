package shared

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffing/internal/domain/billing"
	"staffing/internal/domain/invoice"
	"staffing/internal/domain/timesheet"
	"staffing/internal/domain/workflow"
)

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDay("2026-03-02T23:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDay("02/03/2026")
	assert.Error(t, err)
}

func TestPaginationClamps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-3", nil)
	page := ParsePagination(req, 50, 200)
	assert.Equal(t, Pagination{Limit: 200, Offset: 0}, page)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?year=2026&month=x", nil)
	assert.Equal(t, 2026, QueryInt(req, "year", 0))
	assert.Equal(t, 7, QueryInt(req, "month", 7))
}

func TestValidatorRejectsWithSortedFields(t *testing.T) {
	v := NewValidator()
	v.Required("candidateId", " ", "is required")
	v.Positive("hourlyRate", decimal.Zero)
	v.NonNegative("tdsRate", decimal.NewFromInt(-1))
	v.Enum("currency", "EUR", []string{"INR", "USD"}, "must be INR or USD")

	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-9"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var env struct {
		Error struct {
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var fields []string
	for _, issue := range env.Error.Details.Fields {
		fields = append(fields, issue.Field)
	}
	assert.Equal(t, []string{"candidateId", "currency", "hourlyRate", "tdsRate"}, fields)
}

func TestValidatorNoIssues(t *testing.T) {
	v := NewValidator()
	v.Enum("currency", "usd", []string{"INR", "USD"}, "must be INR or USD")
	assert.False(t, v.Reject(httptest.NewRecorder(), ""))
}

func TestWriteErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{billing.ErrNoBillingConfigured, http.StatusUnprocessableEntity, "no_billing_configured"},
		{fmt.Errorf("%w: 2026-03-08 -> 2026-03-16", timesheet.ErrNonContiguousWeeks), http.StatusUnprocessableEntity, "non_contiguous_weeks"},
		{invoice.ErrInvoiceAlreadyExists, http.StatusConflict, "invoice_already_exists"},
		{invoice.ErrDuplicateInvoiceNumber, http.StatusConflict, "duplicate_invoice_number"},
		{invoice.ErrInvalidConversionRate, http.StatusBadRequest, "invalid_conversion_rate"},
		{fmt.Errorf("%w: draft -> approved", workflow.ErrInvalidTransition), http.StatusConflict, "invalid_transition"},
		{errors.New("connection reset"), http.StatusInternalServerError, "weekly_failed"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, "weekly_failed")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Contains(t, rec.Body.String(), `"code":"`+tc.code+`"`)
	}
}

func TestWriteErrorHoursDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &timesheet.HoursError{Day: 2, Field: timesheet.FieldOvertime, Reason: "day exceeds 24 hours"}
	WriteError(rec, httptest.NewRequest(http.MethodPost, "/", nil), err, "weekly_failed")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Day   int    `json:"day"`
				Field string `json:"field"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "invalid_hours", env.Error.Code)
	assert.Equal(t, 2, env.Error.Details.Day)
	assert.Equal(t, timesheet.FieldOvertime, env.Error.Details.Field)
}
