package shared

import (
	"errors"
	"net/http"

	"staffing/internal/domain/billing"
	"staffing/internal/domain/company"
	"staffing/internal/domain/invoice"
	"staffing/internal/domain/money"
	"staffing/internal/domain/timesheet"
	"staffing/internal/domain/workflow"
	"staffing/internal/requestctx"
	"staffing/internal/transport/http/api"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// domainErrors is checked in order with errors.Is; the first match wins.
var domainErrors = []errorMapping{
	{billing.ErrNoBillingConfigured, http.StatusUnprocessableEntity, "no_billing_configured"},
	{billing.ErrActiveProfileExists, http.StatusConflict, "active_profile_exists"},
	{billing.ErrEffectiveDateOrder, http.StatusUnprocessableEntity, "effective_date_order"},
	{billing.ErrCandidateNotFound, http.StatusNotFound, "candidate_not_found"},
	{billing.ErrInvalidBillingConfig, http.StatusBadRequest, "invalid_billing_config"},

	{timesheet.ErrInvalidHours, http.StatusBadRequest, "invalid_hours"},
	{timesheet.ErrWeekStartNotMonday, http.StatusBadRequest, "week_start_not_monday"},
	{timesheet.ErrNonContiguousWeeks, http.StatusUnprocessableEntity, "non_contiguous_weeks"},
	{timesheet.ErrCandidateMismatch, http.StatusUnprocessableEntity, "candidate_mismatch"},
	{timesheet.ErrCurrencyMismatch, http.StatusUnprocessableEntity, "currency_mismatch"},
	{timesheet.ErrDuplicateWeek, http.StatusUnprocessableEntity, "duplicate_week"},
	{timesheet.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period"},
	{timesheet.ErrInvalidMode, http.StatusBadRequest, "invalid_mode"},
	{timesheet.ErrNotFound, http.StatusNotFound, "timesheet_not_found"},
	{timesheet.ErrWeekAlreadyExists, http.StatusConflict, "week_already_exists"},
	{timesheet.ErrPeriodExists, http.StatusConflict, "period_already_exists"},
	{timesheet.ErrNotEditable, http.StatusConflict, "timesheet_not_editable"},
	{timesheet.ErrWeekRejected, http.StatusUnprocessableEntity, "week_rejected"},
	{timesheet.ErrNoWeeks, http.StatusUnprocessableEntity, "no_weeks"},

	{invoice.ErrNotFound, http.StatusNotFound, "invoice_not_found"},
	{invoice.ErrDuplicateInvoiceNumber, http.StatusConflict, "duplicate_invoice_number"},
	{invoice.ErrInvoiceAlreadyExists, http.StatusConflict, "invoice_already_exists"},
	{invoice.ErrTimesheetNotApproved, http.StatusUnprocessableEntity, "timesheet_not_approved"},
	{invoice.ErrTimesheetReference, http.StatusBadRequest, "timesheet_reference"},
	{invoice.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
	{invoice.ErrInvalidGSTRate, http.StatusBadRequest, "invalid_gst_rate"},
	{money.ErrInvalidConversionRate, http.StatusBadRequest, "invalid_conversion_rate"},

	{company.ErrNotFound, http.StatusNotFound, "company_not_found"},
	{company.ErrInvalidCompany, http.StatusBadRequest, "invalid_company"},
	{company.ErrEndUserMismatch, http.StatusUnprocessableEntity, "end_user_mismatch"},

	{workflow.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{workflow.ErrReasonRequired, http.StatusBadRequest, "reason_required"},
}

// WriteError renders err as an envelope. Known domain errors keep their
// message and a stable code; anything else is logged and reported as a
// 500 with fallbackCode.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallbackCode string) {
	reqID := requestctx.GetRequestID(r.Context())

	var hoursErr *timesheet.HoursError
	if errors.As(err, &hoursErr) {
		api.FailWithDetails(w, http.StatusBadRequest, "invalid_hours", err.Error(), hoursErr, reqID)
		return
	}
	if status, code, ok := Classify(err); ok {
		api.Fail(w, status, code, err.Error(), reqID)
		return
	}
	requestctx.Logger(r.Context()).Error("request failed", "code", fallbackCode, "path", r.URL.Path, "err", err)
	api.Fail(w, http.StatusInternalServerError, fallbackCode, "internal error", reqID)
}

// Classify returns the HTTP status and error code for a known domain error.
func Classify(err error) (int, string, bool) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code, true
		}
	}
	return 0, "", false
}
