package invoice

import (
	"errors"

	"staffing/internal/domain/money"
)

var (
	ErrNotFound               = errors.New("invoice not found")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already in use")
	ErrInvoiceAlreadyExists   = errors.New("invoice already exists for this timesheet")
	ErrTimesheetNotApproved   = errors.New("timesheet must be approved before invoicing")
	ErrTimesheetReference     = errors.New("exactly one of weekly or bi-weekly timesheet is required")
	ErrInvalidConversionRate  = money.ErrInvalidConversionRate
	ErrInvalidCurrency        = errors.New("currency must be INR or USD")
	ErrInvalidGSTRate         = errors.New("gst rate must be between 0 and 100")
)
