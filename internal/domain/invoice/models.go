package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID                     string          `json:"id"`
	InvoiceNumber          string          `json:"invoiceNumber"`
	CandidateID            string          `json:"candidateId"`
	WeeklyTimesheetID      string          `json:"weeklyTimesheetId,omitempty"`
	BiWeeklyTimesheetID    string          `json:"biweeklyTimesheetId,omitempty"`
	ClientCompanyID        string          `json:"clientCompanyId,omitempty"`
	EndUserID              string          `json:"endUserId,omitempty"`
	PeriodStart            time.Time       `json:"periodStart"`
	PeriodEnd              time.Time       `json:"periodEnd"`
	TotalHours             decimal.Decimal `json:"totalHours"`
	HourlyRate             decimal.Decimal `json:"hourlyRate"`
	TotalAmount            decimal.Decimal `json:"totalAmount"`
	Currency               string          `json:"currency"`
	CurrencyConversionRate decimal.Decimal `json:"currencyConversionRate"`
	SixMonthAverageRate    decimal.Decimal `json:"sixMonthAverageRate"`
	OriginalINRAmount      decimal.Decimal `json:"originalInrAmount"`
	USDAmount              decimal.Decimal `json:"usdAmount"`
	GSTRate                decimal.Decimal `json:"gstRate"`
	GSTAmount              decimal.Decimal `json:"gstAmount"`
	TotalWithGST           decimal.Decimal `json:"totalWithGst"`
	Status                 string          `json:"status"`
	IssuedDate             time.Time       `json:"issuedDate"`
	DueDate                time.Time       `json:"dueDate"`
	PaidDate               *time.Time      `json:"paidDate,omitempty"`
	FilePath               string          `json:"-"`
	CreatedBy              string          `json:"createdBy,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
}

// GenerateRequest names the approved timesheet to invoice and the rates to
// convert it with.
type GenerateRequest struct {
	WeeklyTimesheetID   string
	BiWeeklyTimesheetID string
	ClientCompanyID     string
	EndUserID           string
	InvoiceNumber       string
	Rates               Rates
	Basis               string
	IssuedDate          time.Time
	CreatedBy           string
}

type Filter struct {
	CandidateID string
	Status      string
}

// source is the timesheet data an invoice is priced from.
type source struct {
	candidateID string
	periodStart time.Time
	periodEnd   time.Time
	totalHours  decimal.Decimal
	hourlyRate  decimal.Decimal
	totalAmount decimal.Decimal
	currency    string
}
