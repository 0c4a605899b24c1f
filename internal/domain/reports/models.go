package reports

import "github.com/shopspring/decimal"

// InvoiceTotal is one (status, currency) bucket of invoices.
type InvoiceTotal struct {
	Status       string          `json:"status"`
	Currency     string          `json:"currency"`
	Count        int             `json:"count"`
	TotalWithGST decimal.Decimal `json:"totalWithGst"`
}

type MonthHours struct {
	Month       int             `json:"month"`
	Currency    string          `json:"currency"`
	TotalHours  decimal.Decimal `json:"totalHours"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type InvoiceSummary struct {
	Buckets      []InvoiceTotal             `json:"buckets"`
	Outstanding  map[string]decimal.Decimal `json:"outstanding"`
	Paid         map[string]decimal.Decimal `json:"paid"`
	OverdueCount int                        `json:"overdueCount"`
}

type Dashboard struct {
	CandidateID    string         `json:"candidateId,omitempty"`
	Year           int            `json:"year"`
	WeeklyByStatus map[string]int `json:"weeklyByStatus"`
	PendingPeriods int            `json:"pendingPeriods"`
	Invoices       InvoiceSummary `json:"invoices"`
	ApprovedHours  []MonthHours   `json:"approvedHours"`
}
