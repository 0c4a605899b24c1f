package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"staffing/internal/domain/workflow"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// Dashboard summarises timesheets and invoices, for one candidate when
// candidateID is set and across all candidates otherwise.
func (s *Service) Dashboard(ctx context.Context, candidateID string, year int) (Dashboard, error) {
	weekly, err := s.store.WeeklyStatusCounts(ctx, candidateID)
	if err != nil {
		return Dashboard{}, err
	}
	pending, err := s.store.PendingPeriods(ctx, candidateID)
	if err != nil {
		return Dashboard{}, err
	}
	totals, err := s.store.InvoiceTotals(ctx, candidateID)
	if err != nil {
		return Dashboard{}, err
	}
	hours, err := s.store.ApprovedHoursByMonth(ctx, candidateID, year)
	if err != nil {
		return Dashboard{}, err
	}
	if hours == nil {
		hours = []MonthHours{}
	}
	return Dashboard{
		CandidateID:    candidateID,
		Year:           year,
		WeeklyByStatus: weekly,
		PendingPeriods: pending,
		Invoices:       Summarize(totals),
		ApprovedHours:  hours,
	}, nil
}

// Summarize folds invoice buckets into per-currency outstanding and paid
// totals. Sent and overdue invoices are outstanding.
func Summarize(totals []InvoiceTotal) InvoiceSummary {
	summary := InvoiceSummary{
		Buckets:     totals,
		Outstanding: map[string]decimal.Decimal{},
		Paid:        map[string]decimal.Decimal{},
	}
	if summary.Buckets == nil {
		summary.Buckets = []InvoiceTotal{}
	}
	for _, t := range totals {
		switch t.Status {
		case workflow.StatusSent, workflow.StatusOverdue:
			summary.Outstanding[t.Currency] = summary.Outstanding[t.Currency].Add(t.TotalWithGST)
			if t.Status == workflow.StatusOverdue {
				summary.OverdueCount += t.Count
			}
		case workflow.StatusPaid:
			summary.Paid[t.Currency] = summary.Paid[t.Currency].Add(t.TotalWithGST)
		}
	}
	return summary
}
