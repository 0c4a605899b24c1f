package invoice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"staffing/internal/domain/company"
	"staffing/internal/domain/money"
	"staffing/internal/domain/timesheet"
	"staffing/internal/domain/workflow"
)

type TimesheetSource interface {
	GetWeekly(ctx context.Context, id string) (timesheet.Weekly, error)
	GetBiWeekly(ctx context.Context, id string) (timesheet.BiWeekly, error)
}

type PartySource interface {
	ResolveParties(ctx context.Context, clientID, endUserID string) (*company.Client, *company.EndUser, error)
	Settings(ctx context.Context) (company.Settings, error)
}

// Cipher encrypts rendered documents at rest when configured.
type Cipher interface {
	Configured() bool
	Encrypt(plain []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type Options struct {
	GSTRate    decimal.Decimal
	Prefix     string
	DueDays    int
	Basis      string
	StorageDir string
}

type Service struct {
	store      StoreAPI
	timesheets TimesheetSource
	parties    PartySource
	cipher     Cipher
	opts       Options
	now        func() time.Time
}

func NewService(store StoreAPI, timesheets TimesheetSource, parties PartySource, cipher Cipher, opts Options) *Service {
	if opts.Prefix == "" {
		opts.Prefix = "INV"
	}
	if opts.Basis == "" {
		opts.Basis = money.CurrencyINR
	}
	if opts.StorageDir == "" {
		opts.StorageDir = "storage/invoices"
	}
	return &Service{store: store, timesheets: timesheets, parties: parties, cipher: cipher, opts: opts, now: time.Now}
}

// Generate invoices one approved weekly or bi-weekly timesheet. A
// candidate's days are invoiced at most once; a request overlapping an
// existing invoice fails rather than replacing it.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (Invoice, error) {
	if (req.WeeklyTimesheetID == "") == (req.BiWeeklyTimesheetID == "") {
		return Invoice{}, ErrTimesheetReference
	}
	src, err := s.loadSource(ctx, req)
	if err != nil {
		return Invoice{}, err
	}
	exists, err := s.store.ExistsForPeriod(ctx, src.candidateID, src.periodStart, src.periodEnd)
	if err != nil {
		return Invoice{}, err
	}
	if exists {
		return Invoice{}, ErrInvoiceAlreadyExists
	}
	if _, _, err := s.parties.ResolveParties(ctx, req.ClientCompanyID, req.EndUserID); err != nil {
		return Invoice{}, err
	}

	basis := strings.ToUpper(strings.TrimSpace(req.Basis))
	if basis == "" {
		basis = s.opts.Basis
	}
	conv, err := ConvertAndTax(src.totalAmount, src.currency, req.Rates, s.opts.GSTRate, basis)
	if err != nil {
		return Invoice{}, err
	}
	conv = conv.Settle()

	issued := money.Date(req.IssuedDate)
	if req.IssuedDate.IsZero() {
		issued = money.Date(s.now())
	}
	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		seq, err := s.store.NextSequence(ctx)
		if err != nil {
			return Invoice{}, err
		}
		number = FormatNumber(s.opts.Prefix, issued.Year(), seq)
	}

	inv := Invoice{
		InvoiceNumber:          number,
		CandidateID:            src.candidateID,
		WeeklyTimesheetID:      req.WeeklyTimesheetID,
		BiWeeklyTimesheetID:    req.BiWeeklyTimesheetID,
		ClientCompanyID:        req.ClientCompanyID,
		EndUserID:              req.EndUserID,
		PeriodStart:            src.periodStart,
		PeriodEnd:              src.periodEnd,
		TotalHours:             money.Round2(src.totalHours),
		HourlyRate:             money.Round2(rateIn(src.hourlyRate, src.currency, basis, conv.ConversionRate)),
		TotalAmount:            conv.TotalAmount,
		Currency:               basis,
		CurrencyConversionRate: conv.ConversionRate,
		SixMonthAverageRate:    conv.SixMonthAverageRate,
		OriginalINRAmount:      conv.AmountINR,
		USDAmount:              conv.AmountUSD,
		GSTRate:                conv.GSTRate,
		GSTAmount:              conv.GSTAmount,
		TotalWithGST:           conv.TotalWithGST,
		Status:                 workflow.StatusGenerated,
		IssuedDate:             issued,
		DueDate:                issued.AddDate(0, 0, s.opts.DueDays),
		CreatedBy:              req.CreatedBy,
	}
	return s.store.Create(ctx, inv)
}

// FormatNumber renders <prefix>-<year>-<sequence>.
func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
}

func (s *Service) loadSource(ctx context.Context, req GenerateRequest) (source, error) {
	if req.WeeklyTimesheetID != "" {
		w, err := s.timesheets.GetWeekly(ctx, req.WeeklyTimesheetID)
		if err != nil {
			return source{}, err
		}
		if w.Status != workflow.StatusApproved {
			return source{}, ErrTimesheetNotApproved
		}
		return source{
			candidateID: w.CandidateID,
			periodStart: w.WeekStartDate,
			periodEnd:   w.WeekEndDate,
			totalHours:  w.Totals.TotalWeeklyHours,
			hourlyRate:  w.Rate.HourlyRate,
			totalAmount: w.Amounts.TotalAmount,
			currency:    w.Rate.Currency,
		}, nil
	}
	b, err := s.timesheets.GetBiWeekly(ctx, req.BiWeeklyTimesheetID)
	if err != nil {
		return source{}, err
	}
	if b.Status != workflow.StatusApproved {
		return source{}, ErrTimesheetNotApproved
	}
	rate := b.Week1.Rate.HourlyRate
	if !rate.Equal(b.Week2.Rate.HourlyRate) && b.Totals.TotalHours.IsPositive() {
		rate = b.Totals.TotalAmount.Div(b.Totals.TotalHours)
	}
	return source{
		candidateID: b.CandidateID,
		periodStart: b.PeriodStart,
		periodEnd:   b.PeriodEnd,
		totalHours:  b.Totals.TotalHours,
		hourlyRate:  rate,
		totalAmount: b.Totals.TotalAmount,
		currency:    b.Currency,
	}, nil
}

// rateIn expresses an hourly rate in the basis currency.
func rateIn(rate decimal.Decimal, currency, basis string, conversion decimal.Decimal) decimal.Decimal {
	switch {
	case currency == basis:
		return rate
	case basis == money.CurrencyUSD:
		return rate.Div(conversion)
	default:
		return rate.Mul(conversion)
	}
}

func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Invoice, int, error) {
	return s.store.List(ctx, filter, limit, offset)
}

// Transition moves an invoice along generated, sent, paid or overdue.
// Paying stamps the paid date.
func (s *Service) Transition(ctx context.Context, id, to string) (Invoice, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if err := workflow.Invoice.Transition(current.Status, to, ""); err != nil {
		return Invoice{}, err
	}
	var paid *time.Time
	if to == workflow.StatusPaid {
		today := money.Date(s.now())
		paid = &today
	}
	if err := s.store.UpdateStatus(ctx, id, current.Status, to, paid); err != nil {
		return Invoice{}, err
	}
	return s.store.Get(ctx, id)
}

// MarkOverdue flags every sent invoice due before asOf.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return s.store.MarkOverdue(ctx, money.Date(asOf))
}

// Document returns the invoice PDF, rendering and storing it on first use.
func (s *Service) Document(ctx context.Context, id string) (Invoice, []byte, error) {
	inv, err := s.store.Get(ctx, id)
	if err != nil {
		return Invoice{}, nil, err
	}
	if inv.FilePath != "" {
		data, err := s.readDocument(inv.FilePath)
		if err == nil {
			return inv, data, nil
		}
		if !os.IsNotExist(err) {
			return Invoice{}, nil, err
		}
	}

	client, user, err := s.parties.ResolveParties(ctx, inv.ClientCompanyID, inv.EndUserID)
	if err != nil {
		return Invoice{}, nil, err
	}
	from, err := s.parties.Settings(ctx)
	if err != nil && !errors.Is(err, company.ErrNotFound) {
		return Invoice{}, nil, err
	}
	data, err := RenderPDF(inv, Parties{From: from, BillTo: client, ShipTo: user})
	if err != nil {
		return Invoice{}, nil, err
	}
	path, err := s.writeDocument(inv.ID, data)
	if err != nil {
		return Invoice{}, nil, err
	}
	if err := s.store.SetFilePath(ctx, inv.ID, path); err != nil {
		return Invoice{}, nil, err
	}
	inv.FilePath = path
	return inv, data, nil
}

func (s *Service) writeDocument(id string, data []byte) (string, error) {
	if err := os.MkdirAll(s.opts.StorageDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.opts.StorageDir, id+".pdf")
	if s.cipher != nil && s.cipher.Configured() {
		encrypted, err := s.cipher.Encrypt(data)
		if err != nil {
			return "", err
		}
		path += ".enc"
		return path, os.WriteFile(path, encrypted, 0o600)
	}
	return path, os.WriteFile(path, data, 0o600)
}

func (s *Service) readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".enc") {
		if s.cipher == nil {
			return nil, fmt.Errorf("invoice document %s is encrypted but no key is configured", path)
		}
		return s.cipher.Decrypt(data)
	}
	return data, nil
}
