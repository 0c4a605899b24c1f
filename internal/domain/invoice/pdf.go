package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"staffing/internal/domain/company"
)

// Parties are the from, bill-to and ship-to blocks printed on a document.
type Parties struct {
	From   company.Settings
	BillTo *company.Client
	ShipTo *company.EndUser
}

// RenderPDF lays out an invoice as an A4 document.
func RenderPDF(inv Invoice, parties Parties) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Tax Invoice")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	line := func(format string, args ...any) {
		pdf.Cell(0, 7, fmt.Sprintf(format, args...))
		pdf.Ln(6)
	}
	line("Invoice number: %s", inv.InvoiceNumber)
	line("Issued: %s    Due: %s", inv.IssuedDate.Format(time.DateOnly), inv.DueDate.Format(time.DateOnly))
	line("Period: %s to %s", inv.PeriodStart.Format(time.DateOnly), inv.PeriodEnd.Format(time.DateOnly))
	pdf.Ln(4)

	block := func(title, name, address string, extra ...string) {
		pdf.SetFont("Helvetica", "B", 11)
		line("%s", title)
		pdf.SetFont("Helvetica", "", 11)
		line("%s", name)
		if address != "" {
			pdf.MultiCell(0, 6, address, "", "L", false)
		}
		for _, e := range extra {
			if e != "" {
				line("%s", e)
			}
		}
		pdf.Ln(3)
	}
	from := parties.From
	block("From", from.Name, from.Address, labelled("GSTIN", from.GSTIN), labelled("PAN", from.PAN))
	if parties.BillTo != nil {
		block("Bill to", parties.BillTo.Name, parties.BillTo.Address, labelled("GSTIN", parties.BillTo.GSTIN))
	}
	if parties.ShipTo != nil {
		block("Ship to", parties.ShipTo.Name, parties.ShipTo.Address)
	}

	pdf.SetFont("Helvetica", "B", 11)
	line("Charges")
	pdf.SetFont("Helvetica", "", 11)
	line("Hours: %s at %s", inv.TotalHours.StringFixed(2), inv.HourlyRate.StringFixed(2))
	line("Amount: %s %s", inv.TotalAmount.StringFixed(2), inv.Currency)
	line("GST %s%%: %s %s", inv.GSTRate.String(), inv.GSTAmount.StringFixed(2), inv.Currency)
	pdf.SetFont("Helvetica", "B", 12)
	line("Total: %s %s", inv.TotalWithGST.StringFixed(2), inv.Currency)
	pdf.SetFont("Helvetica", "", 10)
	line("INR %s = USD %s at %s INR/USD (six-month average %s)",
		inv.OriginalINRAmount.StringFixed(2), inv.USDAmount.StringFixed(2),
		inv.CurrencyConversionRate.String(), inv.SixMonthAverageRate.String())
	if from.BankDetails != "" {
		pdf.Ln(4)
		block("Payment details", from.BankDetails, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}
