package invoice

import (
	"github.com/shopspring/decimal"

	"staffing/internal/domain/money"
)

// DefaultGSTRate is the standard GST percentage.
var DefaultGSTRate = decimal.NewFromInt(18)

// ratePlaces is the persisted precision of conversion rates.
const ratePlaces = 4

// Rates are INR per USD. SixMonthAverage is the default basis; Spot, when
// set, overrides it for a single invoice.
type Rates struct {
	SixMonthAverage decimal.Decimal
	Spot            decimal.NullDecimal
}

// Effective returns the rate used for conversion, rounded to the precision
// it is stored at so the stored rate reproduces the converted amounts.
func (r Rates) Effective() (decimal.Decimal, error) {
	rate := r.SixMonthAverage
	if r.Spot.Valid {
		rate = r.Spot.Decimal
	}
	rate = rate.Round(ratePlaces)
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidConversionRate
	}
	return rate, nil
}

// Conversion is the result of converting a period total and applying GST
// in the basis currency. TotalAmount, GSTAmount and TotalWithGST are in
// Basis; the other currency's amount is informational.
type Conversion struct {
	Basis               string
	AmountINR           decimal.Decimal
	AmountUSD           decimal.Decimal
	ConversionRate      decimal.Decimal
	SixMonthAverageRate decimal.Decimal
	TotalAmount         decimal.Decimal
	GSTRate             decimal.Decimal
	GSTAmount           decimal.Decimal
	TotalWithGST        decimal.Decimal
}

// ConvertAndTax converts amount between INR and USD at the effective rate
// and computes GST on the basis currency amount. No rounding is applied.
func ConvertAndTax(amount decimal.Decimal, currency string, rates Rates, gstRate decimal.Decimal, basis string) (Conversion, error) {
	if !money.ValidCurrency(currency) || !money.ValidCurrency(basis) {
		return Conversion{}, ErrInvalidCurrency
	}
	if gstRate.IsNegative() || gstRate.GreaterThan(decimal.NewFromInt(100)) {
		return Conversion{}, ErrInvalidGSTRate
	}
	rate, err := rates.Effective()
	if err != nil {
		return Conversion{}, err
	}

	c := Conversion{
		Basis:               basis,
		ConversionRate:      rate,
		SixMonthAverageRate: rates.SixMonthAverage.Round(ratePlaces),
		GSTRate:             gstRate,
	}
	switch currency {
	case money.CurrencyINR:
		c.AmountINR = amount
		c.AmountUSD = amount.Div(rate)
	case money.CurrencyUSD:
		c.AmountUSD = amount
		c.AmountINR = amount.Mul(rate)
	}

	c.TotalAmount = c.AmountINR
	if basis == money.CurrencyUSD {
		c.TotalAmount = c.AmountUSD
	}
	c.GSTAmount = money.Percent(c.TotalAmount, gstRate)
	c.TotalWithGST = c.TotalAmount.Add(c.GSTAmount)
	return c, nil
}

// Settle rounds to persisted precision. GST is recomputed from the rounded
// total so TotalWithGST equals TotalAmount plus GSTAmount exactly.
func (c Conversion) Settle() Conversion {
	c.AmountINR = money.Round2(c.AmountINR)
	c.AmountUSD = money.Round2(c.AmountUSD)
	c.TotalAmount = money.Round2(c.TotalAmount)
	c.GSTAmount = money.Round2(money.Percent(c.TotalAmount, c.GSTRate))
	c.TotalWithGST = c.TotalAmount.Add(c.GSTAmount)
	return c
}
