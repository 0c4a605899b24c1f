package money

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CurrencyINR = "INR"
	CurrencyUSD = "USD"

	// Places is the persisted precision of currency amounts.
	Places = 2
)

var hundred = decimal.NewFromInt(100)

var ErrInvalidConversionRate = errors.New("conversion rate must be positive")

// Percent returns amount * rate / 100 without intermediate rounding.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// Round2 rounds half away from zero to the persisted precision.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Places)
}

func ValidCurrency(code string) bool {
	return code == CurrencyINR || code == CurrencyUSD
}

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
