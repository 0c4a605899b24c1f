package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestConvertAndTaxINRBasis(t *testing.T) {
	c, err := ConvertAndTax(d("166000"), "INR", Rates{SixMonthAverage: d("83")}, DefaultGSTRate, "INR")
	require.NoError(t, err)
	assert.Equal(t, "2000", c.AmountUSD.String())
	assert.Equal(t, "166000", c.TotalAmount.String())
	assert.Equal(t, "29880", c.GSTAmount.String())
	assert.Equal(t, "195880", c.TotalWithGST.String())
	assert.Equal(t, "83", c.ConversionRate.String())
}

func TestConvertAndTaxUSDBasis(t *testing.T) {
	c, err := ConvertAndTax(d("166000"), "INR", Rates{SixMonthAverage: d("83")}, DefaultGSTRate, "USD")
	require.NoError(t, err)
	assert.Equal(t, "2000", c.TotalAmount.String())
	assert.Equal(t, "360", c.GSTAmount.String())
	assert.Equal(t, "2360", c.TotalWithGST.String())
	assert.Equal(t, "166000", c.AmountINR.String())
}

func TestConvertAndTaxUSDInput(t *testing.T) {
	c, err := ConvertAndTax(d("2250"), "USD", Rates{SixMonthAverage: d("83.5")}, DefaultGSTRate, "INR")
	require.NoError(t, err)
	assert.Equal(t, "187875", c.AmountINR.String())
	assert.Equal(t, "2250", c.AmountUSD.String())
	assert.Equal(t, "33817.5", c.GSTAmount.String())
}

func TestConvertAndTaxSpotOverride(t *testing.T) {
	rates := Rates{SixMonthAverage: d("83"), Spot: decimal.NewNullDecimal(d("80"))}
	c, err := ConvertAndTax(d("8000"), "INR", rates, DefaultGSTRate, "INR")
	require.NoError(t, err)
	assert.Equal(t, "80", c.ConversionRate.String())
	assert.Equal(t, "83", c.SixMonthAverageRate.String())
	assert.Equal(t, "100", c.AmountUSD.String())
}

func TestConvertAndTaxRejectsBadInput(t *testing.T) {
	_, err := ConvertAndTax(d("100"), "INR", Rates{}, DefaultGSTRate, "INR")
	assert.ErrorIs(t, err, ErrInvalidConversionRate)

	_, err = ConvertAndTax(d("100"), "INR", Rates{SixMonthAverage: d("83"), Spot: decimal.NewNullDecimal(d("-1"))}, DefaultGSTRate, "INR")
	assert.ErrorIs(t, err, ErrInvalidConversionRate)

	_, err = ConvertAndTax(d("100"), "EUR", Rates{SixMonthAverage: d("83")}, DefaultGSTRate, "INR")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = ConvertAndTax(d("100"), "INR", Rates{SixMonthAverage: d("83")}, d("120"), "INR")
	assert.ErrorIs(t, err, ErrInvalidGSTRate)
}

func TestSettleKeepsTotalInvariant(t *testing.T) {
	amounts := []string{"1000", "0.05", "1234.565", "99999.995", "7.333"}
	for _, raw := range amounts {
		c, err := ConvertAndTax(d(raw), "INR", Rates{SixMonthAverage: d("83.17")}, DefaultGSTRate, "USD")
		require.NoError(t, err)
		s := c.Settle()
		assert.True(t, s.TotalWithGST.Equal(s.TotalAmount.Add(s.GSTAmount)), raw)
		assert.True(t, s.GSTAmount.Equal(s.GSTAmount.Round(2)), raw)
		assert.True(t, s.TotalAmount.Equal(s.TotalAmount.Round(2)), raw)
	}
}

func TestConvertAndTaxUsesStoredRatePrecision(t *testing.T) {
	rates := Rates{SixMonthAverage: d("83.17004"), Spot: decimal.NewNullDecimal(d("83.123456"))}
	c, err := ConvertAndTax(d("100000"), "INR", rates, DefaultGSTRate, "INR")
	require.NoError(t, err)
	assert.Equal(t, "83.1235", c.ConversionRate.String())
	assert.Equal(t, "83.17", c.SixMonthAverageRate.String())
	assert.True(t, c.AmountUSD.Equal(d("100000").Div(c.ConversionRate)))

	c, err = ConvertAndTax(d("1000"), "USD", rates, DefaultGSTRate, "INR")
	require.NoError(t, err)
	assert.Equal(t, "83123.5", c.Settle().AmountINR.String())

	_, err = ConvertAndTax(d("100"), "INR", Rates{SixMonthAverage: d("0.00004")}, DefaultGSTRate, "INR")
	assert.ErrorIs(t, err, ErrInvalidConversionRate)
}
