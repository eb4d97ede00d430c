package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$175.64", FormatPrice(decimal.RequireFromString("175.64")))
	assert.Equal(t, "$0.00", FormatPrice(decimal.Zero))
	assert.Equal(t, "$1234.50", FormatPrice(decimal.RequireFromString("1234.5")))
}

func TestFormatLevel(t *testing.T) {
	assert.Equal(t, "4,783.45", FormatLevel(decimal.RequireFromString("4783.45")))
	assert.Equal(t, "42,221.33", FormatLevel(decimal.RequireFromString("42221.334")))
	assert.Equal(t, "12.00", FormatLevel(decimal.NewFromInt(12)))
}

func TestFormatSignedPct(t *testing.T) {
	assert.Equal(t, "+0.52%", FormatSignedPct(decimal.RequireFromString("0.5211")))
	assert.Equal(t, "-0.15%", FormatSignedPct(decimal.RequireFromString("-0.149")))
	assert.Equal(t, "+0.00%", FormatSignedPct(decimal.Zero))
}

func TestFormatMarketCap(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2900000000000", "$2.90T"},
		{"350000000000", "$350.00B"},
		{"12500000", "$12.50M"},
		{"950000", "$950,000.00"},
	}
	for _, tt := range tests {
		if got := FormatMarketCap(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMarketCap(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentOf(t *testing.T) {
	got := PercentOf(decimal.RequireFromString("175.64"), decimal.RequireFromString("330.21"))
	assert.Equal(t, "-46.81", got.StringFixed(2))

	got = PercentOf(decimal.RequireFromString("330.21"), decimal.RequireFromString("175.64"))
	assert.Equal(t, "88.00", got.StringFixed(2))
}
