package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSource_String(t *testing.T) {
	assert.Equal(t, "Live", SourceLive.String())
	assert.Equal(t, "Fallback", SourceFallback.String())
	assert.Equal(t, "Unknown", Source(42).String())
}

func TestFundamentals_EmptyAndPartial(t *testing.T) {
	empty := &Fundamentals{Symbol: "AAPL"}
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.IsPartial())

	partial := &Fundamentals{
		Symbol:    "AAPL",
		PERatio:   decimal.NewNullDecimal(decimal.RequireFromString("28.5")),
		MarketCap: decimal.NullDecimal{},
	}
	assert.False(t, partial.IsEmpty())
	assert.True(t, partial.IsPartial())

	full := &Fundamentals{
		Symbol:        "AAPL",
		CompanyName:   "Apple Inc.",
		CurrentPrice:  decimal.NewNullDecimal(decimal.RequireFromString("175.64")),
		MarketCap:     decimal.NewNullDecimal(decimal.RequireFromString("2900000000000")),
		PERatio:       decimal.NewNullDecimal(decimal.RequireFromString("28.5")),
		DividendYield: decimal.NewNullDecimal(decimal.RequireFromString("0.42")),
		Week52Low:     decimal.NewNullDecimal(decimal.RequireFromString("154.30")),
		Week52High:    decimal.NewNullDecimal(decimal.RequireFromString("199.62")),
	}
	assert.False(t, full.IsEmpty())
	assert.False(t, full.IsPartial())
}

func TestMarketIndices_FixedOrder(t *testing.T) {
	if len(MarketIndices) != 3 {
		t.Fatalf("expected 3 market indices, got %d", len(MarketIndices))
	}
	want := []string{"^GSPC", "^DJI", "^IXIC"}
	for i, idx := range MarketIndices {
		if idx.Symbol != want[i] {
			t.Errorf("MarketIndices[%d] = %s, want %s", i, idx.Symbol, want[i])
		}
	}
}
