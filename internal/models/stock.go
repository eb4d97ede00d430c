package models

import (
	"github.com/shopspring/decimal"
)

// Source records which branch of the resolver produced a price.
type Source int

const (
	SourceLive Source = iota
	SourceFallback
)

// String returns the provenance tag echoed into user-facing output.
func (s Source) String() string {
	switch s {
	case SourceLive:
		return "Live"
	case SourceFallback:
		return "Fallback"
	default:
		return "Unknown"
	}
}

// PriceRecord is a resolved price with its provenance. Produced per request, never stored.
type PriceRecord struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Source Source          `json:"source"`
}

// Comparison holds two resolved prices and the percentage difference of A relative to B.
type Comparison struct {
	A           PriceRecord     `json:"a"`
	B           PriceRecord     `json:"b"`
	PercentDiff decimal.Decimal `json:"percent_diff"`
}

// Fundamentals holds best-effort company metrics from the live provider.
// Any field may be missing; an empty CompanyName or an invalid NullDecimal renders as N/A.
type Fundamentals struct {
	Symbol        string              `json:"symbol"`
	CompanyName   string              `json:"company_name"`
	CurrentPrice  decimal.NullDecimal `json:"current_price"`
	MarketCap     decimal.NullDecimal `json:"market_cap"`
	PERatio       decimal.NullDecimal `json:"pe_ratio"`
	DividendYield decimal.NullDecimal `json:"dividend_yield"` // percent, e.g. 0.42 for 0.42%
	Week52Low     decimal.NullDecimal `json:"week_52_low"`
	Week52High    decimal.NullDecimal `json:"week_52_high"`
}

// IsEmpty reports whether no metric at all was retrieved.
func (f *Fundamentals) IsEmpty() bool {
	return f.CompanyName == "" &&
		!f.CurrentPrice.Valid &&
		!f.MarketCap.Valid &&
		!f.PERatio.Valid &&
		!f.DividendYield.Valid &&
		!f.Week52Low.Valid &&
		!f.Week52High.Valid
}

// IsPartial reports whether at least one metric is missing.
func (f *Fundamentals) IsPartial() bool {
	return f.CompanyName == "" ||
		!f.CurrentPrice.Valid ||
		!f.MarketCap.Valid ||
		!f.PERatio.Valid ||
		!f.DividendYield.Valid ||
		!f.Week52Low.Valid ||
		!f.Week52High.Valid
}

// IndexQuote is the current level of a market index. Available is false for a
// placeholder entry standing in for a failed retrieval.
type IndexQuote struct {
	IndexSymbol   string          `json:"index_symbol"`
	Label         string          `json:"label"`
	Level         decimal.Decimal `json:"level"`
	Change        decimal.Decimal `json:"change"`
	PercentChange decimal.Decimal `json:"percent_change"`
	Available     bool            `json:"available"`
}

// MarketIndex names one of the fixed indices in the market summary.
type MarketIndex struct {
	Label  string
	Symbol string
}

// MarketIndices is the fixed, ordered set reported by the market summary.
var MarketIndices = []MarketIndex{
	{Label: "S&P 500", Symbol: "^GSPC"},
	{Label: "Dow Jones", Symbol: "^DJI"},
	{Label: "NASDAQ", Symbol: "^IXIC"},
}
