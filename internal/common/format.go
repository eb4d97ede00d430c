package common

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	trillion = decimal.New(1, 12)
	billion  = decimal.New(1, 9)
	million  = decimal.New(1, 6)
	hundred  = decimal.NewFromInt(100)
)

// FormatPrice renders a price as "$175.64". No grouping, matching the tool output contract.
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatLevel renders an index level with thousands separators, e.g. "4,783.45".
func FormatLevel(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// FormatSignedPct renders a percentage with an explicit sign, e.g. "+0.52%" or "-0.15%".
func FormatSignedPct(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}

// FormatPct renders a fraction already expressed in percent, e.g. "0.42%".
func FormatPct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// FormatMarketCap renders a market capitalisation using T/B/M suffixes.
func FormatMarketCap(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(trillion):
		return "$" + d.Div(trillion).StringFixed(2) + "T"
	case abs.GreaterThanOrEqual(billion):
		return "$" + d.Div(billion).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(million):
		return "$" + d.Div(million).StringFixed(2) + "M"
	default:
		return "$" + FormatLevel(d)
	}
}

// PercentOf returns (value - base) / base * 100. The caller guarantees base is non-zero.
func PercentOf(value, base decimal.Decimal) decimal.Decimal {
	return value.Sub(base).Div(base).Mul(hundred)
}
