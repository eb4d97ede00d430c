package app

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/models"
)

const notAvailable = "N/A"

// formatPrice renders a resolved price, naming the source that produced it
func formatPrice(rec *models.PriceRecord) string {
	return fmt.Sprintf("Current price of %s is %s (from %s)", rec.Symbol, common.FormatPrice(rec.Price), rec.Source)
}

// formatComparison renders A relative to B, with B as the baseline
func formatComparison(cmp *models.Comparison) string {
	a, b := cmp.A, cmp.B
	if a.Price.Equal(b.Price) {
		return fmt.Sprintf("Both %s and %s have the same price (%s), a 0.00%% difference",
			a.Symbol, b.Symbol, common.FormatPrice(a.Price))
	}

	direction := "higher"
	if cmp.PercentDiff.IsNegative() {
		direction = "lower"
	}
	return fmt.Sprintf("%s (%s) is %s %s than %s (%s)",
		a.Symbol, common.FormatPrice(a.Price),
		common.FormatPct(cmp.PercentDiff.Abs()), direction,
		b.Symbol, common.FormatPrice(b.Price))
}

// formatFundamentals renders company metrics; missing ones become N/A
func formatFundamentals(f *models.Fundamentals) string {
	var sb strings.Builder

	if f.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("**%s (%s) - Financial Fundamentals**\n\n", f.CompanyName, f.Symbol))
	} else {
		sb.WriteString(fmt.Sprintf("**%s - Financial Fundamentals**\n\n", f.Symbol))
	}

	sb.WriteString(fmt.Sprintf("Current Price: %s\n", orNA(f.CurrentPrice, common.FormatPrice)))
	sb.WriteString(fmt.Sprintf("Market Capitalization: %s\n", orNA(f.MarketCap, common.FormatMarketCap)))
	sb.WriteString(fmt.Sprintf("P/E Ratio: %s\n", orNA(f.PERatio, fixed2)))
	sb.WriteString(fmt.Sprintf("Dividend Yield: %s\n", orNA(f.DividendYield, common.FormatPct)))

	if !f.Week52Low.Valid && !f.Week52High.Valid {
		sb.WriteString("52-Week Range: N/A\n")
	} else {
		sb.WriteString(fmt.Sprintf("52-Week Range: %s - %s\n",
			orNA(f.Week52Low, common.FormatPrice), orNA(f.Week52High, common.FormatPrice)))
	}

	if f.IsPartial() {
		sb.WriteString("\n*Some metrics are not reported by the data provider.*\n")
	}

	return sb.String()
}

// formatMarketSummary renders one line per index in the order given
func formatMarketSummary(quotes []models.IndexQuote) string {
	var sb strings.Builder
	sb.WriteString("**Market Summary**\n\n")

	for _, q := range quotes {
		if !q.Available {
			sb.WriteString(fmt.Sprintf("%s (%s): Data unavailable\n", q.Label, q.IndexSymbol))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s (%s): %s (%s)\n",
			q.Label, q.IndexSymbol, common.FormatLevel(q.Level), common.FormatSignedPct(q.PercentChange)))
	}

	sb.WriteString("\n*Index data may be delayed 15-20 minutes*")
	return sb.String()
}

func orNA(v decimal.NullDecimal, format func(decimal.Decimal) string) string {
	if !v.Valid {
		return notAvailable
	}
	return format(v.Decimal)
}

func fixed2(d decimal.Decimal) string { return d.StringFixed(2) }
