package interfaces

import (
	"context"

	"github.com/bobmcallan/stockmcp/internal/models"
)

// QuoteService resolves prices with live-then-fallback semantics and serves
// the comparison, fundamentals and market summary queries built on it.
type QuoteService interface {
	// Resolve returns the price of one symbol, tagged with its source
	Resolve(ctx context.Context, symbol string) (*models.PriceRecord, error)

	// Compare resolves two symbols and computes A's percentage difference against B
	Compare(ctx context.Context, symbolA, symbolB string) (*models.Comparison, error)

	// Fundamentals returns company metrics from the live provider only
	Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)

	// MarketSummary returns the fixed index set in fixed order, with placeholders for failures
	MarketSummary(ctx context.Context) []models.IndexQuote

	// FallbackPath reports the configured fallback table location
	FallbackPath() string
}
