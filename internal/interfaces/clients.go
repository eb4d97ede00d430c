// Package interfaces defines service contracts for stockmcp
package interfaces

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockmcp/internal/models"
)

// ErrNoData is returned by a LiveProvider when the upstream answered but carried
// no usable value for the symbol (empty result, null price). The resolver treats
// it like any other live failure.
var ErrNoData = errors.New("no data returned by provider")

// LiveProvider is the live financial-data source consumed by the quote service.
// Implementations must honour ctx cancellation; the caller bounds every call with a deadline.
type LiveProvider interface {
	// Name identifies the provider in logs
	Name() string

	// GetPrice returns the current price for a normalized symbol
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// GetFundamentals returns best-effort company metrics; missing fields stay invalid
	GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)

	// GetIndex returns the current level and daily change of a market index
	GetIndex(ctx context.Context, symbol string) (*models.IndexQuote, error)
}
