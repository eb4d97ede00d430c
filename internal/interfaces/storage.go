package interfaces

import (
	"context"

	"github.com/shopspring/decimal"
)

// FallbackStore is the read-only local price table consulted when the live provider fails.
type FallbackStore interface {
	// Lookup returns the stored price for a normalized symbol.
	// found is false when the symbol is not in the table; err is set when the
	// table itself could not be loaded.
	Lookup(ctx context.Context, symbol string) (price decimal.Decimal, found bool, err error)

	// Path reports where the table is read from
	Path() string
}
