package app

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockmcp/internal/interfaces"
	"github.com/bobmcallan/stockmcp/internal/models"
)

var errProviderDown = errors.New("dial tcp: connection refused")

// fakeProvider is a LiveProvider backed by fixed maps. Missing entries fail
// with errProviderDown; down=true fails everything.
type fakeProvider struct {
	down         bool
	prices       map[string]string
	fundamentals map[string]*models.Fundamentals
	indices      map[string]string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := f.prices[symbol]
	if f.down || !ok {
		return decimal.Zero, errProviderDown
	}
	return decimal.RequireFromString(p), nil
}

func (f *fakeProvider) GetFundamentals(_ context.Context, symbol string) (*models.Fundamentals, error) {
	fd, ok := f.fundamentals[symbol]
	if f.down || !ok {
		return nil, errProviderDown
	}
	cp := *fd
	return &cp, nil
}

// indices maps symbol to "level,percent"
func (f *fakeProvider) GetIndex(_ context.Context, symbol string) (*models.IndexQuote, error) {
	v, ok := f.indices[symbol]
	if f.down || !ok {
		return nil, errProviderDown
	}
	level, pct, _ := strings.Cut(v, ",")
	return &models.IndexQuote{
		Level:         decimal.RequireFromString(level),
		PercentChange: decimal.RequireFromString(pct),
	}, nil
}

var _ interfaces.LiveProvider = (*fakeProvider)(nil)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
