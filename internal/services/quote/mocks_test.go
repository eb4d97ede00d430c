package quote

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockmcp/internal/models"
)

// --- mockProvider ---

type mockProvider struct {
	priceFn        func(ctx context.Context, symbol string) (decimal.Decimal, error)
	fundamentalsFn func(ctx context.Context, symbol string) (*models.Fundamentals, error)
	indexFn        func(ctx context.Context, symbol string) (*models.IndexQuote, error)

	calls atomic.Int32
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	m.calls.Add(1)
	if m.priceFn != nil {
		return m.priceFn(ctx, symbol)
	}
	return decimal.Zero, errUnreachable
}

func (m *mockProvider) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	m.calls.Add(1)
	if m.fundamentalsFn != nil {
		return m.fundamentalsFn(ctx, symbol)
	}
	return nil, errUnreachable
}

func (m *mockProvider) GetIndex(ctx context.Context, symbol string) (*models.IndexQuote, error) {
	m.calls.Add(1)
	if m.indexFn != nil {
		return m.indexFn(ctx, symbol)
	}
	return nil, errUnreachable
}

// livePrices returns a priceFn serving a fixed table and failing for anything else.
func livePrices(prices map[string]string) func(context.Context, string) (decimal.Decimal, error) {
	return func(_ context.Context, symbol string) (decimal.Decimal, error) {
		p, ok := prices[symbol]
		if !ok {
			return decimal.Zero, errUnreachable
		}
		return decimal.RequireFromString(p), nil
	}
}

// --- mockFallback ---

type mockFallback struct {
	mu      sync.Mutex
	prices  map[string]string
	err     error
	lookups int
}

func newMockFallback(prices map[string]string) *mockFallback {
	return &mockFallback{prices: prices}
}

func (m *mockFallback) Lookup(_ context.Context, symbol string) (decimal.Decimal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return decimal.Zero, false, m.err
	}
	p, ok := m.prices[symbol]
	if !ok {
		return decimal.Zero, false, nil
	}
	return decimal.RequireFromString(p), true, nil
}

func (m *mockFallback) Path() string { return "testdata/stocks_data.csv" }

func (m *mockFallback) lookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// --- log writers ---

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
