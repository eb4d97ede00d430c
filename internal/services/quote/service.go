// Package quote resolves stock prices from a live provider with automatic
// fallback to the local price table, and serves the comparison, fundamentals
// and market summary queries built on top of it.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/interfaces"
	"github.com/bobmcallan/stockmcp/internal/models"
)

// DefaultLiveTimeout bounds every live provider call when no timeout is configured.
const DefaultLiveTimeout = 10 * time.Second

var (
	// ErrInvalidSymbol is returned before any I/O when the symbol is empty or blank.
	ErrInvalidSymbol = errors.New("invalid symbol: a non-empty ticker is required")

	// ErrAbsent means every source was exhausted. It is a terminal result, not a fault.
	ErrAbsent = errors.New("data unavailable from every source")

	// ErrZeroBaseline is returned by Compare when the second price is zero.
	ErrZeroBaseline = errors.New("baseline price is zero")

	errNoProvider = errors.New("no live provider configured")
)

// AbsentError names the symbol that could not be resolved. It matches ErrAbsent.
type AbsentError struct {
	Symbol string
}

func (e *AbsentError) Error() string {
	return e.Symbol + ": " + ErrAbsent.Error()
}

func (e *AbsentError) Unwrap() error { return ErrAbsent }

func absent(symbol string) error {
	return &AbsentError{Symbol: symbol}
}

// Service implements QuoteService with a live primary and a file fallback.
type Service struct {
	live     interfaces.LiveProvider
	fallback interfaces.FallbackStore
	logger   *common.Logger
	timeout  time.Duration
	newID    func() string // injectable for testing
}

// Option configures the service
type Option func(*Service)

// WithLiveTimeout sets the bound applied to each live provider call
func WithLiveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a new quote service.
// live may be nil, in which case every price comes from the fallback table.
// fallback may be nil, in which case a live failure resolves to ErrAbsent.
func NewService(live interfaces.LiveProvider, fallback interfaces.FallbackStore, logger *common.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Service{
		live:     live,
		fallback: fallback,
		logger:   logger,
		timeout:  DefaultLiveTimeout,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeSymbol trims and upper-cases a ticker, rejecting blank input.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", ErrInvalidSymbol
	}
	return s, nil
}

// FallbackPath returns the configured fallback table location, or "" when there is none.
func (s *Service) FallbackPath() string {
	if s.fallback == nil {
		return ""
	}
	return s.fallback.Path()
}

// Resolve returns the price for symbol: live first, then the fallback table.
// Provider failures never escape; the caller sees a record, ErrInvalidSymbol or ErrAbsent.
func (s *Service) Resolve(ctx context.Context, symbol string) (*models.PriceRecord, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	log := s.logger.With().
		Str("request_id", s.newID()).
		Str("symbol", sym).
		Logger()

	price, liveErr := s.livePrice(ctx, sym, log)
	if liveErr == nil {
		log.Info().
			Str("source", models.SourceLive.String()).
			Str("price", price.StringFixed(2)).
			Msg("Price resolved")
		return &models.PriceRecord{Symbol: sym, Price: price, Source: models.SourceLive}, nil
	}

	log.Warn().Err(liveErr).Msg("Live price failed, trying fallback table")

	if s.fallback == nil {
		log.Error().Msg("No fallback table configured")
		return nil, absent(sym)
	}

	fbPrice, found, fbErr := s.fallback.Lookup(ctx, sym)
	switch {
	case fbErr != nil:
		log.Error().Err(fbErr).Str("path", s.fallback.Path()).Msg("Fallback table unavailable")
		return nil, absent(sym)
	case !found:
		log.Error().Str("path", s.fallback.Path()).Msg("Symbol not found in fallback table")
		return nil, absent(sym)
	}

	log.Info().
		Str("source", models.SourceFallback.String()).
		Str("price", fbPrice.StringFixed(2)).
		Msg("Price resolved")
	return &models.PriceRecord{Symbol: sym, Price: fbPrice, Source: models.SourceFallback}, nil
}

func (s *Service) livePrice(ctx context.Context, sym string, log zerolog.Logger) (decimal.Decimal, error) {
	if s.live == nil {
		return decimal.Zero, errNoProvider
	}

	log.Debug().Str("provider", s.live.Name()).Dur("timeout", s.timeout).Msg("Live price attempt")

	return callWithTimeout(ctx, s.timeout, func(ctx context.Context) (decimal.Decimal, error) {
		return s.live.GetPrice(ctx, sym)
	})
}

// callWithTimeout runs fn under a deadline and returns as soon as the deadline
// passes, even if fn ignores its context. The result channel is buffered so a
// late fn does not block forever.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("live provider: %w", ctx.Err())
	}
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
