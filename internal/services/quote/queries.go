package quote

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/models"
)

// Compare resolves both symbols concurrently and computes
// (priceA - priceB) / priceB * 100, with B as the baseline.
func (s *Service) Compare(ctx context.Context, symbolA, symbolB string) (*models.Comparison, error) {
	a, err := NormalizeSymbol(symbolA)
	if err != nil {
		return nil, err
	}
	b, err := NormalizeSymbol(symbolB)
	if err != nil {
		return nil, err
	}

	var (
		recA, recB *models.PriceRecord
		errA, errB error
	)

	// Both branches always return nil so neither cancels the other;
	// outcomes are inspected after both have settled.
	var g errgroup.Group
	g.Go(func() error {
		recA, errA = s.Resolve(ctx, a)
		return nil
	})
	g.Go(func() error {
		recB, errB = s.Resolve(ctx, b)
		return nil
	})
	_ = g.Wait()

	if errA != nil {
		return nil, errA
	}
	if errB != nil {
		return nil, errB
	}

	if recB.Price.IsZero() {
		s.logger.Warn().Str("symbol_a", a).Str("symbol_b", b).Msg("Comparison baseline is zero")
		return nil, fmt.Errorf("%s: %w", b, ErrZeroBaseline)
	}

	return &models.Comparison{
		A:           *recA,
		B:           *recB,
		PercentDiff: common.PercentOf(recA.Price, recB.Price),
	}, nil
}

// Fundamentals returns company metrics from the live provider. There is no
// fallback source; any failure, or a response with no metric at all, is ErrAbsent.
func (s *Service) Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	log := s.logger.With().
		Str("request_id", s.newID()).
		Str("symbol", sym).
		Logger()

	if s.live == nil {
		log.Error().Msg("Fundamentals requested without a live provider")
		return nil, absent(sym)
	}

	f, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (*models.Fundamentals, error) {
		return s.live.GetFundamentals(ctx, sym)
	})
	if err != nil {
		log.Error().Err(err).Str("provider", s.live.Name()).Msg("Fundamentals retrieval failed")
		return nil, absent(sym)
	}
	if f == nil || f.IsEmpty() {
		log.Error().Str("provider", s.live.Name()).Msg("Fundamentals response carried no metrics")
		return nil, absent(sym)
	}

	f.Symbol = sym
	if f.IsPartial() {
		log.Info().Msg("Fundamentals partially available")
	}
	return f, nil
}

// MarketSummary fetches every index in models.MarketIndices concurrently and
// returns exactly one entry per index in that order. A failed index becomes a
// placeholder with Available=false.
func (s *Service) MarketSummary(ctx context.Context) []models.IndexQuote {
	results := make([]models.IndexQuote, len(models.MarketIndices))

	var g errgroup.Group
	for i, idx := range models.MarketIndices {
		g.Go(func() error {
			results[i] = s.indexQuote(ctx, idx)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) indexQuote(ctx context.Context, idx models.MarketIndex) models.IndexQuote {
	placeholder := models.IndexQuote{IndexSymbol: idx.Symbol, Label: idx.Label}

	if s.live == nil {
		return placeholder
	}

	q, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (*models.IndexQuote, error) {
		return s.live.GetIndex(ctx, idx.Symbol)
	})
	if err != nil || q == nil {
		s.logger.Warn().Err(err).Str("index", idx.Symbol).Str("provider", s.live.Name()).Msg("Index retrieval failed")
		return placeholder
	}

	q.IndexSymbol = idx.Symbol
	q.Label = idx.Label
	q.Available = true
	return *q
}
