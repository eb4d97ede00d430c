// Package pricefile implements the read-only fallback price table backed by a
// user-maintained CSV file with a "symbol,price" header.
package pricefile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/interfaces"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("fallback file header must contain symbol and price columns")

// Store holds the fallback table. The file is read once, on Load or on the
// first Lookup, and never re-read for the lifetime of the process.
type Store struct {
	path   string
	logger *common.Logger

	once    sync.Once
	prices  map[string]decimal.Decimal
	loadErr error
}

// NewStore creates a store for the file at path. Nothing is read until Load or Lookup.
func NewStore(path string, logger *common.Logger) *Store {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the table if it has not been read yet and returns the number of
// symbols held. Subsequent calls return the outcome of the first read.
func (s *Store) Load() (int, error) {
	s.once.Do(s.load)
	return len(s.prices), s.loadErr
}

func (s *Store) load() {
	f, err := os.Open(s.path)
	if err != nil {
		s.loadErr = fmt.Errorf("open fallback file %s: %w", s.path, err)
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Fallback file unavailable")
		return
	}
	defer f.Close()

	prices, skipped, err := parse(f)
	if err != nil {
		s.loadErr = fmt.Errorf("parse fallback file %s: %w", s.path, err)
		s.logger.Error().Err(err).Str("path", s.path).Msg("Fallback file unreadable")
		return
	}

	s.prices = prices
	s.logger.Info().
		Str("path", s.path).
		Int("symbols", len(prices)).
		Int("skipped_rows", skipped).
		Msg("Fallback table loaded")
}

// Lookup returns the stored price for symbol. The symbol is matched upper-cased.
func (s *Store) Lookup(_ context.Context, symbol string) (decimal.Decimal, bool, error) {
	if _, err := s.Load(); err != nil {
		return decimal.Zero, false, err
	}
	price, ok := s.prices[strings.ToUpper(strings.TrimSpace(symbol))]
	return price, ok, nil
}

// parse reads a header row naming "symbol" and "price" (any order, any case,
// extra columns ignored) followed by data rows. Rows with an empty symbol or an
// unparsable price are skipped. The first row for a symbol wins.
func parse(r io.Reader) (map[string]decimal.Decimal, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, ErrMissingColumn
	}
	if err != nil {
		return nil, 0, err
	}

	symbolCol, priceCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "symbol":
			if symbolCol < 0 {
				symbolCol = i
			}
		case "price":
			if priceCol < 0 {
				priceCol = i
			}
		}
	}
	if symbolCol < 0 || priceCol < 0 {
		return nil, 0, ErrMissingColumn
	}

	prices := make(map[string]decimal.Decimal)
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if symbolCol >= len(record) || priceCol >= len(record) {
			skipped++
			continue
		}

		symbol := strings.ToUpper(strings.TrimSpace(record[symbolCol]))
		if symbol == "" {
			skipped++
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(record[priceCol]))
		if err != nil {
			skipped++
			continue
		}
		if _, exists := prices[symbol]; exists {
			continue
		}
		prices[symbol] = price
	}

	return prices, skipped, nil
}

// Ensure Store implements FallbackStore
var _ interfaces.FallbackStore = (*Store)(nil)
