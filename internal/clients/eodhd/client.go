// Package eodhd provides a live price provider backed by the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/interfaces"
	"github.com/bobmcallan/stockmcp/internal/models"
)

// flexNumber handles JSON values that may be a number, a numeric string, or a
// placeholder such as "NA". Placeholders and null leave Valid false.
type flexNumber struct {
	decimal.NullDecimal
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	f.NullDecimal = decimal.NullDecimal{}
	if string(data) == "null" {
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		if d, err := decimal.NewFromString(num.String()); err == nil {
			f.NullDecimal = decimal.NewNullDecimal(d)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.TrimSpace(s) {
		case "", "NA", "N/A", "None":
			return nil
		}
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			f.NullDecimal = decimal.NewNullDecimal(d)
		}
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into a number", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements LiveProvider against EODHD
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider
func (c *Client) Name() string { return "eodhd" }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Ticker maps a plain ticker to EODHD's exchange-qualified code.
// Index symbols (^GSPC) move to the INDX exchange; bare tickers default to US.
func Ticker(symbol string) string {
	switch {
	case strings.HasPrefix(symbol, "^"):
		return strings.TrimPrefix(symbol, "^") + ".INDX"
	case strings.Contains(symbol, "."):
		return symbol
	default:
		return symbol + ".US"
	}
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", interfaces.ErrNoData, path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// realTimeResponse is the /real-time payload
type realTimeResponse struct {
	Code          string     `json:"code"`
	Timestamp     flexNumber `json:"timestamp"`
	Close         flexNumber `json:"close"`
	PreviousClose flexNumber `json:"previousClose"`
	Change        flexNumber `json:"change"`
	ChangeP       flexNumber `json:"change_p"`
}

func (c *Client) realTime(ctx context.Context, symbol string) (*realTimeResponse, error) {
	var resp realTimeResponse
	if err := c.get(ctx, "/real-time/"+Ticker(symbol), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPrice returns the latest traded price. "NA" in the close field is ErrNoData.
func (c *Client) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	rt, err := c.realTime(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if !rt.Close.Valid {
		return decimal.Zero, interfaces.ErrNoData
	}
	return rt.Close.Decimal, nil
}

// GetIndex returns an index level and its daily change
func (c *Client) GetIndex(ctx context.Context, symbol string) (*models.IndexQuote, error) {
	rt, err := c.realTime(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !rt.Close.Valid {
		return nil, interfaces.ErrNoData
	}

	q := &models.IndexQuote{IndexSymbol: symbol, Level: rt.Close.Decimal}
	switch {
	case rt.ChangeP.Valid:
		q.PercentChange = rt.ChangeP.Decimal
		q.Change = rt.Change.Decimal
	case rt.PreviousClose.Valid && rt.PreviousClose.Decimal.IsPositive():
		q.Change = rt.Close.Decimal.Sub(rt.PreviousClose.Decimal)
		q.PercentChange = common.PercentOf(rt.Close.Decimal, rt.PreviousClose.Decimal)
	}
	return q, nil
}

// fundamentalsResponse holds the subset of /fundamentals used for company metrics
type fundamentalsResponse struct {
	General struct {
		Code string `json:"Code"`
		Name string `json:"Name"`
	} `json:"General"`
	Highlights struct {
		MarketCapitalization flexNumber `json:"MarketCapitalization"`
		PERatio              flexNumber `json:"PERatio"`
		DividendYield        flexNumber `json:"DividendYield"`
	} `json:"Highlights"`
	Technicals struct {
		Week52High flexNumber `json:"52WeekHigh"`
		Week52Low  flexNumber `json:"52WeekLow"`
	} `json:"Technicals"`
}

// GetFundamentals retrieves company metrics. The fundamentals feed carries no
// price, so the current price comes from a best-effort real-time call.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	var resp fundamentalsResponse
	if err := c.get(ctx, "/fundamentals/"+Ticker(symbol), url.Values{"filter": []string{"General,Highlights,Technicals"}}, &resp); err != nil {
		return nil, err
	}

	f := &models.Fundamentals{
		Symbol:      symbol,
		CompanyName: resp.General.Name,
		MarketCap:   resp.Highlights.MarketCapitalization.NullDecimal,
		PERatio:     resp.Highlights.PERatio.NullDecimal,
		Week52Low:   resp.Technicals.Week52Low.NullDecimal,
		Week52High:  resp.Technicals.Week52High.NullDecimal,
	}
	// EODHD reports the yield as a fraction
	if dy := resp.Highlights.DividendYield; dy.Valid {
		f.DividendYield = decimal.NewNullDecimal(dy.Decimal.Mul(decimal.NewFromInt(100)))
	}

	if rt, err := c.realTime(ctx, symbol); err != nil {
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("Real-time price unavailable for fundamentals")
	} else {
		f.CurrentPrice = rt.Close.NullDecimal
	}

	return f, nil
}

// Ensure Client implements LiveProvider
var _ interfaces.LiveProvider = (*Client)(nil)
