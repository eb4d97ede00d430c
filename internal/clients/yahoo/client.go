// Package yahoo provides a live price provider backed by the public Yahoo Finance API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/interfaces"
	"github.com/bobmcallan/stockmcp/internal/models"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	DefaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements LiveProvider against Yahoo Finance
type Client struct {
	baseURL    string
	httpClient HTTPClient
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout on the default client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if hc, ok := c.httpClient.(*http.Client); ok {
			hc.Timeout = timeout
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider
func (c *Client) Name() string { return "yahoo" }

// APIError represents a non-200 response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a GET request and decodes the JSON body into result
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("url", reqURL).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
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

// chartResponse is the v8 chart payload; only the fields used here are mapped.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
				PreviousClose      *float64 `json:"previousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiErrorBody `json:"error"`
	} `json:"chart"`
}

type apiErrorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartSnapshot struct {
	lastClose     *float64
	marketPrice   *float64
	previousClose *float64
}

func (c *Client) fetchChart(ctx context.Context, symbol string) (*chartSnapshot, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	var chart chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNoData, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, interfaces.ErrNoData
	}

	result := chart.Chart.Result[0]
	snap := &chartSnapshot{
		marketPrice:   result.Meta.RegularMarketPrice,
		previousClose: result.Meta.ChartPreviousClose,
	}
	if snap.previousClose == nil {
		snap.previousClose = result.Meta.PreviousClose
	}
	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				snap.lastClose = closes[i]
				break
			}
		}
	}
	return snap, nil
}

// GetPrice returns today's last close, or the regular market price when the
// day has no bar yet. A chart with neither is ErrNoData.
func (c *Client) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	snap, err := c.fetchChart(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	switch {
	case snap.lastClose != nil:
		return decimal.NewFromFloat(*snap.lastClose), nil
	case snap.marketPrice != nil:
		return decimal.NewFromFloat(*snap.marketPrice), nil
	default:
		return decimal.Zero, interfaces.ErrNoData
	}
}

// GetIndex returns the index level and its change against the previous close.
func (c *Client) GetIndex(ctx context.Context, symbol string) (*models.IndexQuote, error) {
	snap, err := c.fetchChart(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var level decimal.Decimal
	switch {
	case snap.marketPrice != nil:
		level = decimal.NewFromFloat(*snap.marketPrice)
	case snap.lastClose != nil:
		level = decimal.NewFromFloat(*snap.lastClose)
	default:
		return nil, interfaces.ErrNoData
	}

	q := &models.IndexQuote{IndexSymbol: symbol, Level: level}
	if snap.previousClose != nil && *snap.previousClose > 0 {
		prev := decimal.NewFromFloat(*snap.previousClose)
		q.Change = level.Sub(prev)
		q.PercentChange = common.PercentOf(level, prev)
	}
	return q, nil
}

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper. Missing values arrive as {}.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) null() decimal.NullDecimal {
	if v.Raw == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v.Raw))
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName           string   `json:"longName"`
				ShortName          string   `json:"shortName"`
				RegularMarketPrice rawValue `json:"regularMarketPrice"`
				MarketCap          rawValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE       rawValue `json:"trailingPE"`
				DividendYield    rawValue `json:"dividendYield"`
				FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
				FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
				MarketCap        rawValue `json:"marketCap"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *apiErrorBody `json:"error"`
	} `json:"quoteSummary"`
}

// GetFundamentals returns company metrics from the quoteSummary endpoint.
// Fields Yahoo omits stay invalid.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	params := url.Values{}
	params.Set("modules", "price,summaryDetail")

	var resp quoteSummaryResponse
	if err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNoData, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, interfaces.ErrNoData
	}

	r := resp.QuoteSummary.Result[0]
	f := &models.Fundamentals{
		Symbol:       symbol,
		CompanyName:  r.Price.LongName,
		CurrentPrice: r.Price.RegularMarketPrice.null(),
		MarketCap:    r.Price.MarketCap.null(),
		PERatio:      r.SummaryDetail.TrailingPE.null(),
		Week52Low:    r.SummaryDetail.FiftyTwoWeekLow.null(),
		Week52High:   r.SummaryDetail.FiftyTwoWeekHigh.null(),
	}
	if f.CompanyName == "" {
		f.CompanyName = r.Price.ShortName
	}
	if !f.MarketCap.Valid {
		f.MarketCap = r.SummaryDetail.MarketCap.null()
	}
	// Yahoo reports the yield as a fraction
	if dy := r.SummaryDetail.DividendYield.null(); dy.Valid {
		f.DividendYield = decimal.NewNullDecimal(dy.Decimal.Mul(decimal.NewFromInt(100)))
	}
	return f, nil
}

// Ensure Client implements LiveProvider
var _ interfaces.LiveProvider = (*Client)(nil)
