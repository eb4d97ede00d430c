package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bobmcallan/stockmcp/internal/interfaces"
)

func TestTicker(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AAPL", "AAPL.US"},
		{"^GSPC", "GSPC.INDX"},
		{"^DJI", "DJI.INDX"},
		{"BHP.AU", "BHP.AU"},
	}
	for _, tt := range tests {
		if got := Ticker(tt.in); got != tt.want {
			t.Errorf("Ticker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlexNumber(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  string
	}{
		{`175.64`, true, "175.64"},
		{`"330.21"`, true, "330.21"},
		{`"NA"`, false, ""},
		{`null`, false, ""},
		{`""`, false, ""},
		{`"garbage"`, false, ""},
	}
	for _, tt := range tests {
		var f flexNumber
		if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if f.Valid != tt.valid {
			t.Errorf("%s: valid = %v, want %v", tt.raw, f.Valid, tt.valid)
			continue
		}
		if tt.valid && f.Decimal.String() != tt.want {
			t.Errorf("%s: got %s, want %s", tt.raw, f.Decimal.String(), tt.want)
		}
	}
}

func TestGetPrice_ParsesRealTime(t *testing.T) {
	var capturedPath, capturedToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedToken = r.URL.Query().Get("api_token")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":  "AAPL.US",
			"close": 175.64,
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	price, err := client.GetPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}

	if capturedPath != "/real-time/AAPL.US" {
		t.Errorf("expected path /real-time/AAPL.US, got %s", capturedPath)
	}
	if capturedToken != "test-key" {
		t.Errorf("expected api_token test-key, got %s", capturedToken)
	}
	if price.StringFixed(2) != "175.64" {
		t.Errorf("expected price 175.64, got %s", price.StringFixed(2))
	}
}

func TestGetPrice_NAIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NOPE.US","timestamp":"NA","close":"NA"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetPrice(context.Background(), "NOPE")
	if !errors.Is(err, interfaces.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestGetPrice_NotFoundIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Ticker Not Found.", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetPrice(context.Background(), "NOPE")
	if !errors.Is(err, interfaces.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestGetPrice_UnauthorizedIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthenticated", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.GetPrice(context.Background(), "AAPL")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/real-time/AAPL.US" {
		t.Errorf("expected endpoint /real-time/AAPL.US, got %s", apiErr.Endpoint)
	}
}

func TestGetIndex_UsesChangePercent(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":          "GSPC.INDX",
			"close":         4783.45,
			"previousClose": 4758.70,
			"change":        24.75,
			"change_p":      0.52,
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	q, err := client.GetIndex(context.Background(), "^GSPC")
	if err != nil {
		t.Fatalf("GetIndex failed: %v", err)
	}

	if capturedPath != "/real-time/GSPC.INDX" {
		t.Errorf("expected path /real-time/GSPC.INDX, got %s", capturedPath)
	}
	if q.IndexSymbol != "^GSPC" {
		t.Errorf("expected index symbol ^GSPC, got %s", q.IndexSymbol)
	}
	if q.Level.StringFixed(2) != "4783.45" {
		t.Errorf("expected level 4783.45, got %s", q.Level.StringFixed(2))
	}
	if q.PercentChange.StringFixed(2) != "0.52" {
		t.Errorf("expected change 0.52, got %s", q.PercentChange.StringFixed(2))
	}
}

func TestGetIndex_DerivesChangeFromPreviousClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"DJI.INDX","close":100,"previousClose":80,"change":"NA","change_p":"NA"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	q, err := client.GetIndex(context.Background(), "^DJI")
	if err != nil {
		t.Fatalf("GetIndex failed: %v", err)
	}
	if q.PercentChange.StringFixed(2) != "25.00" {
		t.Errorf("expected change 25.00, got %s", q.PercentChange.StringFixed(2))
	}
	if q.Change.StringFixed(2) != "20.00" {
		t.Errorf("expected change 20.00, got %s", q.Change.StringFixed(2))
	}
}

func TestGetFundamentals_ParsesResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/fundamentals/AAPL.US":
			w.Write([]byte(`{
				"General": {"Code": "AAPL", "Name": "Apple Inc"},
				"Highlights": {"MarketCapitalization": 2900000000000, "PERatio": 28.5, "DividendYield": 0.0042},
				"Technicals": {"52WeekHigh": 199.62, "52WeekLow": 154.3}
			}`))
		case "/real-time/AAPL.US":
			w.Write([]byte(`{"code":"AAPL.US","close":175.64}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	f, err := client.GetFundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}

	if f.CompanyName != "Apple Inc" {
		t.Errorf("expected name Apple Inc, got %s", f.CompanyName)
	}
	if f.PERatio.Decimal.StringFixed(2) != "28.50" {
		t.Errorf("expected PE 28.50, got %s", f.PERatio.Decimal.StringFixed(2))
	}
	if f.DividendYield.Decimal.StringFixed(2) != "0.42" {
		t.Errorf("expected dividend yield 0.42, got %s", f.DividendYield.Decimal.StringFixed(2))
	}
	if f.Week52High.Decimal.StringFixed(2) != "199.62" {
		t.Errorf("expected 52w high 199.62, got %s", f.Week52High.Decimal.StringFixed(2))
	}
	if !f.CurrentPrice.Valid || f.CurrentPrice.Decimal.StringFixed(2) != "175.64" {
		t.Errorf("expected current price 175.64, got %v", f.CurrentPrice)
	}
	if f.IsPartial() {
		t.Error("expected complete fundamentals")
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", calls.Load())
	}
}

func TestGetFundamentals_PriceFailureLeavesPriceMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/real-time/AAPL.US" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"General": {"Name": "Apple Inc"}, "Highlights": {"PERatio": "NA"}, "Technicals": {}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	f, err := client.GetFundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}
	if f.CurrentPrice.Valid {
		t.Error("expected current price to be missing")
	}
	if f.PERatio.Valid {
		t.Error("expected PE ratio to be missing")
	}
	if !f.IsPartial() {
		t.Error("expected partial fundamentals")
	}
}

func TestGet_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"close":1}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1))
	if _, err := client.GetPrice(ctx, "AAPL"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
