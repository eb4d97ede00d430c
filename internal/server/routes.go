package server

import (
	"errors"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockmcp/internal/app"
	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/services/quote"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// MCP over Streamable HTTP
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.app.MCPServer,
		mcpserver.WithStateLess(true),
	))

	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/mcp/tools", s.handleToolCatalog)

	// Market Data
	mux.HandleFunc("/api/market/quote/", s.handleMarketQuote)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":   cfg.Environment,
		"transport":     cfg.Server.Transport,
		"provider":      cfg.Provider.Name,
		"live_timeout":  cfg.Provider.GetTimeout().String(),
		"fallback_path": cfg.Fallback.Path,
		"eodhd_api_key": maskSecret(cfg.Clients.EODHD.APIKey),
		"log_level":     cfg.Logging.Level,
	})
}

// toolInfo describes one MCP tool for GET /api/mcp/tools
type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleToolCatalog(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	entries := app.Registry(s.app.QuoteService, s.logger)
	tools := make([]toolInfo, 0, len(entries))
	for _, e := range entries {
		tools = append(tools, toolInfo{Name: e.Tool.Name, Description: e.Tool.Description})
	}
	WriteJSON(w, http.StatusOK, tools)
}

// --- Market handlers ---

// quoteResponse is the JSON form of a resolved price
type quoteResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Source string `json:"source"`
}

// handleMarketQuote serves GET /api/market/quote/{symbol} with the same
// live-then-fallback resolution as the get_stock_price tool.
func (s *Server) handleMarketQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/market/quote/", "")
	rec, err := s.app.QuoteService.Resolve(r.Context(), symbol)
	switch {
	case errors.Is(err, quote.ErrInvalidSymbol):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_symbol")
		return
	case errors.Is(err, quote.ErrAbsent):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "absent")
		return
	case err != nil:
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, quoteResponse{
		Symbol: rec.Symbol,
		Price:  rec.Price.StringFixed(2),
		Source: rec.Source.String(),
	})
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return "****" + s[len(s)-4:]
}
