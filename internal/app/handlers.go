package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/interfaces"
	"github.com/bobmcallan/stockmcp/internal/services/quote"
)

const invalidSymbolMessage = "Error: symbol must be a non-empty ticker (e.g., 'AAPL')"

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("Stock MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// handleGetStockPrice implements the get_stock_price tool
func handleGetStockPrice(quoteService interfaces.QuoteService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil {
			return errorResult("Error: symbol parameter is required"), nil
		}

		logger.Info().Str("symbol", symbol).Msg("get_stock_price called")

		rec, err := quoteService.Resolve(ctx, symbol)
		if err != nil {
			return resolveErrorResult(err, symbol, quoteService.FallbackPath()), nil
		}

		return textResult(formatPrice(rec)), nil
	}
}

// handleCompareStocks implements the compare_stocks tool
func handleCompareStocks(quoteService interfaces.QuoteService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol1, err := request.RequireString("symbol1")
		if err != nil {
			return errorResult("Error: symbol1 parameter is required"), nil
		}
		symbol2, err := request.RequireString("symbol2")
		if err != nil {
			return errorResult("Error: symbol2 parameter is required"), nil
		}

		logger.Info().Str("symbol1", symbol1).Str("symbol2", symbol2).Msg("compare_stocks called")

		cmp, err := quoteService.Compare(ctx, symbol1, symbol2)
		if err != nil {
			var absentErr *quote.AbsentError
			switch {
			case errors.As(err, &absentErr):
				return errorResult(fmt.Sprintf("ERROR: Could not retrieve price for %s", absentErr.Symbol)), nil
			case errors.Is(err, quote.ErrZeroBaseline):
				return errorResult(fmt.Sprintf("ERROR: Cannot compare against %s because its price is $0.00", normalized(symbol2))), nil
			default:
				return resolveErrorResult(err, symbol1, quoteService.FallbackPath()), nil
			}
		}

		return textResult(formatComparison(cmp)), nil
	}
}

// handleGetStockFundamentals implements the get_stock_fundamentals tool
func handleGetStockFundamentals(quoteService interfaces.QuoteService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil {
			return errorResult("Error: symbol parameter is required"), nil
		}

		logger.Info().Str("symbol", symbol).Msg("get_stock_fundamentals called")

		f, err := quoteService.Fundamentals(ctx, symbol)
		if err != nil {
			if errors.Is(err, quote.ErrInvalidSymbol) {
				return errorResult(invalidSymbolMessage), nil
			}
			return errorResult(fmt.Sprintf("ERROR: Could not retrieve fundamentals for %s. The live data provider returned no data.", normalized(symbol))), nil
		}

		return textResult(formatFundamentals(f)), nil
	}
}

// handleGetMarketSummary implements the get_market_summary tool
func handleGetMarketSummary(quoteService interfaces.QuoteService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger.Info().Msg("get_market_summary called")
		return textResult(formatMarketSummary(quoteService.MarketSummary(ctx))), nil
	}
}

// resolveErrorResult maps a resolver error onto the user-facing message.
func resolveErrorResult(err error, symbol, fallbackPath string) *mcp.CallToolResult {
	if errors.Is(err, quote.ErrInvalidSymbol) {
		return errorResult(invalidSymbolMessage)
	}
	if fallbackPath == "" {
		fallbackPath = "not configured"
	}
	return errorResult(fmt.Sprintf("ERROR: Could not retrieve price for %s. Please verify the symbol is correct. Data sources: live provider, local CSV file (%s)",
		normalized(symbol), fallbackPath))
}

func normalized(symbol string) string {
	if s, err := quote.NormalizeSymbol(symbol); err == nil {
		return s
	}
	return symbol
}

// Helper functions

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
