package app

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/interfaces"
)

// ToolEntry pairs a tool definition with its handler
type ToolEntry struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// Registry returns every tool the server exposes, in listing order.
func Registry(quoteService interfaces.QuoteService, logger *common.Logger) []ToolEntry {
	return []ToolEntry{
		{createGetStockPriceTool(), handleGetStockPrice(quoteService, logger)},
		{createCompareStocksTool(), handleCompareStocks(quoteService, logger)},
		{createGetStockFundamentalsTool(), handleGetStockFundamentals(quoteService, logger)},
		{createGetMarketSummaryTool(), handleGetMarketSummary(quoteService, logger)},
		{createGetVersionTool(), handleGetVersion()},
	}
}

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the stock server version and status. Use this to verify connectivity."),
	)
}

// createGetStockPriceTool returns the get_stock_price tool definition
func createGetStockPriceTool() mcp.Tool {
	return mcp.NewTool("get_stock_price",
		mcp.WithDescription("Get the current price of a stock. Uses the live market data provider and falls back to the local price table when the provider is unavailable. The answer names the source used."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock ticker symbol (e.g., 'AAPL', 'MSFT', 'GOOGL')"),
		),
	)
}

// createCompareStocksTool returns the compare_stocks tool definition
func createCompareStocksTool() mcp.Tool {
	return mcp.NewTool("compare_stocks",
		mcp.WithDescription("Compare the current prices of two stocks. Reports how much higher or lower the first stock is than the second, as a percentage of the second stock's price."),
		mcp.WithString("symbol1",
			mcp.Required(),
			mcp.Description("First stock ticker symbol (e.g., 'AAPL')"),
		),
		mcp.WithString("symbol2",
			mcp.Required(),
			mcp.Description("Second stock ticker symbol, used as the baseline (e.g., 'MSFT')"),
		),
	)
}

// createGetStockFundamentalsTool returns the get_stock_fundamentals tool definition
func createGetStockFundamentalsTool() mcp.Tool {
	return mcp.NewTool("get_stock_fundamentals",
		mcp.WithDescription("Get key fundamentals for a company: current price, market capitalization, P/E ratio, dividend yield and 52-week range. Metrics the provider does not report are shown as N/A."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock ticker symbol (e.g., 'AAPL')"),
		),
	)
}

// createGetMarketSummaryTool returns the get_market_summary tool definition
func createGetMarketSummaryTool() mcp.Tool {
	return mcp.NewTool("get_market_summary",
		mcp.WithDescription("Get the current level and daily change of the major US indices: S&P 500, Dow Jones and NASDAQ."),
	)
}
