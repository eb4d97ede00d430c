package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/services/quote"
	"github.com/bobmcallan/stockmcp/internal/storage/pricefile"
)

// testHarness provides an in-process MCP client connected to a stock server
// running the real quote service over a fake live provider and a temp CSV.
type testHarness struct {
	t       *testing.T
	client  *client.Client
	csvPath string
}

const testCSV = "symbol,price\nAAPL,175.64\nMSFT,330.21\nGOOGL,135.45\n"

// newTestHarness registers the full tool registry. The client is already
// initialized and ready to call tools.
func newTestHarness(t *testing.T, live *fakeProvider) *testHarness {
	t.Helper()

	csvPath := filepath.Join(t.TempDir(), "stocks_data.csv")
	if err := os.WriteFile(csvPath, []byte(testCSV), 0644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	logger := common.NewSilentLogger()
	svc := quote.NewService(live, pricefile.NewStore(csvPath, logger), logger)

	mcpServer := server.NewMCPServer("stock-test", "test", server.WithToolCapabilities(true))
	for _, entry := range Registry(svc, logger) {
		mcpServer.AddTool(entry.Tool, entry.Handler)
	}

	c, err := newInProcessClient(t, mcpServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}

	h := &testHarness{t: t, client: c, csvPath: csvPath}
	t.Cleanup(func() { c.Close() })
	return h
}

// newInProcessClient creates an mcp-go in-process client connected to the given
// MCP server. Handles initialization handshake.
func newInProcessClient(t *testing.T, mcpServer *server.MCPServer) (*client.Client, error) {
	t.Helper()

	c, err := client.NewInProcessClient(mcpServer)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// callTool invokes an MCP tool by name with the given arguments.
func (h *testHarness) callTool(name string, args map[string]any) *mcp.CallToolResult {
	h.t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := h.client.CallTool(context.Background(), req)
	if err != nil {
		h.t.Fatalf("%s failed: %v", name, err)
	}
	return result
}

// text extracts the first text block of a result.
func (h *testHarness) text(result *mcp.CallToolResult) string {
	h.t.Helper()
	if len(result.Content) == 0 {
		h.t.Fatal("Result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		h.t.Fatalf("Content[0] is %T, not TextContent", result.Content[0])
	}
	return tc.Text
}
