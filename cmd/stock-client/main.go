// Command stock-client is an interactive chat front end: it launches
// stock-server over stdio, lets Gemini pick a tool for each question and
// prints the tool's answer.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/stockmcp/internal/app"
	"github.com/bobmcallan/stockmcp/internal/clients/gemini"
	"github.com/bobmcallan/stockmcp/internal/common"
)

const defaultServerCmd = "stock-server"

// toolSelector picks a tool for a free-text question
type toolSelector interface {
	SelectTool(ctx context.Context, query string, tools []gemini.ToolSpec) (*gemini.ToolChoice, error)
}

// toolCaller invokes an MCP tool
type toolCaller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := common.LoadConfig(app.ResolveConfigPath(""))
	if err != nil {
		return err
	}
	logger := common.NewLoggerWithOutput(config.Logging.Level, os.Stderr)

	apiKey, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		return fmt.Errorf("set GEMINI_API_KEY to use the chat client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selector, err := gemini.NewClient(ctx, apiKey,
		gemini.WithModel(config.Clients.Gemini.Model),
		gemini.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	serverCmd := os.Getenv("STOCK_SERVER_CMD")
	if serverCmd == "" {
		serverCmd = defaultServerCmd
	}
	env := append(os.Environ(), "STOCK_TRANSPORT="+common.TransportStdio)

	mcpClient, err := client.NewStdioMCPClient(serverCmd, env)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", serverCmd, err)
	}
	defer mcpClient.Close()

	// The server writes its banner and logs to stderr; keep the pipe drained.
	if stderr, ok := client.GetStderr(mcpClient); ok {
		go io.Copy(io.Discard, stderr)
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "stock-client", Version: common.GetVersion()}
	if _, err := mcpClient.Initialize(initCtx, initReq); err != nil {
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	listed, err := mcpClient.ListTools(initCtx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}
	logger.Debug().Int("tools", len(listed.Tools)).Msg("Connected to stock server")

	fmt.Println("Stock MCP chat. Ask about prices, comparisons, fundamentals or the market. Type 'quit' to exit.")
	return chatLoop(ctx, os.Stdin, os.Stdout, selector, mcpClient, toolSpecs(listed.Tools))
}

// chatLoop reads one question per line until EOF or a quit word.
// A failed question is reported and the loop continues.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, selector toolSelector, caller toolCaller, tools []gemini.ToolSpec) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if isQuit(query) {
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}

		answer, err := ask(ctx, selector, caller, tools, query)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, answer)
	}
}

func ask(ctx context.Context, selector toolSelector, caller toolCaller, tools []gemini.ToolSpec, query string) (string, error) {
	choice, err := selector.SelectTool(ctx, query, tools)
	if err != nil {
		return "", fmt.Errorf("could not choose a tool: %w", err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = choice.ToolName
	req.Params.Arguments = choice.Arguments

	result, err := caller.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", choice.ToolName, err)
	}
	return resultText(result), nil
}

// toolSpecs converts the server's tool catalog into the model's tool descriptions.
func toolSpecs(tools []mcp.Tool) []gemini.ToolSpec {
	specs := make([]gemini.ToolSpec, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, gemini.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema,
		})
	}
	return specs
}

// resultText joins the text content of a tool result.
func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func isQuit(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quit", "exit", "q":
		return true
	}
	return false
}
