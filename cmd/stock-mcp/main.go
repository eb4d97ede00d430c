// Command stock-mcp bridges a stdio MCP client (Claude Desktop and similar)
// to a stock-server running with the HTTP transport.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bobmcallan/stockmcp/internal/common"
)

const defaultServerURL = "http://localhost:4242"

// StdioProxy forwards JSON-RPC messages from stdin to the HTTP MCP endpoint
// and writes responses to stdout.
type StdioProxy struct {
	serverURL  string
	httpClient *http.Client
	logger     *common.Logger
}

// NewStdioProxy creates a proxy for the server at baseURL ("/mcp" is appended).
func NewStdioProxy(baseURL string, logger *common.Logger) *StdioProxy {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &StdioProxy{
		serverURL:  strings.TrimRight(baseURL, "/") + "/mcp",
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
}

func main() {
	serverURL := os.Getenv("STOCK_SERVER_URL")
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	level := os.Getenv("STOCK_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := common.NewLoggerWithOutput(level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proxy := NewStdioProxy(serverURL, logger)
	logger.Info().Str("url", proxy.serverURL).Msg("Proxy started")

	if err := proxy.RunWithIO(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "proxy error: %v\n", err)
		os.Exit(1)
	}
}

// RunWithIO reads newline-delimited JSON-RPC from r, forwards each message
// to the HTTP server, and writes the response to w. It returns at EOF.
func (p *StdioProxy) RunWithIO(ctx context.Context, r io.Reader, w io.Writer) error {
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	if p.logger == nil {
		p.logger = common.NewSilentLogger()
	}

	scanner := bufio.NewScanner(r)
	// Allow large messages (up to 10MB)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		resp, err := p.forward(ctx, line)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Forward failed")
			if isNotification(line) {
				continue
			}
			errResp := jsonRPCError(extractID(line), -32000, err.Error())
			if err := writeLine(w, errResp); err != nil {
				return err
			}
			continue
		}

		// Notifications are acknowledged with an empty body
		if len(resp) == 0 {
			continue
		}
		if err := writeLine(w, resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// forward posts one JSON-RPC message and returns the trimmed response body.
func (p *StdioProxy) forward(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return bytes.TrimSpace(respBody), nil
	case http.StatusAccepted, http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
}

func writeLine(w io.Writer, msg []byte) error {
	if _, err := w.Write(append(msg, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// extractID pulls the "id" field from a JSON-RPC request for error responses.
func extractID(msg []byte) json.RawMessage {
	var req struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(msg, &req); err != nil || req.ID == nil {
		return json.RawMessage("null")
	}
	return req.ID
}

// isNotification reports whether msg is a JSON-RPC notification (no id).
func isNotification(msg []byte) bool {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		return false
	}
	return req.ID == nil && req.Method != ""
}

// jsonRPCError creates a JSON-RPC error response.
func jsonRPCError(id json.RawMessage, code int, message string) []byte {
	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
	data, _ := json.Marshal(resp)
	return data
}
