// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/stockmcp/internal/common"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = 0.1
)

// ErrNoToolChosen is returned when the model reply names no tool
var ErrNoToolChosen = errors.New("model did not choose a tool")

// ToolSpec describes a tool offered to the model
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters,omitempty"`
}

// ToolChoice is the model's decision: which tool to call and with what arguments
type ToolChoice struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// Client wraps the genai SDK for tool selection
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *common.Logger

	// generate is swapped out in tests
	generate func(ctx context.Context, prompt string) (string, error)
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:      genaiClient,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		logger:      common.NewSilentLogger(),
	}
	c.generate = c.GenerateContent

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GenerateContent generates text from a prompt
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating content")

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// SelectTool asks the model which tool answers query
func (c *Client) SelectTool(ctx context.Context, query string, tools []ToolSpec) (*ToolChoice, error) {
	prompt, err := buildToolSelectionPrompt(query, tools)
	if err != nil {
		return nil, err
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	choice, err := ParseToolChoice(text)
	if err != nil {
		c.logger.Warn().Err(err).Str("reply", text).Msg("Unusable tool selection reply")
		return nil, err
	}
	return choice, nil
}

// ParseToolChoice decodes a reply of the form {"tool_name": ..., "arguments": {...}},
// tolerating markdown code fences around it.
func ParseToolChoice(text string) (*ToolChoice, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var choice ToolChoice
	if err := json.Unmarshal([]byte(cleaned), &choice); err != nil {
		return nil, fmt.Errorf("failed to parse tool choice: %w", err)
	}
	if choice.ToolName == "" {
		return nil, ErrNoToolChosen
	}
	if choice.Arguments == nil {
		choice.Arguments = map[string]any{}
	}
	return &choice, nil
}

func buildToolSelectionPrompt(query string, tools []ToolSpec) (string, error) {
	toolJSON, err := json.MarshalIndent(tools, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tools: %w", err)
	}

	return fmt.Sprintf(`Given this user query: %q

Available tools:
%s

Identify which tool to use and what parameters to provide.
Respond ONLY with JSON in this format:
{"tool_name": "tool_name", "arguments": {"param": "value"}}`, query, toolJSON), nil
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return sb.String(), nil
}
