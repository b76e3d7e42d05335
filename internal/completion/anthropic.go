package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicOptions configures the Anthropic backend.
type AnthropicOptions struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	MaxTokens  int64
	Timeout    time.Duration
}

// Anthropic implements Service by forcing a single tool call whose input schema is
// the requested response schema.
type Anthropic struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAnthropic creates an Anthropic backend.
func NewAnthropic(opts AnthropicOptions) (*Anthropic, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Anthropic{client: anthropic.NewClient(reqOpts...), maxTokens: maxTokens}, nil
}

// Complete returns the input of the forced tool call.
func (a *Anthropic) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	toolName := req.Schema.Name
	if toolName == "" {
		toolName = "respond"
	}

	inputSchema := anthropic.ToolInputSchemaParam{Properties: req.Schema.Definition["properties"]}
	if required, ok := req.Schema.Definition["required"].([]string); ok {
		inputSchema.Required = required
	}

	tool := anthropic.ToolParam{Name: toolName, InputSchema: inputSchema}
	if req.Schema.Description != "" {
		tool.Description = anthropic.String(req.Schema.Description)
	}

	params := anthropic.MessageNewParams{
		Model:      anthropic.Model(req.Model),
		MaxTokens:  a.maxTokens,
		System:     []anthropic.TextBlockParam{{Text: req.System}},
		Messages:   []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.User))},
		Tools:      []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: toolName}},
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude api error: %w", err)
	}
	if string(resp.StopReason) == "refusal" {
		return nil, ErrRefusal
	}

	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == toolName {
			if len(block.Input) == 0 {
				return nil, fmt.Errorf("%w: empty tool input", ErrInvalidOutput)
			}
			return json.RawMessage(block.Input), nil
		}
	}
	return nil, fmt.Errorf("%w: no %s tool call in response", ErrInvalidOutput, toolName)
}
