package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIOptions configures the OpenAI backend.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
}

// OpenAI implements Service with chat completions and json_schema response formats.
type OpenAI struct {
	client openai.Client
}

// NewOpenAI creates an OpenAI backend.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
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
	return &OpenAI{client: openai.NewClient(reqOpts...)}, nil
}

// Complete sends a system and user message and returns the JSON message content.
func (o *OpenAI) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	schema := shared.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   req.Schema.Name,
		Schema: req.Schema.Definition,
		Strict: openai.Bool(true),
	}
	if req.Schema.Description != "" {
		schema.Description = openai.String(req.Schema.Description)
	}

	params := openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{JSONSchema: schema},
		},
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrInvalidOutput)
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("%w: %s", ErrRefusal, msg.Refusal)
	}
	if msg.Content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidOutput)
	}
	return json.RawMessage(msg.Content), nil
}
