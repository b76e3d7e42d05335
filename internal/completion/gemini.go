package completion

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GeminiOptions configures the Gemini backend. Project selects Vertex AI,
// otherwise APIKey selects the Gemini API.
type GeminiOptions struct {
	APIKey  string
	Project string
	Region  string
	BaseURL string
}

// Gemini implements Service with JSON response schemas.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	}
	switch {
	case opts.Project != "":
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = opts.Project
		cfg.Location = opts.Region
	case opts.APIKey != "":
		cfg.Backend = genai.BackendGeminiAPI
		cfg.APIKey = opts.APIKey
	default:
		return nil, fmt.Errorf("gemini API key or project is required")
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Complete returns the JSON text of the first candidate.
func (g *Gemini) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: req.Schema.Definition,
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}

	res, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.User), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	if res.PromptFeedback != nil && res.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: %s", ErrRefusal, res.PromptFeedback.BlockReason)
	}

	text := res.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidOutput)
	}
	return json.RawMessage(text), nil
}
