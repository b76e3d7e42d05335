// Package completion is the structured completion capability used by the coaching
// pipelines: a system and user prompt go in, a JSON document conforming to the
// requested schema comes out. Backends wrap the OpenAI, Anthropic and Gemini SDKs;
// decorators add schema validation, rate limiting and metrics.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrRefusal is returned when the model declines to answer.
	ErrRefusal = errors.New("model refused the request")
	// ErrInvalidOutput is returned when the response is empty, unparsable or off-schema.
	ErrInvalidOutput = errors.New("model returned invalid structured output")
)

// Schema is a named JSON Schema the response must conform to.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Request is a single structured completion call.
type Request struct {
	// Stage labels the pipeline step for logs and metrics.
	Stage       string
	Model       string
	System      string
	User        string
	Schema      Schema
	Temperature *float64
}

// Service performs structured completions. Implementations must be safe for
// concurrent use.
type Service interface {
	Complete(ctx context.Context, req Request) (json.RawMessage, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, req Request) (json.RawMessage, error)

// Complete calls f.
func (f ServiceFunc) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	return f(ctx, req)
}

// Decode runs req and unmarshals the result into T.
func Decode[T any](ctx context.Context, svc Service, req Request) (T, error) {
	var out T
	raw, err := svc.Complete(ctx, req)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrInvalidOutput, req.Schema.Name, err)
	}
	return out, nil
}

// Object builds a strict object schema: every property required, nothing extra.
func Object(properties map[string]any) map[string]any {
	required := make([]string, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
