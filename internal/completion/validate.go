package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validating checks every result against its request schema before returning it.
type Validating struct {
	next Service

	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewValidating wraps next with schema validation.
func NewValidating(next Service) *Validating {
	return &Validating{next: next, compiled: make(map[string]*jsonschema.Schema)}
}

// Complete forwards req and validates the result.
func (v *Validating) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	raw, err := v.next.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Schema.Definition == nil {
		return raw, nil
	}

	schema, err := v.schema(req.Schema)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOutput, req.Schema.Name, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOutput, req.Schema.Name, err)
	}
	return raw, nil
}

// schema compiles a definition once per schema name.
func (v *Validating) schema(s Schema) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if compiled, ok := v.compiled[s.Name]; ok {
		return compiled, nil
	}
	data, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema %s: %w", s.Name, err)
	}
	compiled, err := jsonschema.CompileString(s.Name+".json", string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", s.Name, err)
	}
	v.compiled[s.Name] = compiled
	return compiled, nil
}
