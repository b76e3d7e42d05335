// Package prompt_manager loads versioned prompt templates through a FileProvider.
// Templates are named "{name}_{kind}_v{version}.txt" and may contain {placeholders}.
package prompt_manager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/dating_coach/internal/storage_manager"
)

// Kind is the chat role a template is written for.
type Kind string

const (
	KindSystem Kind = "system"
	KindUser   Kind = "user"
)

// FileName returns the storage path of a template.
func FileName(name string, kind Kind, version int) string {
	return fmt.Sprintf("%s_%s_v%d.txt", name, kind, version)
}

// PromptManager reads templates once and serves them from memory afterwards.
type PromptManager struct {
	provider storage_manager.FileProvider
	version  int

	mu    sync.RWMutex
	cache map[string]string
}

// New creates a PromptManager reading templates of the given version.
func New(provider storage_manager.FileProvider, version int) *PromptManager {
	if provider == nil {
		panic("file provider cannot be nil")
	}
	if version < 1 {
		version = 1
	}
	return &PromptManager{
		provider: provider,
		version:  version,
		cache:    make(map[string]string),
	}
}

// Version returns the template version this manager reads.
func (m *PromptManager) Version() int {
	return m.version
}

// Load returns the raw template text.
func (m *PromptManager) Load(ctx context.Context, name string, kind Kind) (string, error) {
	if name == "" {
		return "", fmt.Errorf("prompt name cannot be empty")
	}
	file := FileName(name, kind, m.version)

	m.mu.RLock()
	text, ok := m.cache[file]
	m.mu.RUnlock()
	if ok {
		return text, nil
	}

	data, err := m.provider.Read(ctx, file)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %s: %w", file, err)
	}
	text = string(data)

	m.mu.Lock()
	m.cache[file] = text
	m.mu.Unlock()
	return text, nil
}

// Get loads a template and substitutes {key} placeholders from vars.
func (m *PromptManager) Get(ctx context.Context, name string, kind Kind, vars map[string]string) (string, error) {
	text, err := m.Load(ctx, name, kind)
	if err != nil {
		return "", err
	}
	return Render(text, vars), nil
}

// System is Get for the system template.
func (m *PromptManager) System(ctx context.Context, name string, vars map[string]string) (string, error) {
	return m.Get(ctx, name, KindSystem, vars)
}

// Preload reads the system template of every name, reporting all that are missing.
func (m *PromptManager) Preload(ctx context.Context, names ...string) error {
	var result error
	for _, name := range names {
		if _, err := m.Load(ctx, name, KindSystem); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// Invalidate drops cached templates so the next Load rereads storage.
func (m *PromptManager) Invalidate() {
	m.mu.Lock()
	m.cache = make(map[string]string)
	m.mu.Unlock()
}

// Render replaces each {key} in text with vars[key]. Unknown placeholders are left as is.
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
