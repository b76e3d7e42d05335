// Package advice holds the static catalog of advice items and the tagged union used
// for generated advice content.
package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

const (
	listHeader   = "### 💡 '나'에게 소개팅 도중 제공 가능한 조언 목록:\n----------------------\n"
	singleHeader = "### 💡 '나'가 소개팅 도중 요청한 조언:\n----------------------\n"
	footer       = "----------------------\n\n"
)

// Catalog is a read-only keyed table of advice items. It is safe for concurrent use.
type Catalog struct {
	items map[string]Metadata
	ids   []string
	// normalized id -> canonical id
	folded map[string]string
}

// Load reads the catalog document from the file provider. The document is an object
// keyed by advice id.
func Load(ctx context.Context, config Config) (*Catalog, error) {
	if config.FileProvider == nil {
		return nil, fmt.Errorf("file provider is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	data, err := config.FileProvider.Read(ctx, config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read advice catalog %s: %w", config.Path, err)
	}

	var raw map[string]Metadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal advice catalog %s: %w", config.Path, err)
	}

	items := make([]Metadata, 0, len(raw))
	for id, m := range raw {
		m.ID = id
		items = append(items, m)
	}

	c, err := NewCatalog(items)
	if err != nil {
		return nil, err
	}

	config.Logger.Info("Loaded advice catalog",
		logger.StringField("path", config.Path),
		logger.IntField("count", len(c.ids)))

	return c, nil
}

// NewCatalog validates items and builds a catalog from them.
func NewCatalog(items []Metadata) (*Catalog, error) {
	c := &Catalog{
		items:  make(map[string]Metadata, len(items)),
		folded: make(map[string]string, len(items)),
	}

	var result error
	for _, m := range items {
		m.ID = strings.TrimSpace(m.ID)
		switch {
		case m.ID == "":
			result = multierror.Append(result, fmt.Errorf("advice item with empty id"))
			continue
		case !m.ContentType.Valid():
			result = multierror.Append(result, fmt.Errorf("advice %s: content_type must be string or list, got %q", m.ID, m.ContentType))
			continue
		case m.Title == "":
			result = multierror.Append(result, fmt.Errorf("advice %s: title is required", m.ID))
			continue
		}
		if _, dup := c.items[m.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("advice %s: duplicate id", m.ID))
			continue
		}
		c.items[m.ID] = m
		c.ids = append(c.ids, m.ID)
	}
	if result != nil {
		return nil, result
	}

	sort.Strings(c.ids)
	for _, id := range c.ids {
		key := fold(id)
		if _, taken := c.folded[key]; !taken {
			c.folded[key] = id
		}
	}
	return c, nil
}

// Len is the number of items.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// IDs returns every advice id in lexicographic order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Lookup resolves id, tolerating surrounding whitespace, then case, then inner
// whitespace differences.
func (c *Catalog) Lookup(id string) (Metadata, bool) {
	trimmed := strings.TrimSpace(id)
	if m, ok := c.items[trimmed]; ok {
		return m, true
	}
	for _, candidate := range c.ids {
		if strings.EqualFold(candidate, trimmed) {
			return c.items[candidate], true
		}
	}
	if canonical, ok := c.folded[fold(trimmed)]; ok {
		return c.items[canonical], true
	}
	return Metadata{}, false
}

// Get is Lookup returning a NotFound error for unknown ids.
func (c *Catalog) Get(id string) (Metadata, error) {
	m, ok := c.Lookup(id)
	if !ok {
		return Metadata{}, conversation.NotFoundf("advice %q", id)
	}
	return m, nil
}

// Resolve maps ids to their metadata in order, dropping unknown and repeated ids.
func (c *Catalog) Resolve(ids []string) []Metadata {
	out := make([]Metadata, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		m, ok := c.Lookup(id)
		if !ok || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

// RenderList renders every item under the catalog header.
func (c *Catalog) RenderList() string {
	var b strings.Builder
	b.WriteString(listHeader)
	for _, id := range c.ids {
		b.WriteString(c.items[id].entry())
	}
	b.WriteString(footer)
	return b.String()
}

// Render renders a single requested item.
func (m Metadata) Render() string {
	return singleHeader + m.entry() + footer
}

func (m Metadata) entry() string {
	return fmt.Sprintf("ID: %s\n- 제목: %s %s\n- 설명: %s\n- 요구사항: %s\n",
		m.ID, m.Emoji, m.Title, m.Description, m.PromptInstruction)
}

// fold lowercases s and strips all whitespace.
func fold(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
