package conversation

import (
	"encoding/json"
	"strings"
)

// Category is one of the fixed topics partner notes are filed under.
type Category string

const (
	CategoryInterests   Category = "취미/관심사"
	CategoryConcerns    Category = "고민"
	CategoryRelations   Category = "가족/친구"
	CategoryCareer      Category = "직업/학업"
	CategoryPersonality Category = "성격/가치관"
	CategoryRomance     Category = "이상형/연애관"
	CategoryLifestyle   Category = "생활습관"
)

// Categories lists every category in rendering order. The set never changes at runtime.
var Categories = []Category{
	CategoryInterests,
	CategoryConcerns,
	CategoryRelations,
	CategoryCareer,
	CategoryPersonality,
	CategoryRomance,
	CategoryLifestyle,
}

// CategoryNames returns the category labels as plain strings, in order.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}

// ParseCategory resolves a label to a Category.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// PartnerMemory maps every category to its memos in insertion order.
// Every category key is always present.
type PartnerMemory struct {
	content map[Category][]string
}

// NewPartnerMemory returns a memory with every category present and empty.
func NewPartnerMemory() PartnerMemory {
	content := make(map[Category][]string, len(Categories))
	for _, c := range Categories {
		content[c] = []string{}
	}
	return PartnerMemory{content: content}
}

// Memos returns a copy of the memos filed under c.
func (p PartnerMemory) Memos(c Category) []string {
	memos := p.content[c]
	out := make([]string, len(memos))
	copy(out, memos)
	return out
}

// Append files memo under c. Unknown categories are ignored.
func (p *PartnerMemory) Append(c Category, memo string) bool {
	if p.content == nil {
		*p = NewPartnerMemory()
	}
	if _, ok := p.content[c]; !ok {
		return false
	}
	p.content[c] = append(p.content[c], memo)
	return true
}

// Len is the total number of memos across categories.
func (p PartnerMemory) Len() int {
	n := 0
	for _, memos := range p.content {
		n += len(memos)
	}
	return n
}

// IsEmpty reports whether no memo has been recorded.
func (p PartnerMemory) IsEmpty() bool {
	return p.Len() == 0
}

// Clone returns a deep copy.
func (p PartnerMemory) Clone() PartnerMemory {
	out := NewPartnerMemory()
	for c, memos := range p.content {
		out.content[c] = append([]string{}, memos...)
	}
	return out
}

// Map returns the memos keyed by category label.
func (p PartnerMemory) Map() map[string][]string {
	out := make(map[string][]string, len(Categories))
	for _, c := range Categories {
		out[string(c)] = p.Memos(c)
	}
	return out
}

type partnerMemoryJSON struct {
	Content map[string][]string `json:"content"`
}

// MarshalJSON encodes the memory as {"content": {category: [memo]}}.
func (p PartnerMemory) MarshalJSON() ([]byte, error) {
	return json.Marshal(partnerMemoryJSON{Content: p.Map()})
}

// UnmarshalJSON decodes {"content": {...}}, dropping unknown categories and filling in
// missing ones.
func (p *PartnerMemory) UnmarshalJSON(data []byte) error {
	var raw partnerMemoryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PartnerMemoryFromMap(raw.Content)
	return nil
}

// PartnerMemoryFromMap builds a memory from label-keyed memos. Unknown labels are dropped.
func PartnerMemoryFromMap(m map[string][]string) PartnerMemory {
	out := NewPartnerMemory()
	for label, memos := range m {
		c, ok := ParseCategory(label)
		if !ok {
			continue
		}
		for _, memo := range memos {
			if strings.TrimSpace(memo) != "" {
				out.content[c] = append(out.content[c], memo)
			}
		}
	}
	return out
}

// UpdateInstruction is the extraction result describing a single memory edit.
// Category and Content decode JSON null as the empty string.
type UpdateInstruction struct {
	ShouldUpdate bool   `json:"should_update"`
	Category     string `json:"category"`
	Content      string `json:"content"`
}

// NoUpdate is the instruction that leaves memory untouched.
func NoUpdate() UpdateInstruction {
	return UpdateInstruction{}
}

// Applicable reports whether the instruction carries a real edit.
func (i UpdateInstruction) Applicable() bool {
	return i.ShouldUpdate && strings.TrimSpace(i.Category) != "" && strings.TrimSpace(i.Content) != ""
}
