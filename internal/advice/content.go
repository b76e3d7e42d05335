package advice

import (
	"encoding/json"
	"fmt"
)

// ListItem is one entry of list-typed advice.
type ListItem struct {
	Value  string `json:"value"`
	Detail string `json:"detail"`
}

// Content is generated advice. Type selects which payload field is meaningful.
type Content struct {
	Type  ContentType
	Text  string
	Items []ListItem
}

// StringContent builds string-typed advice.
func StringContent(text string) Content {
	return Content{Type: ContentString, Text: text}
}

// ListContent builds list-typed advice.
func ListContent(items []ListItem) Content {
	if items == nil {
		items = []ListItem{}
	}
	return Content{Type: ContentList, Items: items}
}

// MarshalJSON encodes the payload only: a string or an array of items.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ContentString:
		return json.Marshal(c.Text)
	case ContentList:
		items := c.Items
		if items == nil {
			items = []ListItem{}
		}
		return json.Marshal(items)
	default:
		return nil, fmt.Errorf("unknown advice content type %q", c.Type)
	}
}

type stringPayload struct {
	Advice string `json:"advice"`
}

type listPayload struct {
	Advice []ListItem `json:"advice"`
}

// ParseContent decodes a completion result of the form {"advice": ...} according to t.
func ParseContent(t ContentType, raw []byte) (Content, error) {
	switch t {
	case ContentString:
		var p stringPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return Content{}, fmt.Errorf("failed to decode string advice: %w", err)
		}
		return StringContent(p.Advice), nil
	case ContentList:
		var p listPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return Content{}, fmt.Errorf("failed to decode list advice: %w", err)
		}
		return ListContent(p.Advice), nil
	default:
		return Content{}, fmt.Errorf("unknown advice content type %q", t)
	}
}
