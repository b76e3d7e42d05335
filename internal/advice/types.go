package advice

import (
	"github.com/lewisedginton/dating_coach/internal/storage_manager"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

// ContentType declares the shape of the generated advice.
type ContentType string

const (
	// ContentString advice is a single block of text.
	ContentString ContentType = "string"
	// ContentList advice is a list of value/detail pairs.
	ContentList ContentType = "list"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentString || t == ContentList
}

// Metadata describes one advice item the coach can generate.
type Metadata struct {
	ID                string      `json:"advice_id"`
	Emoji             string      `json:"emoji"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	PromptInstruction string      `json:"prompt_instruction"`
	ContentType       ContentType `json:"content_type"`
}

// Summary is the client-facing part of Metadata.
type Summary struct {
	ID          string `json:"advice_id"`
	Emoji       string `json:"emoji"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Summary drops the prompt-only fields.
func (m Metadata) Summary() Summary {
	return Summary{ID: m.ID, Emoji: m.Emoji, Title: m.Title, Description: m.Description}
}

// Config holds configuration for loading a catalog
type Config struct {
	FileProvider storage_manager.FileProvider
	// Path of the JSON document within FileProvider
	Path   string
	Logger logger.Logger
}
