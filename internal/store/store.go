// Package store persists conversation snapshots so a restarted process can restore its
// registry. Persistence is optional: every backend is interchangeable behind Store and
// the Noop store keeps everything in memory only.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lewisedginton/dating_coach/internal/conversation"
)

// Snapshot is the persisted state of one conversation.
type Snapshot struct {
	ConversationID string                      `json:"conversation_id"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	Memory         conversation.MemorySnapshot `json:"memory"`
	Scorer         conversation.ScorerSnapshot `json:"scorer"`
}

// Validate checks the fields every backend relies on.
func (s Snapshot) Validate() error {
	if s.ConversationID == "" {
		return fmt.Errorf("snapshot conversation id is required")
	}
	return nil
}

// Store saves, deletes and lists conversation snapshots.
type Store interface {
	// Save inserts or replaces the snapshot of s.ConversationID.
	Save(ctx context.Context, s Snapshot) error
	// Delete removes a snapshot. Deleting an absent snapshot is not an error.
	Delete(ctx context.Context, conversationID string) error
	// LoadAll returns every stored snapshot ordered by conversation id.
	LoadAll(ctx context.Context) ([]Snapshot, error)
	Ping(ctx context.Context) error
	Close() error
}

// Noop is a Store that keeps nothing.
type Noop struct{}

// NewNoop returns a Store that discards every write.
func NewNoop() Noop { return Noop{} }

func (Noop) Save(context.Context, Snapshot) error        { return nil }
func (Noop) Delete(context.Context, string) error        { return nil }
func (Noop) LoadAll(context.Context) ([]Snapshot, error) { return nil, nil }
func (Noop) Ping(context.Context) error                  { return nil }
func (Noop) Close() error                                { return nil }
