package conversation_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"sync"
	"time"

	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/internal/store"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/lewisedginton/dating_coach/pkg/metrics"
)

// Conversation is one registry entry: the memory and scorer of a live conversation
// plus the lock that serializes multi-step updates to them.
type Conversation struct {
	ID        string
	CreatedAt time.Time
	Memory    *conversation.Memory
	Scorer    *conversation.Scorer

	mu sync.Mutex
}

// Lock acquires exclusive access for a read-modify-write sequence.
func (c *Conversation) Lock() { c.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (c *Conversation) Unlock() { c.mu.Unlock() }

// Snapshot captures the entry for persistence.
func (c *Conversation) Snapshot(now time.Time) store.Snapshot {
	return store.Snapshot{
		ConversationID: c.ID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      now,
		Memory:         c.Memory.Snapshot(),
		Scorer:         c.Scorer.Snapshot(),
	}
}

// Config holds configuration for the conversation manager
type Config struct {
	// Alpha is the EWMA smoothing factor of every new scorer.
	Alpha float64
	// Store receives snapshots; nil keeps conversations in memory only.
	Store   store.Store
	Logger  logger.Logger
	Metrics *metrics.Metrics
	// Clock defaults to time.Now.
	Clock func() time.Time
}
