// Package conversation_manager is the process-wide registry of active conversations.
package conversation_manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/internal/store"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

// Manager owns the lifecycle of every conversation: absent -> active on Init,
// active -> active on re-Init (state replaced), active -> absent on Delete.
type Manager interface {
	// Exists reports whether id is active.
	Exists(id string) bool

	// Init creates fresh state for id, replacing any existing entry.
	Init(ctx context.Context, id string) (*Conversation, error)

	// Delete removes id. Deleting an absent id fails with a NotFound error.
	Delete(ctx context.Context, id string) error

	// Get returns the entry for id or a NotFound error.
	Get(id string) (*Conversation, error)

	// GetMemory returns the memory of id or a NotFound error.
	GetMemory(id string) (*conversation.Memory, error)

	// GetScorer returns the scorer of id or a NotFound error.
	GetScorer(id string) (*conversation.Scorer, error)

	// Commit persists the current state of c. Entries replaced or deleted since c was
	// fetched are not written.
	Commit(ctx context.Context, c *Conversation)

	// Restore loads every stored snapshot into the registry and returns how many were
	// restored.
	Restore(ctx context.Context) (int, error)

	// IDs lists active conversation ids in lexicographic order.
	IDs() []string
}

// conversationManager implements the Manager interface
type conversationManager struct {
	config  Config
	mutex   sync.RWMutex
	entries map[string]*Conversation
}

// New creates a new conversation manager instance
func New(config Config) (Manager, error) {
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if config.Alpha <= 0 || config.Alpha > 1 {
		config.Alpha = conversation.DefaultAlpha
	}
	if config.Store == nil {
		config.Store = store.NewNoop()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &conversationManager{
		config:  config,
		entries: make(map[string]*Conversation),
	}, nil
}

func (cm *conversationManager) Exists(id string) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	_, ok := cm.entries[id]
	return ok
}

func (cm *conversationManager) Init(ctx context.Context, id string) (*Conversation, error) {
	if id == "" {
		return nil, conversation.Validationf("conversation id is required")
	}

	now := cm.config.Clock()
	entry := &Conversation{
		ID:        id,
		CreatedAt: now,
		Memory:    conversation.NewMemory(conversation.WithClock(cm.config.Clock), conversation.WithStartedAt(now)),
		Scorer:    conversation.NewScorer(cm.config.Alpha),
	}

	cm.mutex.Lock()
	_, replaced := cm.entries[id]
	cm.entries[id] = entry
	active := len(cm.entries)
	cm.mutex.Unlock()

	cm.config.Metrics.SetActiveConversations(active)

	if replaced {
		cm.config.Logger.Info("Replaced existing conversation",
			logger.ConversationIDField(id))
	} else {
		cm.config.Logger.Info("Created conversation",
			logger.ConversationIDField(id))
	}

	cm.Commit(ctx, entry)
	return entry, nil
}

func (cm *conversationManager) Delete(ctx context.Context, id string) error {
	cm.mutex.Lock()
	_, ok := cm.entries[id]
	if ok {
		delete(cm.entries, id)
	}
	active := len(cm.entries)
	cm.mutex.Unlock()

	if !ok {
		cm.config.Logger.Warn("Delete of unknown conversation",
			logger.ConversationIDField(id))
		return conversation.NotFoundf("conversation %q", id)
	}

	cm.config.Metrics.SetActiveConversations(active)

	if err := cm.config.Store.Delete(ctx, id); err != nil {
		cm.config.Logger.Warn("Failed to delete conversation snapshot",
			logger.ConversationIDField(id),
			logger.ErrorField(err))
		// Don't return error - conversation is removed in memory
	}

	cm.config.Logger.Info("Deleted conversation",
		logger.ConversationIDField(id))
	return nil
}

func (cm *conversationManager) Get(id string) (*Conversation, error) {
	cm.mutex.RLock()
	entry, ok := cm.entries[id]
	cm.mutex.RUnlock()

	if !ok {
		cm.config.Logger.Debug("Conversation not found",
			logger.ConversationIDField(id))
		return nil, conversation.NotFoundf("conversation %q", id)
	}
	return entry, nil
}

func (cm *conversationManager) GetMemory(id string) (*conversation.Memory, error) {
	entry, err := cm.Get(id)
	if err != nil {
		return nil, err
	}
	return entry.Memory, nil
}

func (cm *conversationManager) GetScorer(id string) (*conversation.Scorer, error) {
	entry, err := cm.Get(id)
	if err != nil {
		return nil, err
	}
	return entry.Scorer, nil
}

func (cm *conversationManager) Commit(ctx context.Context, c *Conversation) {
	cm.mutex.RLock()
	current := cm.entries[c.ID]
	cm.mutex.RUnlock()

	if current != c {
		cm.config.Logger.Debug("Skipping snapshot of stale conversation",
			logger.ConversationIDField(c.ID))
		return
	}

	if err := cm.config.Store.Save(ctx, c.Snapshot(cm.config.Clock())); err != nil {
		cm.config.Logger.Warn("Failed to save conversation snapshot",
			logger.ConversationIDField(c.ID),
			logger.ErrorField(err))
		// Don't return error - persistence is optional
	}
}

func (cm *conversationManager) Restore(ctx context.Context) (int, error) {
	snapshots, err := cm.config.Store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load conversation snapshots: %w", err)
	}

	cm.mutex.Lock()
	restored := 0
	for _, snap := range snapshots {
		if _, exists := cm.entries[snap.ConversationID]; exists {
			continue
		}
		cm.entries[snap.ConversationID] = &Conversation{
			ID:        snap.ConversationID,
			CreatedAt: snap.CreatedAt,
			Memory:    conversation.RestoreMemory(snap.Memory, conversation.WithClock(cm.config.Clock)),
			Scorer:    conversation.RestoreScorer(cm.config.Alpha, snap.Scorer),
		}
		restored++
	}
	active := len(cm.entries)
	cm.mutex.Unlock()

	cm.config.Metrics.SetActiveConversations(active)
	cm.config.Logger.Info("Restored conversations",
		logger.IntField("count", restored))

	return restored, nil
}

func (cm *conversationManager) IDs() []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	ids := make([]string, 0, len(cm.entries))
	for id := range cm.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
