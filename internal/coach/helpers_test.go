package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lewisedginton/dating_coach/internal/advice"
	"github.com/lewisedginton/dating_coach/internal/completion"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/stretchr/testify/require"
)

// reply answers the n-th (0-based) call of a stage.
type reply func(req completion.Request, n int) (json.RawMessage, error)

// fakeCompletion routes requests to a reply per stage and records them.
type fakeCompletion struct {
	mu       sync.Mutex
	replies  map[string]reply
	calls    map[string]int
	requests []completion.Request
}

func newFakeCompletion(replies map[string]reply) *fakeCompletion {
	return &fakeCompletion{replies: replies, calls: make(map[string]int)}
}

func (f *fakeCompletion) Complete(_ context.Context, req completion.Request) (json.RawMessage, error) {
	f.mu.Lock()
	n := f.calls[req.Stage]
	f.calls[req.Stage]++
	f.requests = append(f.requests, req)
	r, ok := f.replies[req.Stage]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unexpected completion for stage %s", req.Stage)
	}
	return r(req, n)
}

func (f *fakeCompletion) count(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

func (f *fakeCompletion) last(stage string) completion.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Stage == stage {
			return f.requests[i]
		}
	}
	return completion.Request{}
}

func fixed(body string) reply {
	return func(completion.Request, int) (json.RawMessage, error) {
		return json.RawMessage(body), nil
	}
}

func failing(err error) reply {
	return func(completion.Request, int) (json.RawMessage, error) {
		return nil, err
	}
}

// sequence answers call n with bodies[n%len]; empty bodies fail.
func sequence(bodies ...string) reply {
	return func(_ completion.Request, n int) (json.RawMessage, error) {
		b := bodies[n%len(bodies)]
		if b == "" {
			return nil, fmt.Errorf("sample %d failed", n)
		}
		return json.RawMessage(b), nil
	}
}

// staticPrompts renders every system prompt as its name plus the categories variable.
type staticPrompts struct{}

func (staticPrompts) System(_ context.Context, name string, vars map[string]string) (string, error) {
	return name + "|" + vars["categories"], nil
}

var errPrompt = fmt.Errorf("prompt missing")

type brokenPrompts struct{}

func (brokenPrompts) System(context.Context, string, map[string]string) (string, error) {
	return "", errPrompt
}

func testSettings() Settings {
	s := DefaultSettings()
	s.SentimentSamples = 3
	s.RecommendationSamples = 3
	s.MaxRecommendations = 2
	return s
}

func newMemory(t *testing.T, msgs ...conversation.Message) *conversation.Memory {
	t.Helper()
	start := time.Date(2025, 5, 1, 19, 0, 0, 0, time.UTC)
	mem := conversation.NewMemory(
		conversation.WithStartedAt(start),
		conversation.WithClock(func() time.Time { return start.Add(90 * time.Second) }),
	)
	for _, m := range msgs {
		mem.AddMessage(m)
	}
	return mem
}

func msg(t *testing.T, id string, role conversation.Role, content string) conversation.Message {
	t.Helper()
	m, err := conversation.NewMessage(id, role, content, time.Date(2025, 5, 1, 19, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return m
}

func testCatalog(t *testing.T) *advice.Catalog {
	t.Helper()
	c, err := advice.NewCatalog([]advice.Metadata{
		{ID: "conversation_topics", Emoji: "💬", Title: "대화 주제", Description: "d", PromptInstruction: "p", ContentType: advice.ContentList},
		{ID: "talk_balance", Emoji: "⚖️", Title: "대화 균형", Description: "d", PromptInstruction: "p", ContentType: advice.ContentString},
		{ID: "cheer_up", Emoji: "💪", Title: "응원", Description: "d", PromptInstruction: "p", ContentType: advice.ContentString},
	})
	require.NoError(t, err)
	return c
}
