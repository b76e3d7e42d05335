package conversation

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	conversationInfoHeader = "### 📝 대화 정보:\n"
	messagesHeader         = "### 💬 대화 내용:\n"
	elisionMarker          = "...이전 메시지 일부 생략...\n"
	partnerMemoryHeader    = "### 📝 파트너에 대한 메모:\n"
	targetMessageHeader    = "### 🔍 분석할 메시지:\n"

	// SectionSeparator joins rendered prompt sections.
	SectionSeparator = "\n---\n"
)

// Memory is the message log and partner notes of one conversation. Reads and writes
// are individually synchronized; multi-step sequences are serialized by the caller.
type Memory struct {
	mu        sync.RWMutex
	startedAt time.Time
	messages  []Message
	partner   PartnerMemory
	now       func() time.Time
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithClock overrides the clock used for elapsed-time rendering.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// WithStartedAt overrides the conversation start time.
func WithStartedAt(t time.Time) MemoryOption {
	return func(m *Memory) {
		m.startedAt = t
	}
}

// NewMemory creates an empty conversation memory starting now.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		partner: NewPartnerMemory(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.startedAt.IsZero() {
		m.startedAt = m.now()
	}
	return m
}

// StartedAt returns the conversation start time.
func (m *Memory) StartedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startedAt
}

// AddMessage appends msg to the log unconditionally.
func (m *Memory) AddMessage(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// IsDuplicate reports whether msg would not advance the log: its id is less than or
// equal to the id of the last stored message. Only the tail is inspected, so ids are
// expected to arrive in non-decreasing order.
func (m *Memory) IsDuplicate(msg Message) bool {
	last, ok := m.Last()
	if !ok {
		return false
	}
	return CompareIDs(last.ID, msg.ID) >= 0
}

// Len is the number of stored messages.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Last returns the newest message.
func (m *Memory) Last() (Message, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.messages) == 0 {
		return Message{}, false
	}
	return m.messages[len(m.messages)-1], true
}

// Messages returns a copy of the full log in arrival order.
func (m *Memory) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Recent returns up to n newest messages in arrival order. n <= 0 returns all of them.
func (m *Memory) Recent(n int) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := 0
	if n > 0 && len(m.messages) > n {
		start = len(m.messages) - n
	}
	out := make([]Message, len(m.messages)-start)
	copy(out, m.messages[start:])
	return out
}

// PartnerMemory returns a copy of the partner notes.
func (m *Memory) PartnerMemory() PartnerMemory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.partner.Clone()
}

// UpdatePartnerMemory appends memo under category when both are non-empty and the
// category is known. It reports whether memory changed.
func (m *Memory) UpdatePartnerMemory(category, memo string) bool {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(memo) == "" {
		return false
	}
	c, ok := ParseCategory(category)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.partner.Append(c, strings.TrimSpace(memo))
}

// Apply applies an extraction result. Instructions without a real edit are ignored.
func (m *Memory) Apply(instr UpdateInstruction) bool {
	if !instr.Applicable() {
		return false
	}
	return m.UpdatePartnerMemory(instr.Category, instr.Content)
}

// RenderConversationInfo summarizes elapsed time and message count.
func (m *Memory) RenderConversationInfo() string {
	m.mu.RLock()
	elapsed := m.now().Sub(m.startedAt)
	count := len(m.messages)
	m.mu.RUnlock()

	if elapsed < 0 {
		elapsed = 0
	}
	total := int(elapsed / time.Second)
	h, mi, s := total/3600, (total%3600)/60, total%60

	var b strings.Builder
	b.WriteString(conversationInfoHeader)
	fmt.Fprintf(&b, "⏰ 대화 경과 시간: %d시간 %d분 %d초\n", h, mi, s)
	fmt.Fprintf(&b, "💬 총 메시지 수: %d회\n", count)
	return b.String()
}

// RenderMessages renders up to window newest messages in arrival order, with an elision
// marker when older messages were cut. window <= 0 renders the whole log.
func (m *Memory) RenderMessages(window int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if window > 0 && len(m.messages) > window {
		start = len(m.messages) - window
	}

	var b strings.Builder
	b.WriteString(messagesHeader)
	if start > 0 {
		b.WriteString(elisionMarker)
	}
	for _, msg := range m.messages[start:] {
		b.WriteString(msg.Prompt())
	}
	return b.String()
}

// RenderPartnerMemory renders every non-empty category in fixed order.
func (m *Memory) RenderPartnerMemory() string {
	return RenderPartnerMemory(m.PartnerMemory())
}

// RenderTargetMessage renders the newest message as the analysis target.
func (m *Memory) RenderTargetMessage() string {
	last, ok := m.Last()
	if !ok {
		return targetMessageHeader
	}
	return targetMessageHeader + last.Prompt()
}

// RenderPartnerMemory renders p with one numbered block per non-empty category.
func RenderPartnerMemory(p PartnerMemory) string {
	var b strings.Builder
	b.WriteString(partnerMemoryHeader)
	for _, c := range Categories {
		memos := p.content[c]
		if len(memos) == 0 {
			continue
		}
		fmt.Fprintf(&b, "<%s>와 관련된 메모:\n", c)
		for i, memo := range memos {
			fmt.Fprintf(&b, "- %d: %s\n", i, memo)
		}
	}
	return b.String()
}

// JoinSections joins non-empty prompt sections with the section separator.
func JoinSections(sections ...string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, SectionSeparator)
}

// MemorySnapshot is the serializable state of a Memory.
type MemorySnapshot struct {
	StartedAt     time.Time     `json:"started_at"`
	Messages      []Message     `json:"messages"`
	PartnerMemory PartnerMemory `json:"partner_memory"`
}

// Snapshot captures the current state.
func (m *Memory) Snapshot() MemorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]Message, len(m.messages))
	copy(msgs, m.messages)
	return MemorySnapshot{
		StartedAt:     m.startedAt,
		Messages:      msgs,
		PartnerMemory: m.partner.Clone(),
	}
}

// RestoreMemory rebuilds a Memory from a snapshot.
func RestoreMemory(s MemorySnapshot, opts ...MemoryOption) *Memory {
	opts = append([]MemoryOption{WithStartedAt(s.StartedAt)}, opts...)
	m := NewMemory(opts...)
	m.messages = append(m.messages, s.Messages...)
	m.partner = s.PartnerMemory.Clone()
	return m
}
