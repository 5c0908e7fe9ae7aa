package session

import (
	"sync"
	"time"

	"interview-copilot/internal/provider"
)

// Turn is one entry in a session's conversation history.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a session's append-only conversation record. A user turn
// and its paired assistant slot are appended together when the question
// arrives; the assistant content is attached retroactively once the
// full answer is known.
type History struct {
	mu      sync.RWMutex
	turns   []Turn
	pending int // index of the unfilled assistant slot, -1 when none
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{pending: -1}
}

// BeginTurn appends the user turn and an empty paired assistant slot.
func (h *History) BeginTurn(question string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns,
		Turn{Role: "user", Content: question, Timestamp: at},
		Turn{Role: "assistant"},
	)
	h.pending = len(h.turns) - 1
}

// CompleteTurn fills the pending assistant slot with the finished
// answer.
func (h *History) CompleteTurn(answer string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending < 0 {
		return
	}
	h.turns[h.pending].Content = answer
	h.turns[h.pending].Timestamp = at
	h.pending = -1
}

// Messages returns the history as provider messages, excluding an
// unfilled assistant slot.
func (h *History) Messages() []provider.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	messages := make([]provider.Message, 0, len(h.turns))
	for i, t := range h.turns {
		if i == h.pending && t.Content == "" {
			continue
		}
		messages = append(messages, provider.Message{Role: t.Role, Content: t.Content})
	}
	return messages
}

// Turns returns a snapshot of the history.
func (h *History) Turns() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns, counting an unfilled assistant slot.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}
