// Package chat owns the ordered conversation history for one session.
package chat

import (
	"sync"

	"github.com/google/uuid"
)

// History is the conversation state of a single session: an ordered sequence
// of turns with a FIFO retention bound, plus the currently selected model.
//
// One writer (the dispatcher running inside the execution worker) mutates it;
// readers take point-in-time snapshots. Append is atomic with respect to
// Snapshot: a reader never observes a partial append.
type History struct {
	mu         sync.RWMutex
	sessionID  string
	turns      []Turn
	maxHistory int // retained exchanges; turn bound is 2*maxHistory
	model      string
}

// NewHistory creates an empty history retaining up to maxHistory exchanges.
func NewHistory(maxHistory int, model string) *History {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &History{
		sessionID:  uuid.NewString(),
		turns:      make([]Turn, 0, 2*maxHistory),
		maxHistory: maxHistory,
		model:      model,
	}
}

// SessionID identifies this session, e.g. for exported transcripts.
func (h *History) SessionID() string {
	return h.sessionID
}

// Append adds a turn, evicting the oldest turns first if the retention bound
// is exceeded. Amortized O(1).
func (h *History) Append(turn Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, turn)
	h.evictLocked()
}

// AppendAll adds several turns as one atomic operation, so a dispatch cycle
// commits its assistant and tool turns together or not at all.
func (h *History) AppendAll(turns ...Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, turns...)
	h.evictLocked()
}

func (h *History) evictLocked() {
	max := 2 * h.maxHistory
	if len(h.turns) > max {
		excess := len(h.turns) - max
		h.turns = append(h.turns[:0:0], h.turns[excess:]...)
	}
}

// Snapshot returns an immutable ordered copy of the current turns.
func (h *History) Snapshot() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the current turn count.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Clear resets the history to empty. Used by the explicit "clear chat"
// action; never called from inside a dispatch cycle.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = h.turns[:0]
}

// Model returns the currently selected model identifier.
func (h *History) Model() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.model
}

// SetModel switches the active model for subsequent requests.
func (h *History) SetModel(model string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.model = model
}
