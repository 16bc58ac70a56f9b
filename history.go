package wikiquiz

import (
	"context"
	"sync"
)

// HistoryBrowser lists past quizzes and opens them for read-only display.
// History is best effort: a failed refresh keeps the previous entries and is
// only logged, never surfaced.
type HistoryBrowser struct {
	client *Client

	mu      sync.Mutex
	entries []HistoryEntry
}

// NewHistoryBrowser creates a browser backed by client.
func NewHistoryBrowser(client *Client) *HistoryBrowser {
	return &HistoryBrowser{client: client}
}

// Refresh reloads the history list. On failure the existing entries stay in
// place.
func (h *HistoryBrowser) Refresh(ctx context.Context) {
	entries, err := h.client.QuizHistory(ctx)
	if err != nil {
		VerboseLog("failed to fetch quiz history: %v", err)
		return
	}
	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()
}

// Entries returns the most recently fetched history list.
func (h *HistoryBrowser) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries
}

// Open fetches the full payload of one past quiz for display.
func (h *HistoryBrowser) Open(ctx context.Context, id int64) (*QuizPayload, error) {
	return h.client.QuizByID(ctx, id)
}
