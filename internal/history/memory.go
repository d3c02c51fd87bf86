package history

import (
	"context"
	"sync"

	"AIAvatar/internal/models"
)

// MemoryHistory is the in-process default when Redis is not configured.
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry // newest first
}

// NewMemoryHistory creates an empty rolling history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Add prepends the entry and drops anything past MaxEntries.
func (h *MemoryHistory) Add(_ context.Context, entry models.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]models.HistoryEntry{entry}, h.entries...)
	if len(h.entries) > MaxEntries {
		h.entries = h.entries[:MaxEntries]
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (h *MemoryHistory) Recent(_ context.Context, n int) ([]models.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]models.HistoryEntry, n)
	copy(out, h.entries[:n])
	return out, nil
}

var _ History = (*MemoryHistory)(nil)
