package worker

import (
	"context"
	"sync"

	"AIAvatar/internal/models"
)

// Hub tracks one Worker per viewer session and enforces the shared
// generation-concurrency cap across all of them.
type Hub struct {
	ctx  context.Context
	deps Deps
	sem  chan struct{}

	mu       sync.Mutex
	sessions map[string]*Worker
}

// NewHub creates the session registry. ctx spans the service lifetime; an
// ended session never cancels a cycle already in flight.
func NewHub(ctx context.Context, deps Deps, maxConcurrency int) *Hub {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Hub{
		ctx:      ctx,
		deps:     deps,
		sem:      make(chan struct{}, maxConcurrency),
		sessions: make(map[string]*Worker),
	}
}

// Session returns the worker for a session id, creating it on first use.
func (h *Hub) Session(id string) *Worker {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.sessions[id]
	if !ok {
		w = newWorker(h.ctx, h.deps, h.sem)
		h.sessions[id] = w
	}
	return w
}

// Submit routes a question to the session's worker.
func (h *Hub) Submit(sessionID string, item models.ChatItem) {
	h.Session(sessionID).Submit(item)
}

// Poll checks the session's worker for a finished answer without blocking.
// An unknown session simply has nothing ready.
func (h *Hub) Poll(sessionID string) (*models.AnswerResult, bool) {
	h.mu.Lock()
	w, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if !ok {
		return nil, false
	}
	return w.Poll()
}

// EndSession drops the session's worker. A cycle already in flight completes
// and still writes to the cache; only the delivery obligation is discarded.
func (h *Hub) EndSession(sessionID string) {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
}

// Sessions reports how many sessions are registered.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
