package cache

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// indexEntry pairs a record ID with its embedding. The slice position doubles
// as the recency order.
type indexEntry struct {
	id     string
	vector []float32
}

// MemoryIndex is a brute-force in-memory VectorIndex. The answer set is a few
// hundred FAQ entries at most, so a linear cosine scan is faster than any
// approximate structure would be, and trivially exact.
//
// A single RWMutex gives the single-writer/multiple-readers discipline the
// cache needs: Search never observes a half-inserted vector.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []indexEntry
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Insert appends the embedding. The vector is copied so later caller-side
// mutation cannot corrupt the index.
func (m *MemoryIndex) Insert(_ context.Context, id string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("refusing to index empty vector for record %s", id)
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, indexEntry{id: id, vector: vec})
	return nil
}

// Search scans all entries and returns the topK best cosine matches, newest
// first among equal scores. Later answers may be corrections, so recency wins
// ties.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		Match
		pos int
	}
	results := make([]scored, 0, len(m.entries))
	for i, e := range m.entries {
		sim, ok := cosineSimilarity(vector, e.vector)
		if !ok {
			// Dimension mismatch means the embedding model changed under
			// us; the entry can never match this query.
			continue
		}
		results = append(results, scored{Match: Match{ID: e.id, Similarity: sim}, pos: i})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].pos > results[j].pos
	})

	if len(results) > topK {
		results = results[:topK]
	}
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = r.Match
	}
	return matches, nil
}

// Len reports the number of indexed entries.
func (m *MemoryIndex) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Reset drops all entries.
func (m *MemoryIndex) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// cosineSimilarity computes cosine similarity between two vectors,
// accumulating in float64. It reports ok=false for mismatched dimensions or
// zero-magnitude vectors.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), true
}

var _ VectorIndex = (*MemoryIndex)(nil)
