package cache

import "context"

// Match is one scored result from a vector index search.
type Match struct {
	// ID references a QuestionRecord in the answer store.
	ID string
	// Similarity is cosine similarity in [-1, 1]; identical questions score
	// ~1.0.
	Similarity float64
}

// VectorIndex is the nearest-neighbor search structure over the embeddings of
// previously answered questions. Insert must be safe to call concurrently
// with Search: the worker inserts while the page's poll path may be looking
// up the next question.
//
// The index is a derived structure. The answer store file is the source of
// truth, and the service rebuilds the index from it whenever the two
// disagree.
type VectorIndex interface {
	// Insert registers a record's embedding under its ID. Entries inserted
	// later win similarity ties, so insertion order must follow creation
	// order.
	Insert(ctx context.Context, id string, vector []float32) error

	// Search returns up to topK matches ordered by descending similarity,
	// most recent first among equals. An empty index returns no matches.
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)

	// Len reports the number of indexed entries.
	Len(ctx context.Context) (int, error)

	// Reset drops all entries, ahead of a rebuild from the store.
	Reset(ctx context.Context) error
}
