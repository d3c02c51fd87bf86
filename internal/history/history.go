// Package history keeps the rolling log of answered questions shown in the
// stream overlay. Only the most recent entries are retained.
package history

import (
	"context"

	"AIAvatar/internal/models"
)

// MaxEntries bounds the rolling history.
const MaxEntries = 20

// History records answered questions newest first.
type History interface {
	Add(ctx context.Context, entry models.HistoryEntry) error
	Recent(ctx context.Context, n int) ([]models.HistoryEntry, error)
}
