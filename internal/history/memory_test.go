package history

import (
	"context"
	"fmt"
	"testing"

	"AIAvatar/internal/models"
)

func TestMemoryHistoryNewestFirst(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := h.Add(ctx, models.HistoryEntry{Question: fmt.Sprintf("q%d", i), Response: fmt.Sprintf("a%d", i)})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	entries, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Question != "q2" || entries[2].Question != "q0" {
		t.Errorf("Expected newest first, got %v", entries)
	}
}

func TestMemoryHistoryBounded(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()

	for i := 0; i < MaxEntries+5; i++ {
		if err := h.Add(ctx, models.HistoryEntry{Question: fmt.Sprintf("q%d", i)}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	entries, err := h.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != MaxEntries {
		t.Fatalf("Expected %d entries, got %d", MaxEntries, len(entries))
	}
	if entries[0].Question != fmt.Sprintf("q%d", MaxEntries+4) {
		t.Errorf("Expected the newest entry first, got %q", entries[0].Question)
	}
}
