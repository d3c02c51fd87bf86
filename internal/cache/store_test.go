package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"AIAvatar/internal/models"
	"AIAvatar/pkg/logger"
)

func testRecord(i int) *models.QuestionRecord {
	return &models.QuestionRecord{
		ID:             fmt.Sprintf("id-%d", i),
		Question:       fmt.Sprintf("質問その%d", i),
		NormalizedText: fmt.Sprintf("質問その%d", i),
		Embedding:      []float32{float32(i), 1, 0},
		ResponseText:   fmt.Sprintf("回答その%d", i),
		Emotion:        "Neutral",
		AudioRef:       fmt.Sprintf("a%d.mp3", i),
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func TestAnswerStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq_cache.json")
	log := logger.New("test")

	store := NewAnswerStore(path, log)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	const n = 5
	for i := 0; i < n; i++ {
		if err := store.Append(testRecord(i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	// Simulate a restart: a fresh store over the same file.
	reloaded := NewAnswerStore(path, log)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() after restart error = %v", err)
	}

	records := reloaded.LoadAll()
	if len(records) != n {
		t.Fatalf("Expected %d records after reload, got %d", n, len(records))
	}
	for i, rec := range records {
		want := testRecord(i)
		if rec.ID != want.ID || rec.Question != want.Question || rec.ResponseText != want.ResponseText || rec.AudioRef != want.AudioRef {
			t.Errorf("Record %d mismatch after reload: got %+v", i, rec)
		}
		if !rec.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("Record %d timestamp mismatch: got %v want %v", i, rec.CreatedAt, want.CreatedAt)
		}
	}
}

func TestAnswerStoreSkipsMalformedEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq_cache.json")
	log := logger.New("test")

	// Build a file of 10 entries and corrupt one of them (embedding with the
	// wrong type), the way a botched hand edit would.
	var raws []json.RawMessage
	for i := 0; i < 10; i++ {
		raw, err := json.Marshal(testRecord(i))
		if err != nil {
			t.Fatal(err)
		}
		if i == 4 {
			raw = []byte(`{"question": "壊れたエントリ", "embedding": "not-a-vector", "response_text": 42}`)
		}
		raws = append(raws, raw)
	}
	data, err := json.MarshalIndent(raws, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewAnswerStore(path, log)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	records := store.LoadAll()
	if len(records) != 9 {
		t.Fatalf("Expected 9 readable records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Question == "壊れたエントリ" {
			t.Error("Malformed entry leaked into LoadAll")
		}
	}
}

func TestAnswerStorePreservesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq_cache.json")
	log := logger.New("test")

	// An operator-curated entry with a field this code knows nothing about.
	curated := `[{"id": "cur-1", "question": "与那国の人口は？", "normalized_text": "与那国の人口は",
		"embedding": [1, 0, 0], "response_text": "約1700人です", "emotion": "Neutral",
		"audio_ref": "pop.mp3", "created_at": "2025-01-01T00:00:00Z",
		"curator_note": "確認済み 2025-01"}]`
	if err := os.WriteFile(path, []byte(curated), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewAnswerStore(path, log)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// A write cycle must not strip the unknown field.
	if err := store.Append(testRecord(1)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "curator_note") {
		t.Error("Unknown field was dropped on rewrite")
	}
	if !strings.Contains(string(data), "確認済み 2025-01") {
		t.Error("Unknown field value was dropped on rewrite")
	}
}

func TestAnswerStoreMovesAsideUnparseableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faq_cache.json")
	log := logger.New("test")

	if err := os.WriteFile(path, []byte("{{{{ not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewAnswerStore(path, log)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() should tolerate an unparseable file, got %v", err)
	}
	if got := store.Len(); got != 0 {
		t.Errorf("Expected empty store, got %d records", got)
	}

	// The broken file must survive for the operator.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range entries {
		if strings.Contains(e.Name(), ".corrupt-") {
			found = true
		}
	}
	if !found {
		t.Error("Corrupt file was not moved aside")
	}
}

func TestAnswerStoreRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq_cache.json")
	log := logger.New("test")

	store := NewAnswerStore(path, log)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Append(testRecord(i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	if err := store.Remove("id-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := store.Get("id-1"); ok {
		t.Error("Removed record still retrievable")
	}
	if got := store.Len(); got != 2 {
		t.Errorf("Expected 2 records after removal, got %d", got)
	}

	// Removal must be durable.
	reloaded := NewAnswerStore(path, log)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := reloaded.Len(); got != 2 {
		t.Errorf("Expected 2 records after reload, got %d", got)
	}
}

func TestAnswerStoreMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does_not_exist.json")
	store := NewAnswerStore(path, logger.New("test"))
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := store.Len(); got != 0 {
		t.Errorf("Expected empty store, got %d", got)
	}
}
