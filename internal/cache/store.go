package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"AIAvatar/internal/models"
	"AIAvatar/pkg/logger"

	"github.com/google/uuid"
)

// storeEntry keeps both the decoded record and the original JSON bytes. The
// raw bytes are what get written back, so fields this version of the code
// does not know about survive a read-modify-write cycle. rec is nil for
// entries that could not be decoded; they are skipped by LoadAll but still
// preserved on rewrite for the operator to fix by hand.
type storeEntry struct {
	rec *models.QuestionRecord
	raw json.RawMessage
}

// AnswerStore is the durable question→answer mapping behind the cache: a flat
// JSON array file (faq_cache.json) that operators can inspect and curate in a
// text editor. Every mutation rewrites the file atomically (temp file + rename
// + fsync) so a crash can not lose an entry the caller was told is saved.
type AnswerStore struct {
	path string
	log  *logger.Logger

	mu      sync.Mutex
	entries []storeEntry
}

// NewAnswerStore creates a store over the JSON file at path. Call Load before
// first use.
func NewAnswerStore(path string, log *logger.Logger) *AnswerStore {
	return &AnswerStore{path: path, log: log}
}

// Load reads the cache file into memory. A missing file is an empty store. A
// file that is not valid JSON at the top level is moved aside (never silently
// overwritten) and the store starts empty. Individual entries that fail to
// decode are skipped with a warning and kept as raw bytes.
func (s *AnswerStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.entries = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read answer store '%s': %w", s.path, err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
		if renameErr := os.Rename(s.path, aside); renameErr != nil {
			return fmt.Errorf("answer store '%s' is corrupt and could not be moved aside: %v (decode error: %w)", s.path, renameErr, err)
		}
		s.log.WithError(models.ErrorInfo{Message: err.Error()}).
			Warn(fmt.Sprintf("Answer store is not valid JSON; moved to %s and starting empty", aside))
		s.entries = nil
		return nil
	}

	entries := make([]storeEntry, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		rec := decodeRecord(raw)
		if rec == nil {
			skipped++
			s.log.Warn(fmt.Sprintf("Skipping unreadable answer store entry %d", i))
		}
		entries = append(entries, storeEntry{rec: rec, raw: raw})
	}
	s.entries = entries

	if skipped > 0 {
		s.log.Warn(fmt.Sprintf("Answer store loaded with %d unreadable entries skipped (%d usable)", skipped, len(entries)-skipped))
	}
	return nil
}

// decodeRecord decodes one store entry, returning nil when the entry is
// malformed or lacks the fields a lookup needs.
func decodeRecord(raw json.RawMessage) *models.QuestionRecord {
	var rec models.QuestionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	if rec.Question == "" || len(rec.Embedding) == 0 {
		return nil
	}
	if rec.ID == "" {
		// Hand-curated entries may lack IDs. The ID only correlates the
		// index with the store inside one process, so a fresh one is fine.
		rec.ID = uuid.New().String()
	}
	return &rec
}

// LoadAll returns all readable records in file order. Used once at startup to
// rebuild the vector index.
func (s *AnswerStore) LoadAll() []*models.QuestionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*models.QuestionRecord, 0, len(s.entries))
	for _, e := range s.entries {
		if e.rec != nil {
			records = append(records, e.rec)
		}
	}
	return records
}

// Get returns the record with the given ID.
func (s *AnswerStore) Get(id string) (*models.QuestionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.rec != nil && e.rec.ID == id {
			return e.rec, true
		}
	}
	return nil, false
}

// Len reports the number of readable records.
func (s *AnswerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.rec != nil {
			n++
		}
	}
	return n
}

// Append persists a new record. The write is flushed before Append returns;
// on error the in-memory state is rolled back and the file is untouched.
func (s *AnswerStore) Append(rec *models.QuestionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, storeEntry{rec: rec, raw: raw})
	if err := s.rewriteLocked(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return fmt.Errorf("failed to persist record: %w", err)
	}
	return nil
}

// Remove deletes the record with the given ID. Used to roll back a cache
// write whose index half failed.
func (s *AnswerStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.rec != nil && e.rec.ID == id {
			removed := e
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			if err := s.rewriteLocked(); err != nil {
				// Put it back; the file still holds the old content.
				s.entries = append(s.entries[:i], append([]storeEntry{removed}, s.entries[i:]...)...)
				return fmt.Errorf("failed to persist removal: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("record %s not found", id)
}

// rewriteLocked writes the full entry list atomically. Assumes the lock is
// held.
func (s *AnswerStore) rewriteLocked() error {
	raws := make([]json.RawMessage, len(s.entries))
	for i, e := range s.entries {
		raws[i] = e.raw
	}
	data, err := json.MarshalIndent(raws, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".faq_cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
