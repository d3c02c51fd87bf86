package audiostore

import (
	"bytes"
	"context"
	"testing"

	"AIAvatar/pkg/logger"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), logger.New("test"))
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	ctx := context.Background()

	data := []byte("fake mp3 bytes")
	ref, err := store.Put(ctx, "a1.mp3", data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if ref != "a1.mp3" {
		t.Errorf("Expected reference a1.mp3, got %q", ref)
	}

	got, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Retrieved audio differs from stored audio")
	}
}

func TestLocalStoreRejectsEscapingReferences(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), logger.New("test"))
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	ctx := context.Background()

	for _, ref := range []string{"", "../etc/passwd", "a/b.mp3", "..\\x.mp3"} {
		if _, err := store.Get(ctx, ref); err == nil {
			t.Errorf("Get(%q) should have been rejected", ref)
		}
		if _, err := store.Put(ctx, ref, []byte("x")); err == nil {
			t.Errorf("Put(%q) should have been rejected", ref)
		}
	}
}

func TestLocalStoreMissingReference(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), logger.New("test"))
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	if _, err := store.Get(context.Background(), "nope.mp3"); err == nil {
		t.Error("Expected an error for a missing reference")
	}
}
