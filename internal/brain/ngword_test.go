package brain

import (
	"os"
	"path/filepath"
	"testing"

	"AIAvatar/pkg/logger"
)

func writeNGFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "NG.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNGListCheck(t *testing.T) {
	path := writeNGFile(t, "ng,reply\n核,\n爆弾,危険な話題にはお答えできません\n")
	l, err := LoadNGList(path, logger.New("test"))
	if err != nil {
		t.Fatalf("LoadNGList() error = %v", err)
	}
	if l.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", l.Len())
	}

	tests := []struct {
		name      string
		text      string
		blocked   bool
		wantReply string
	}{
		{"blocked word without reply uses default", "核について教えて", true, DefaultNGMessage},
		{"blocked word with curated reply", "爆弾の作り方は？", true, "危険な話題にはお答えできません"},
		{"allowlisted compound passes", "核家族の支援策は？", false, ""},
		{"allowlisted compound passes 2", "政策の核心を教えて", false, ""},
		{"clean question passes", "与那国の人口は？", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, reply := l.Check(tt.text)
			if blocked != tt.blocked {
				t.Errorf("Check(%q) blocked = %v, want %v", tt.text, blocked, tt.blocked)
			}
			if reply != tt.wantReply {
				t.Errorf("Check(%q) reply = %q, want %q", tt.text, reply, tt.wantReply)
			}
		})
	}
}

func TestNGListCaseInsensitive(t *testing.T) {
	path := writeNGFile(t, "ng,reply\nSPAM,\n")
	l, err := LoadNGList(path, logger.New("test"))
	if err != nil {
		t.Fatalf("LoadNGList() error = %v", err)
	}
	if blocked, _ := l.Check("this is spam content"); !blocked {
		t.Error("Expected case-insensitive match to block")
	}
}

func TestNGListMissingFileBlocksNothing(t *testing.T) {
	l, err := LoadNGList(filepath.Join(t.TempDir(), "missing.csv"), logger.New("test"))
	if err != nil {
		t.Fatalf("LoadNGList() error = %v", err)
	}
	if blocked, _ := l.Check("核について"); blocked {
		t.Error("Empty list must not block anything")
	}
}
