package brain

import (
	"strings"
	"testing"
)

func TestBuildSystemPromptIncludesRetrievedContext(t *testing.T) {
	prompt := buildSystemPrompt(
		[]string{"人口は約1700人です", "保育園は2か所です"},
		[]string{"与那国町の基礎データ"},
	)
	for _, want := range []string{"人口は約1700人です", "保育園は2か所です", "与那国町の基礎データ", "阪口源太", "primary_emotion"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt is missing %q", want)
		}
	}
}

func TestBuildSystemPromptWithEmptyRetrieval(t *testing.T) {
	prompt := buildSystemPrompt(nil, nil)
	if !strings.Contains(prompt, "回答例なし") {
		t.Error("Prompt should mark missing answer examples")
	}
	if !strings.Contains(prompt, "関連情報なし") {
		t.Error("Prompt should mark missing knowledge")
	}
}

func TestCleanReply(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"こんにちは。。。元気です。", "こんにちは。元気です。"},
		{"こんにちは。。", "こんにちは。"},
		{"こんにちは。", "こんにちは。"},
	}
	for _, tt := range tests {
		if got := cleanReply(tt.in); got != tt.want {
			t.Errorf("cleanReply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
