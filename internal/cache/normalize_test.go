package cache

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips japanese punctuation", "何歳ですか？", "何歳ですか"},
		{"strips ascii punctuation and space", "How old are you?", "howoldareyou"},
		{"folds full-width ascii", "ＡＢＣ１２３", "abc123"},
		{"strips mixed whitespace", "おいくつ　です か", "おいくつですか"},
		{"empty input", "", ""},
		{"punctuation only", "！？…。", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	// Pairs that must collapse to the same key, the property the exact-match
	// tier of the legacy FAQ cache relied on.
	pairs := [][2]string{
		{"与那国馬活用プロジェクトの進捗は？", "与那国馬活用プロジェクトの進捗は"},
		{"ＤＸの推進について", "dxの推進について"},
		{"何歳 ですか？", "何歳ですか"},
	}
	for _, p := range pairs {
		if Normalize(p[0]) != Normalize(p[1]) {
			t.Errorf("Normalize(%q) != Normalize(%q)", p[0], p[1])
		}
	}
}
