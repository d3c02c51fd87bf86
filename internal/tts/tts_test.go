package tts

import "testing"

func TestApplyReadings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full name", "阪口源太です", "さかぐちげんたです"},
		{"compound wins over parts", "AI町政報告会へようこそ", "AIちょうせいほうこくかいへようこそ"},
		{"surname alone", "阪口と申します", "さかぐちと申します"},
		{"no reading needed", "与那国の未来について", "与那国の未来について"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyReadings(tt.in); got != tt.want {
				t.Errorf("applyReadings(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
