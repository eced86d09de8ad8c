package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Silk", "silk"},
		{"Kanjivaram Silk & Zari", "kanjivaram-silk-zari"},
		{"  Cotton  Handloom ", "cotton-handloom"},
		{"Banarasi--2024", "banarasi-2024"},
		{"!!!", ""},
		{"Chanderi (Pure)", "chanderi-pure"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
