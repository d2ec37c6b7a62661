package utils

import (
	"testing"
	"time"
)

func TestNormalizeGuess(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"garden", "garden"},
		{"  GaRdEn \n", "garden"},
		{"GARDEN", "garden"},
		{"gar den", "gar den"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeGuess(tt.input); got != tt.want {
			t.Errorf("NormalizeGuess(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"Short enough", "hello", 10, "hello"},
		{"Exact", "hello", 5, "hello"},
		{"Cut", "hello world", 6, "hello…"},
		{"Multibyte", "héllo wörld", 4, "hél…"},
		{"No limit", "hello", 0, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.limit); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpacedUpper(t *testing.T) {
	if got := SpacedUpper("garden"); got != "G A R D E N" {
		t.Errorf("SpacedUpper() = %q", got)
	}
}

func TestRandomDuration(t *testing.T) {
	min, max := 5*time.Second, 15*time.Second
	for i := 0; i < 200; i++ {
		d := RandomDuration(min, max)
		if d < min || d > max {
			t.Fatalf("RandomDuration() = %v, want within [%v, %v]", d, min, max)
		}
	}

	if d := RandomDuration(time.Second, time.Second); d != time.Second {
		t.Errorf("RandomDuration(equal bounds) = %v, want 1s", d)
	}
	if d := RandomDuration(0, 0); d != 0 {
		t.Errorf("RandomDuration(0, 0) = %v, want 0", d)
	}
}
