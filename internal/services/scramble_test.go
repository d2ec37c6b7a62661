package services

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func sortedLetters(s string) string {
	letters := strings.Split(strings.ToLower(s), "")
	sort.Strings(letters)
	return strings.Join(letters, "")
}

func TestScramble(t *testing.T) {
	tests := []struct {
		name    string
		word    string
		changes bool
	}{
		{"Regular word", "garden", true},
		{"Two distinct letters", "abab", true},
		{"Short word", "cat", false},
		{"Single repeated letter", "aaaaa", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scramble(tt.word)
			assert.Equal(t, sortedLetters(tt.word), sortedLetters(got))
			if tt.changes {
				assert.NotEqual(t, tt.word, got)
			}
		})
	}
}

func TestScramble_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[a-z]{4,10}`).Draw(t, "word")
		got := Scramble(word)

		if sortedLetters(got) != sortedLetters(word) {
			t.Fatalf("Scramble(%q) = %q is not a permutation", word, got)
		}
		if hasDistinctLetters(word) && got == word {
			t.Fatalf("Scramble(%q) returned the word unchanged", word)
		}
	})
}
