package services

import (
	"math/rand"
	"strings"
	"unicode"
)

// Scramble shuffles the letters of word. Words longer than three letters come
// back different from the original (ignoring case) unless every letter is the
// same, in which case no different arrangement exists.
func Scramble(word string) string {
	letters := []rune(word)
	shuffle := func() string {
		rand.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })
		return string(letters)
	}

	if len(letters) <= 3 || !hasDistinctLetters(word) {
		return shuffle()
	}

	for {
		if scrambled := shuffle(); !strings.EqualFold(scrambled, word) {
			return scrambled
		}
	}
}

func hasDistinctLetters(word string) bool {
	var first rune
	for i, r := range []rune(word) {
		r = unicode.ToLower(r)
		if i == 0 {
			first = r
			continue
		}
		if r != first {
			return true
		}
	}
	return false
}
