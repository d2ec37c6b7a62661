package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
)

// Word Hustle word length bounds.
const (
	MinWordLength = 5
	MaxWordLength = 10
)

// WordSource yields one lowercase word for a Word Hustle round.
type WordSource interface {
	RandomWord(ctx context.Context) (string, error)
}

// RandomWordAPI draws words from a JSON endpoint returning ["word"], retrying
// until one fits the length bounds.
type RandomWordAPI struct {
	client      *http.Client
	url         string
	maxAttempts int
}

func NewRandomWordAPI(url string) *RandomWordAPI {
	return &RandomWordAPI{
		client:      &http.Client{Timeout: 5 * time.Second},
		url:         url,
		maxAttempts: 5,
	}
}

// acceptableWord reports whether word is plain lowercase letters within bounds.
func acceptableWord(word string) bool {
	n := utf8.RuneCountInString(word)
	if n < MinWordLength || n > MaxWordLength {
		return false
	}
	for _, r := range word {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func (s *RandomWordAPI) RandomWord(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		word, err := s.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			logger.Warn("Random word request failed", "attempt", attempt, "error", err)
			continue
		}
		if acceptableWord(word) {
			return word, nil
		}
		logger.Debug("Rejected random word", "word", word, "attempt", attempt)
	}

	if lastErr != nil {
		return "", errors.Wrap(lastErr, errors.ErrCodeUpstream, "could not fetch a word")
	}
	return "", errors.New(errors.ErrCodeUpstream, "no suitable word after retries")
}

func (s *RandomWordAPI) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("word API returned %d", resp.StatusCode)
	}

	var words []string
	if err := json.NewDecoder(resp.Body).Decode(&words); err != nil {
		return "", fmt.Errorf("decode word response: %w", err)
	}
	if len(words) == 0 {
		return "", fmt.Errorf("word API returned no words")
	}
	return strings.ToLower(strings.TrimSpace(words[0])), nil
}
