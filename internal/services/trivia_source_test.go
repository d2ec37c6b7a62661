package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adhyankumar740-cloud/Game/internal/database"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewQuizItem(t *testing.T) {
	item, err := NewQuizItem(
		"Which planet is known as the &quot;Red Planet&quot;?",
		"Mars",
		[]string{"Venus", "Mars", "Jupiter", "", "Saturn"},
	)
	require.NoError(t, err)

	assert.Equal(t, `Which planet is known as the "Red Planet"?`, item.Question)
	assert.Len(t, item.Options, 4, "duplicates and blanks are dropped")
	assert.Equal(t, "Mars", item.CorrectAnswer())
}

func TestNewQuizItem_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		correct   string
		incorrect []string
	}{
		{"No question", "", "Mars", []string{"Venus"}},
		{"No answer", "Which planet?", "", []string{"Venus"}},
		{"Single option", "Which planet?", "Mars", []string{"Mars"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuizItem(tt.question, tt.correct, tt.incorrect)
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidation), "got %v", err)
		})
	}
}

func TestNewQuizItem_CorrectIndexProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		wrong := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,8}`), 1, 5, rapid.ID[string]).Draw(t, "wrong")
		item, err := NewQuizItem("question?", "ANSWER", wrong)
		if err != nil {
			t.Fatalf("NewQuizItem: %v", err)
		}
		if item.CorrectAnswer() != "ANSWER" {
			t.Fatalf("correct index %d points at %q", item.CorrectOptionID, item.CorrectAnswer())
		}
	})
}

func TestOpenTDBSource_FetchQuiz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"response_code":0,"results":[{"question":"2 &amp; 2 = ?","correct_answer":"4","incorrect_answers":["3","5","22"]}]}`)
	}))
	defer srv.Close()

	item, err := NewOpenTDBSource(srv.URL).FetchQuiz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2 & 2 = ?", item.Question)
	assert.Len(t, item.Options, 4)
	assert.Equal(t, "4", item.CorrectAnswer())
}

func TestOpenTDBSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"Server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"No results", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"response_code":1,"results":[]}`)
		}},
		{"Bad JSON", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewOpenTDBSource(srv.URL).FetchQuiz(context.Background())
			assert.True(t, errors.HasCode(err, errors.ErrCodeUpstream), "got %v", err)
		})
	}
}

func TestFallbackSource_UsesQuestionBank(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, database.SeedQuestions(env.db))

	primary := &staticTrivia{err: fmt.Errorf("trivia API down")}
	source := NewFallbackSource(primary, NewBankSource(env.questions))

	item, err := source.FetchQuiz(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, item.Question)
	assert.GreaterOrEqual(t, len(item.Options), 2)
	assert.Equal(t, 1, primary.calls)
}

func TestFallbackSource_PrefersPrimary(t *testing.T) {
	primary := &staticTrivia{item: sampleQuiz()}
	fallback := &staticTrivia{err: fmt.Errorf("must not be called")}

	item, err := NewFallbackSource(primary, fallback).FetchQuiz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Paris", item.CorrectAnswer())
	assert.Zero(t, fallback.calls)
}
