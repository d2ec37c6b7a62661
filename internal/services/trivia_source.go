package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/internal/security"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
)

// TriviaSource yields one ready-to-send quiz item per call.
type TriviaSource interface {
	FetchQuiz(ctx context.Context) (models.QuizItem, error)
}

// NewQuizItem shuffles the correct answer in among the incorrect ones and
// records where it landed.
func NewQuizItem(question, correct string, incorrect []string) (models.QuizItem, error) {
	question = security.PlainText(question)
	correct = security.PlainText(correct)
	if question == "" || correct == "" {
		return models.QuizItem{}, errors.New(errors.ErrCodeValidation, "question and answer are required")
	}

	options := []string{correct}
	for _, answer := range incorrect {
		if answer = security.PlainText(answer); answer != "" && answer != correct {
			options = append(options, answer)
		}
	}
	if len(options) < 2 {
		return models.QuizItem{}, errors.New(errors.ErrCodeValidation, "a quiz needs at least two options")
	}

	correctIdx := 0
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
		switch correctIdx {
		case i:
			correctIdx = j
		case j:
			correctIdx = i
		}
	})

	return models.QuizItem{Question: question, Options: options, CorrectOptionID: correctIdx}, nil
}

// OpenTDBSource fetches multiple-choice questions from the Open Trivia DB.
type OpenTDBSource struct {
	client *http.Client
	url    string
}

func NewOpenTDBSource(url string) *OpenTDBSource {
	return &OpenTDBSource{client: &http.Client{Timeout: 5 * time.Second}, url: url}
}

type openTDBResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

func (s *OpenTDBSource) FetchQuiz(ctx context.Context) (models.QuizItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return models.QuizItem{}, errors.Wrap(err, errors.ErrCodeInternalError, "failed to build trivia request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.QuizItem{}, errors.Wrap(err, errors.ErrCodeUpstream, "trivia request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.QuizItem{}, errors.New(errors.ErrCodeUpstream, fmt.Sprintf("trivia API returned %d", resp.StatusCode))
	}

	var payload openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.QuizItem{}, errors.Wrap(err, errors.ErrCodeUpstream, "failed to decode trivia response")
	}
	if payload.ResponseCode != 0 || len(payload.Results) == 0 {
		return models.QuizItem{}, errors.New(errors.ErrCodeUpstream, fmt.Sprintf("trivia API response code %d", payload.ResponseCode))
	}

	q := payload.Results[0]
	return NewQuizItem(q.Question, q.CorrectAnswer, q.IncorrectAnswers)
}

// BankSource draws questions from the local questions table.
type BankSource struct {
	questions *repositories.QuestionRepository
}

func NewBankSource(questions *repositories.QuestionRepository) *BankSource {
	return &BankSource{questions: questions}
}

func (s *BankSource) FetchQuiz(ctx context.Context) (models.QuizItem, error) {
	q, err := s.questions.RandomQuestion(ctx)
	if err != nil {
		return models.QuizItem{}, err
	}
	return NewQuizItem(q.QuestionText, q.CorrectAnswer, q.IncorrectAnswers)
}

// FallbackSource tries primary first and falls back on any error.
type FallbackSource struct {
	primary  TriviaSource
	fallback TriviaSource
}

func NewFallbackSource(primary, fallback TriviaSource) *FallbackSource {
	return &FallbackSource{primary: primary, fallback: fallback}
}

func (s *FallbackSource) FetchQuiz(ctx context.Context) (models.QuizItem, error) {
	item, err := s.primary.FetchQuiz(ctx)
	if err == nil {
		return item, nil
	}
	if ctx.Err() != nil {
		return models.QuizItem{}, ctx.Err()
	}

	logger.Warn("Primary trivia source failed, using local bank", "error", err)
	return s.fallback.FetchQuiz(ctx)
}
