package services

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/adhyankumar740-cloud/Game/internal/database"
	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testLeaseSecret = "services_test_secret_with_32_chars!"

type testEnv struct {
	db        *gorm.DB
	values    *repositories.BotValueRepository
	users     *repositories.UserRepository
	chats     *repositories.ChatRepository
	questions *repositories.QuestionRepository
	messenger *MockMessenger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &testEnv{
		db:        db,
		values:    repositories.NewBotValueRepository(db, testLeaseSecret),
		users:     repositories.NewUserRepository(db),
		chats:     repositories.NewChatRepository(db),
		questions: repositories.NewQuestionRepository(db),
		messenger: NewMockMessenger(gomock.NewController(t)),
	}
}

// staticTrivia returns the same item on every call, or err when set.
type staticTrivia struct {
	mu    sync.Mutex
	item  models.QuizItem
	err   error
	calls int
}

func (s *staticTrivia) FetchQuiz(ctx context.Context) (models.QuizItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return models.QuizItem{}, s.err
	}
	return s.item, nil
}

func sampleQuiz() models.QuizItem {
	return models.QuizItem{
		Question:        "What is the capital of France?",
		Options:         []string{"Rome", "Paris", "Berlin", "Madrid"},
		CorrectOptionID: 1,
	}
}

type staticWords struct {
	word string
	err  error
}

func (s staticWords) RandomWord(ctx context.Context) (string, error) {
	return s.word, s.err
}

// textContaining matches a message body holding every fragment.
type textContaining []string

func (m textContaining) Matches(x interface{}) bool {
	text, ok := x.(string)
	if !ok {
		return false
	}
	for _, fragment := range m {
		if !strings.Contains(text, fragment) {
			return false
		}
	}
	return true
}

func (m textContaining) String() string {
	return "text containing " + strings.Join(m, ", ")
}
