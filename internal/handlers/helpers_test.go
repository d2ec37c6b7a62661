package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/config"
	"github.com/adhyankumar740-cloud/Game/internal/database"
	"github.com/adhyankumar740-cloud/Game/internal/middleware"
	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/internal/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testOwnerID  = int64(1000)
	testGroupID  = int64(-100)
	testSecret   = "handlers_test_secret_with_32_chars!"
	testBotName  = "QuizBot"
	groupTitle   = "Trivia Night"
	welcomeVidA  = "video-a"
	welcomeVidB  = "video-b"
	hustleAnswer = "garden"
)

type sentMessage struct {
	Kind      string
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  interface{}
	Media     string
	Data      []byte
}

// fakeBot records everything the handlers and services send.
type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	edits    []sentMessage
	deleted  []int
	answers  []string
	polls    []int64
	editErr  error
	mediaErr bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{nextID: 100}
}

func (b *fakeBot) record(msg sentMessage) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	msg.MessageID = b.nextID
	b.sent = append(b.sent, msg)
	return msg.MessageID
}

func (b *fakeBot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.record(sentMessage{Kind: "text", ChatID: chatID, Text: text, Keyboard: keyboard})
}

func (b *fakeBot) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editErr != nil {
		return b.editErr
	}
	b.edits = append(b.edits, sentMessage{Kind: "edit", ChatID: chatID, MessageID: messageID, Text: text, Keyboard: keyboard})
	return nil
}

func (b *fakeBot) DeleteMessage(chatID int64, messageID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, messageID)
}

func (b *fakeBot) SendPhoto(chatID int64, photo string, caption string) int {
	if b.failMedia() {
		return 0
	}
	return b.record(sentMessage{Kind: "photo", ChatID: chatID, Text: caption, Media: photo})
}

func (b *fakeBot) SendVideo(chatID int64, videoID string, caption string) int {
	if b.failMedia() {
		return 0
	}
	return b.record(sentMessage{Kind: "video", ChatID: chatID, Text: caption, Media: videoID})
}

func (b *fakeBot) SendDocument(chatID int64, fileName string, data []byte, caption string) int {
	return b.record(sentMessage{Kind: "document", ChatID: chatID, Text: caption, Media: fileName, Data: data})
}

func (b *fakeBot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answers = append(b.answers, text)
}

func (b *fakeBot) BotName() string { return testBotName }

func (b *fakeBot) SendText(chatID int64, text string) (int, error) {
	return b.SendMessage(chatID, text, nil), nil
}

func (b *fakeBot) EditText(chatID int64, messageID int, text string) error {
	return b.EditMessage(chatID, messageID, text, nil)
}

func (b *fakeBot) SendQuizPoll(chatID int64, quiz models.QuizItem, openPeriod time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls = append(b.polls, chatID)
	return fmt.Sprintf("poll%d", chatID), nil
}

func (b *fakeBot) failMedia() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mediaErr
}

func (b *fakeBot) messages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.sent...)
}

func (b *fakeBot) pollChats() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.polls...)
}

// lastText returns the most recent message sent to chatID.
func (b *fakeBot) lastText(chatID int64) string {
	msgs := b.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ChatID == chatID {
			return msgs[i].Text
		}
	}
	return ""
}

func (b *fakeBot) countContaining(fragment string) int {
	n := 0
	for _, msg := range b.messages() {
		if strings.Contains(msg.Text, fragment) {
			n++
		}
	}
	return n
}

type stubTrivia struct{}

func (stubTrivia) FetchQuiz(ctx context.Context) (models.QuizItem, error) {
	return models.QuizItem{
		Question:        "Which planet is known as the Red Planet?",
		Options:         []string{"Venus", "Mars", "Jupiter"},
		CorrectOptionID: 1,
	}, nil
}

type stubWords struct{}

func (stubWords) RandomWord(ctx context.Context) (string, error) {
	return hustleAnswer, nil
}

type testManager struct {
	*HandlerManager
	bot    *fakeBot
	values *repositories.BotValueRepository
}

func testConfig() *config.Config {
	return &config.Config{
		OwnerID:               testOwnerID,
		LeaseSecret:           testSecret,
		WelcomeVideoIDs:       []string{welcomeVidA, welcomeVidB},
		StableHordeKey:        config.AnonymousStableHordeKey,
		QuizCooldownSeconds:   600,
		QuizOpenPeriodSeconds: 600,
		QuizLockTTLSeconds:    60,
		HustleTimeoutSeconds:  3600,
		SpamMessageLimit:      5,
		SpamTimeWindowSeconds: 5,
		SpamBlockSeconds:      1200,
	}
}

func newTestManager(t *testing.T, cfg *config.Config, images services.ImageConfig) *testManager {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	ctx, cancel := context.WithCancel(context.Background())
	bot := newFakeBot()

	values := repositories.NewBotValueRepository(db, cfg.LeaseSecret)
	users := repositories.NewUserRepository(db)
	chats := repositories.NewChatRepository(db)

	broadcast := services.NewBroadcastService(ctx, values, chats, stubTrivia{}, bot, services.BroadcastConfig{
		Cooldown:   cfg.QuizCooldown(),
		LeaseTTL:   cfg.QuizLockTTL(),
		OpenPeriod: cfg.QuizOpenPeriod(),
	})
	hustle := services.NewHustleService(ctx, values, users, stubWords{}, bot, cfg.HustleTimeout())

	h := NewHandlerManager(
		cfg,
		users,
		chats,
		values,
		broadcast,
		services.NewQuizResolver(values, users, bot),
		hustle,
		services.NewSpamGuard(users, bot, cfg.SpamMessageLimit, cfg.SpamTimeWindow(), cfg.SpamBlockDuration()),
		services.NewImageService(images),
		services.NewOwnerBroadcaster(chats, bot, 100),
		services.NewScoreExporter(users),
		middleware.NewRateLimiter(1, time.Minute),
	)

	t.Cleanup(func() {
		cancel()
		h.Wait()
		broadcast.Wait()
		hustle.Wait()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &testManager{HandlerManager: h, bot: bot, values: values}
}

func tgUser(id int64, firstName string) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: firstName}
}

func groupChat(id int64) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: id, Type: models.ChatTypeSupergroup, Title: groupTitle}
}

func textMessage(chat *tgbotapi.Chat, from *tgbotapi.User, text string) *tgbotapi.Message {
	return &tgbotapi.Message{MessageID: 1, Chat: chat, From: from, Text: text}
}

// commandMessage builds a message whose text starts with a bot command, as
// the platform delivers it.
func commandMessage(chat *tgbotapi.Chat, from *tgbotapi.User, text string) *tgbotapi.Message {
	command := strings.SplitN(text, " ", 2)[0]
	msg := textMessage(chat, from, text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return msg
}
