package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/config"
	"github.com/adhyankumar740-cloud/Game/internal/database"
	"github.com/adhyankumar740-cloud/Game/internal/handlers"
	"github.com/adhyankumar740-cloud/Game/internal/middleware"
	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/internal/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testToken   = "test-token"
	testGroupID = int64(-100)
	testSecret  = "telegram_test_secret_with_32_chars"
)

type apiCall struct {
	Method string
	Form   url.Values
}

// fakeAPI is a minimal Bot API server. Calls are recorded and answered with
// canned results; fail overrides the response for a method.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	nextID int
	fail   map[string]string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		_ = r.ParseMultipartForm(1 << 20)
	} else {
		_ = r.ParseForm()
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Form: r.Form})
	f.nextID++
	id := f.nextID
	failure, failed := f.fail[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failed {
		fmt.Fprint(w, failure)
		return
	}

	chatID := r.Form.Get("chat_id")
	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"QuizBot","username":"quiz_bot"}}`)
	case "sendMessage", "sendPhoto", "sendVideo", "sendDocument":
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":%s}}}`, id, chatID)
	case "sendPoll":
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":%s},"poll":{"id":"poll-%d","question":"q","options":[],"type":"quiz"}}}`, id, chatID, id)
	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		BotToken:              testToken,
		Port:                  "0",
		LeaseSecret:           testSecret,
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

func newTestBot(t *testing.T, cfg *config.Config) (*Bot, *fakeAPI) {
	t.Helper()

	api := &fakeAPI{fail: map[string]string{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	return newBot(client, cfg), api
}

type stubTrivia struct{}

func (stubTrivia) FetchQuiz(ctx context.Context) (models.QuizItem, error) {
	return models.QuizItem{Question: "2 + 2?", Options: []string{"4", "5"}, CorrectOptionID: 0}, nil
}

type stubWords struct{}

func (stubWords) RandomWord(ctx context.Context) (string, error) { return "garden", nil }

// newTestHandlers wires a handler manager on SQLite that talks to b.
func newTestHandlers(t *testing.T, b *Bot) *handlers.HandlerManager {
	t.Helper()
	cfg := b.config

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	ctx, cancel := context.WithCancel(context.Background())
	values := repositories.NewBotValueRepository(db, cfg.LeaseSecret)
	users := repositories.NewUserRepository(db)
	chats := repositories.NewChatRepository(db)

	broadcast := services.NewBroadcastService(ctx, values, chats, stubTrivia{}, b, services.BroadcastConfig{
		Cooldown:   cfg.QuizCooldown(),
		LeaseTTL:   cfg.QuizLockTTL(),
		OpenPeriod: cfg.QuizOpenPeriod(),
	})
	hustle := services.NewHustleService(ctx, values, users, stubWords{}, b, cfg.HustleTimeout())

	h := handlers.NewHandlerManager(
		cfg, users, chats, values, broadcast,
		services.NewQuizResolver(values, users, b),
		hustle,
		services.NewSpamGuard(users, b, cfg.SpamMessageLimit, cfg.SpamTimeWindow(), cfg.SpamBlockDuration()),
		services.NewImageService(services.ImageConfig{}),
		services.NewOwnerBroadcaster(chats, b, 100),
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
	return h
}

func commandUpdate(chatID, userID int64, text string) tgbotapi.Update {
	command := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: userID, FirstName: "Asha"},
			Chat:      &tgbotapi.Chat{ID: chatID, Type: models.ChatTypeSupergroup, Title: "Trivia Night"},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}},
		},
	}
}
