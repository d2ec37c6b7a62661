package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/config"
	"github.com/adhyankumar740-cloud/Game/internal/handlers"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	workerCount      = 10
	workerBufferSize = 100

	msgPanic = "Oops! Something went wrong. Please try again."
)

// Updates the bot asks the platform for.
var allowedUpdates = []string{"message", "callback_query", "poll_answer"}

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	handlers *handlers.HandlerManager

	// Handler context, cancelled by Stop after the workers drain.
	ctx    context.Context
	cancel context.CancelFunc

	// Worker pool for parallel processing, hashed by user id so one user's
	// updates are handled in order.
	workerChans []chan tgbotapi.Update
	workers     sync.WaitGroup

	listener sync.WaitGroup
	server   *http.Server
	stopping chan struct{}
	stopOnce sync.Once
}

func NewBot(cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)
	return newBot(api, cfg), nil
}

func newBot(api *tgbotapi.BotAPI, cfg *config.Config) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		api:      api,
		config:   cfg,
		ctx:      ctx,
		cancel:   cancel,
		stopping: make(chan struct{}),
	}
}

// Start begins receiving updates, through a webhook server when a webhook
// URL is configured and through long polling otherwise. Handlers see ctx's
// values but keep running until Stop.
func (b *Bot) Start(ctx context.Context, h *handlers.HandlerManager) error {
	b.cancel()
	b.ctx, b.cancel = context.WithCancel(context.WithoutCancel(ctx))
	b.handlers = h

	if err := b.registerCommands(); err != nil {
		logger.Warn("Failed to register bot commands", "error", err)
	}

	b.workerChans = make([]chan tgbotapi.Update, workerCount)
	for i := range b.workerChans {
		b.workerChans[i] = make(chan tgbotapi.Update, workerBufferSize)
		b.workers.Add(1)
		go b.startWorker(b.workerChans[i])
	}

	if b.config.UseWebhook() {
		return b.startWebhook()
	}
	return b.startPolling()
}

func (b *Bot) startPolling() error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	b.listener.Add(1)
	go b.startUpdateListener()
	logger.Info("Receiving updates by long polling")
	return nil
}

func (b *Bot) startUpdateListener() {
	defer b.listener.Done()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = allowedUpdates

	for {
		logger.Info("Starting update listener...")
		if stopped := b.consume(b.api.GetUpdatesChan(u)); stopped {
			return
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		select {
		case <-b.stopping:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// consume dispatches updates until the channel closes or Stop is called. It
// does not wait for an in-flight long poll to return.
func (b *Bot) consume(updates tgbotapi.UpdatesChannel) (stopped bool) {
	for {
		select {
		case <-b.stopping:
			return true
		case update, ok := <-updates:
			if !ok {
				return false
			}
			b.dispatch(update)
		}
	}
}

func (b *Bot) startWebhook() error {
	path := "/" + b.config.BotToken
	wh, err := tgbotapi.NewWebhook(b.config.WebhookURL + path)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	wh.AllowedUpdates = allowedUpdates

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, b.serveWebhook)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	b.server = &http.Server{
		Addr:              ":" + b.config.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	b.listener.Add(1)
	go func() {
		defer b.listener.Done()
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Webhook server stopped", "error", err)
		}
	}()

	logger.Info("Receiving updates by webhook", "port", b.config.Port)
	return nil
}

func (b *Bot) serveWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		logger.Warn("Rejected webhook update", "error", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	b.dispatch(*update)
	w.WriteHeader(http.StatusOK)
}

// updateUserID returns the id of the user behind update, or 0.
func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.PollAnswer != nil:
		return update.PollAnswer.User.ID
	}
	return 0
}

// updateChatID returns the chat an error reply for update should go to.
func updateChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func workerIndex(userID int64, workers int) int {
	idx := userID % int64(workers)
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	userID := updateUserID(update)
	if userID == 0 {
		// Non-user related update, process on its own
		b.workers.Add(1)
		go func() {
			defer b.workers.Done()
			b.handleUpdate(update)
		}()
		return
	}
	b.workerChans[workerIndex(userID, len(b.workerChans))] <- update
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	defer b.workers.Done()
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r, "update_id", update.UpdateID, "stack", string(debug.Stack()))
			if chatID := updateChatID(update); chatID != 0 {
				b.SendMessage(chatID, msgPanic, nil)
			}
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(update.CallbackQuery)
	case update.PollAnswer != nil:
		b.handlers.HandlePollAnswer(b.ctx, update.PollAnswer)
	}
}

// Stop stops receiving updates and waits for queued updates to be handled.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopping)

		if b.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := b.server.Shutdown(ctx); err != nil {
				logger.Error("Failed to shut down webhook server", "error", err)
			}
		} else {
			b.api.StopReceivingUpdates()
		}
		b.listener.Wait()

		for _, ch := range b.workerChans {
			close(ch)
		}
		b.workers.Wait()
		b.cancel()
		logger.Info("Bot stopped receiving updates")
	})
}
