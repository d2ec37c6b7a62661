package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/config"
	"github.com/adhyankumar740-cloud/Game/internal/middleware"
	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/internal/services"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
)

// Bot interface to avoid circular dependency
type BotInterface interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
	EditMessage(chatID int64, messageID int, text string, keyboard interface{}) error
	DeleteMessage(chatID int64, messageID int)
	SendPhoto(chatID int64, photo string, caption string) int
	SendVideo(chatID int64, videoID string, caption string) int
	SendDocument(chatID int64, fileName string, data []byte, caption string) int
	AnswerCallbackQuery(queryID string, text string, showAlert bool)
	BotName() string
}

const msgGenericError = "❌ Something went wrong. Please try again later."

type HandlerManager struct {
	Config           *config.Config
	UserRepo         *repositories.UserRepository
	ChatRepo         *repositories.ChatRepository
	ValueRepo        *repositories.BotValueRepository
	Broadcast        *services.BroadcastService
	Resolver         *services.QuizResolver
	Hustle           *services.HustleService
	SpamGuard        *services.SpamGuard
	Images           *services.ImageService
	OwnerBroadcaster *services.OwnerBroadcaster
	Exporter         *services.ScoreExporter
	Limiter          *middleware.RateLimiter

	now func() time.Time

	// long-running command work (image generation, owner broadcast)
	background sync.WaitGroup
}

func NewHandlerManager(
	cfg *config.Config,
	userRepo *repositories.UserRepository,
	chatRepo *repositories.ChatRepository,
	valueRepo *repositories.BotValueRepository,
	broadcastSvc *services.BroadcastService,
	resolver *services.QuizResolver,
	hustleSvc *services.HustleService,
	spamGuard *services.SpamGuard,
	imageSvc *services.ImageService,
	ownerBroadcaster *services.OwnerBroadcaster,
	exporter *services.ScoreExporter,
	limiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		Config:           cfg,
		UserRepo:         userRepo,
		ChatRepo:         chatRepo,
		ValueRepo:        valueRepo,
		Broadcast:        broadcastSvc,
		Resolver:         resolver,
		Hustle:           hustleSvc,
		SpamGuard:        spamGuard,
		Images:           imageSvc,
		OwnerBroadcaster: ownerBroadcaster,
		Exporter:         exporter,
		Limiter:          limiter,
		now:              time.Now,
	}
}

// Wait blocks until background command work has finished.
func (h *HandlerManager) Wait() {
	h.background.Wait()
}

func (h *HandlerManager) goBackground(fn func()) {
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		fn()
	}()
}

// ObserveChat records a group as an active broadcast target.
func (h *HandlerManager) ObserveChat(ctx context.Context, chatID int64, chatType, title string) {
	if !models.IsGroupChat(chatType) {
		return
	}
	if err := h.ChatRepo.Register(ctx, chatID, title); err != nil {
		logger.Warn("Failed to register chat", "chat_id", chatID, "error", err)
	}
}

// isBlocked reports whether userID is serving a spam block. Lookup failures
// count as not blocked.
func (h *HandlerManager) isBlocked(ctx context.Context, userID int64) bool {
	user, err := h.UserRepo.GetUser(ctx, userID)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeNotFound) {
			logger.Warn("Failed to load user for block check", "user_id", userID, "error", err)
		}
		return false
	}
	return user.IsSpamBlocked(h.now())
}
