package services

import (
	"context"
	"fmt"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
)

// SpamGuard blocks users who post too many group messages in a short window.
type SpamGuard struct {
	users     *repositories.UserRepository
	messenger Messenger
	limit     int
	window    time.Duration
	block     time.Duration
	now       func() time.Time
}

func NewSpamGuard(users *repositories.UserRepository, messenger Messenger, limit int, window, block time.Duration) *SpamGuard {
	return &SpamGuard{
		users:     users,
		messenger: messenger,
		limit:     limit,
		window:    window,
		block:     block,
		now:       time.Now,
	}
}

// Check records one message from userID and reports whether the user is
// blocked. The user is told once, when the block starts.
func (g *SpamGuard) Check(ctx context.Context, chatID, userID int64, firstName, username string) (bool, error) {
	now := g.now()
	blocked, justBlocked := false, false

	err := g.users.UpdateSpamState(ctx, userID, firstName, username, func(user *models.User) error {
		if user.IsSpamBlocked(now) {
			blocked = true
			return nil
		}
		if user.RecordMessage(now, g.window) >= g.limit {
			user.SpamBlockedUntil = models.EpochSeconds(now.Add(g.block))
			user.SpamTimestamps = []float64{}
			blocked, justBlocked = true, true
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if justBlocked {
		logger.Info("User blocked for spamming", "user_id", userID, "chat_id", chatID)
		text := fmt.Sprintf("%s <b>You are blocked for %d min for spamming!</b>",
			MentionHTML(userID, firstName), int(g.block.Minutes()))
		if _, err := g.messenger.SendText(chatID, text); err != nil {
			logger.Warn("Failed to send spam notice", "chat_id", chatID, "error", err)
		}
	}
	return blocked, nil
}
