package services

import (
	"context"

	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"golang.org/x/time/rate"
)

// OwnerBroadcaster fans an owner message out to every active chat, paced by a
// token bucket.
type OwnerBroadcaster struct {
	chats     *repositories.ChatRepository
	messenger Messenger
	limiter   *rate.Limiter
}

func NewOwnerBroadcaster(chats *repositories.ChatRepository, messenger Messenger, ratePerSec int) *OwnerBroadcaster {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &OwnerBroadcaster{
		chats:     chats,
		messenger: messenger,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

// Broadcast sends text to every active chat. Unreachable chats are
// deactivated and counted as failed.
func (b *OwnerBroadcaster) Broadcast(ctx context.Context, text string) (BroadcastReport, error) {
	var report BroadcastReport

	chatIDs, err := b.chats.ActiveChatIDs(ctx)
	if err != nil {
		report.Aborted = true
		return report, err
	}
	report.Total = len(chatIDs)

	for _, chatID := range chatIDs {
		if err := b.limiter.Wait(ctx); err != nil {
			report.Aborted = true
			return report, err
		}

		if _, err := b.messenger.SendText(chatID, text); err != nil {
			report.Failed++
			if errors.HasCode(err, errors.ErrCodeChatUnavailable) {
				if derr := b.chats.Deactivate(ctx, chatID); derr != nil {
					logger.Error("Failed to deactivate chat", "chat_id", chatID, "error", derr)
				}
				report.Deactivated++
				continue
			}
			logger.Error("Failed to send broadcast", "chat_id", chatID, "error", err)
			continue
		}
		report.Sent++
	}

	logger.Info("Owner broadcast complete", "sent", report.Sent, "failed", report.Failed, "total", report.Total)
	return report, nil
}
