package handlers

import (
	"context"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/services"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleGroupMessage runs every plain group text message through the spam
// guard, records the chat, may trigger the global quiz broadcast and checks
// the text as a Word Hustle guess.
func (h *HandlerManager) HandleGroupMessage(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	if message.From == nil || message.From.IsBot || message.Text == "" || !models.IsGroupChat(message.Chat.Type) {
		return
	}
	chatID, user := message.Chat.ID, message.From

	blocked, err := h.SpamGuard.Check(ctx, chatID, user.ID, user.FirstName, user.UserName)
	if err != nil {
		logger.Error("Spam check failed", "user_id", user.ID, "error", err)
		blocked = false
	}

	h.ObserveChat(ctx, chatID, message.Chat.Type, message.Chat.Title)

	if blocked {
		return
	}

	if _, err := h.Broadcast.MaybeTrigger(ctx, user.ID); err != nil {
		logger.Error("Failed to evaluate quiz trigger", "user_id", user.ID, "error", err)
	}

	if _, err := h.Hustle.Guess(ctx, chatID, user.ID, user.FirstName, user.UserName, message.Text); err != nil {
		logger.Error("Failed to check hustle guess", "chat_id", chatID, "user_id", user.ID, "error", err)
	}
}

// HandlePollAnswer scores a quiz poll vote.
func (h *HandlerManager) HandlePollAnswer(ctx context.Context, answer *tgbotapi.PollAnswer) {
	outcome, err := h.Resolver.HandleAnswer(ctx, services.PollAnswer{
		PollID:    answer.PollID,
		UserID:    answer.User.ID,
		FirstName: answer.User.FirstName,
		Username:  answer.User.UserName,
		OptionIDs: answer.OptionIDs,
	})
	if err != nil {
		logger.Error("Failed to resolve poll answer", "poll_id", answer.PollID, "user_id", answer.User.ID, "error", err)
		return
	}
	logger.Debug("Poll answer resolved", "poll_id", answer.PollID, "user_id", answer.User.ID, "outcome", outcome.String())
}

// HandleHustle starts a Word Hustle round in the current chat.
func (h *HandlerManager) HandleHustle(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	chatID := message.Chat.ID
	h.ObserveChat(ctx, chatID, message.Chat.Type, message.Chat.Title)

	if h.isBlocked(ctx, message.From.ID) {
		return
	}

	_, err := h.Hustle.Start(ctx, chatID)
	switch {
	case err == nil:
	case errors.HasCode(err, errors.ErrCodeAlreadyExists):
		bot.SendMessage(chatID, "⏳ <b>Word Hustle</b> already running! Guess the word or wait for it to end.", nil)
	case errors.HasCode(err, errors.ErrCodeUpstream):
		bot.SendMessage(chatID, "❌ Sorry, could not fetch a word right now. Try again later.", nil)
	default:
		logger.Error("Failed to start word hustle", "chat_id", chatID, "error", err)
		bot.SendMessage(chatID, msgGenericError, nil)
	}
}
