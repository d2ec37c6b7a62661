package handlers

import (
	"context"
	"fmt"
	"math"

	"github.com/adhyankumar740-cloud/Game/internal/security"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// allowExpensive applies the per-user command throttle and tells the user
// how long to wait when it trips.
func (h *HandlerManager) allowExpensive(command string, message *tgbotapi.Message, bot BotInterface) bool {
	if h.Limiter.Allow(command, message.From.ID) {
		return true
	}
	wait := int(math.Ceil(h.Limiter.RetryAfter(command, message.From.ID).Seconds()))
	bot.SendMessage(message.Chat.ID, fmt.Sprintf("⏳ Slow down! Try /%s again in %d seconds.", command, wait), nil)
	return false
}

// HandleImageSearch posts a Pexels photo matching the command text.
func (h *HandlerManager) HandleImageSearch(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	chatID := message.Chat.ID
	if !h.Images.SearchEnabled() {
		bot.SendMessage(chatID, "Image search is disabled.", nil)
		return
	}

	query := security.PlainText(message.CommandArguments())
	if query == "" {
		bot.SendMessage(chatID, "Example: <code>/img nature</code>", nil)
		return
	}
	if !h.allowExpensive("img", message, bot) {
		return
	}

	url, err := h.Images.SearchPhoto(ctx, query)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			bot.SendMessage(chatID, fmt.Sprintf("No images found for '%s'.", security.EscapeHTML(query)), nil)
			return
		}
		logger.Error("Pexels API error", "query", query, "error", err)
		bot.SendMessage(chatID, "Error with image search.", nil)
		return
	}

	if bot.SendPhoto(chatID, url, fmt.Sprintf("Requested: %s", security.EscapeHTML(query))) == 0 {
		bot.SendMessage(chatID, "Error with image search.", nil)
	}
}

// HandleImageGenerate queues a Stable Horde generation and posts the result
// when it is ready. Polling runs in the background so the update worker is
// not held for minutes.
func (h *HandlerManager) HandleImageGenerate(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	chatID := message.Chat.ID
	if !h.Config.ImageGenerationEnabled() {
		bot.SendMessage(chatID, "Image generation is disabled.", nil)
		return
	}

	prompt := security.PlainText(message.CommandArguments())
	if prompt == "" {
		bot.SendMessage(chatID, "Example: <code>/gen a cat in space</code>", nil)
		return
	}
	if !h.allowExpensive("gen", message, bot) {
		return
	}

	progressID := bot.SendMessage(chatID, fmt.Sprintf("🎨 Generating '%s'...", security.EscapeHTML(prompt)), nil)

	h.goBackground(func() {
		url, err := h.Images.Generate(ctx, prompt)
		if err != nil {
			logger.Error("Stable Horde error", "prompt", prompt, "error", err)
			failure := "Sorry, image generation failed. Please try again later."
			if progressID == 0 || bot.EditMessage(chatID, progressID, failure, nil) != nil {
				bot.SendMessage(chatID, failure, nil)
			}
			return
		}

		if bot.SendPhoto(chatID, url, fmt.Sprintf("<b>Prompt:</b> %s", security.EscapeHTML(prompt))) == 0 {
			bot.SendMessage(chatID, "Sorry, the generated image could not be sent.", nil)
			return
		}
		bot.DeleteMessage(chatID, progressID)
	})
}
