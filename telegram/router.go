package telegram

import (
	"strings"

	"github.com/adhyankumar740-cloud/Game/internal/handlers"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	if len(message.NewChatMembers) > 0 {
		b.handlers.HandleNewMembers(b.ctx, message, b)
		return
	}

	if message.From == nil {
		return
	}

	logger.Debug("Received message",
		"user_id", message.From.ID,
		"chat_id", message.Chat.ID,
		"is_command", message.IsCommand(),
	)

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	b.handlers.HandleGroupMessage(b.ctx, message, b)
}

// addressedTo reports whether a command message is meant for the bot named
// username. Commands without an @suffix are addressed to every bot.
func addressedTo(message *tgbotapi.Message, username string) bool {
	withAt := message.CommandWithAt()
	i := strings.Index(withAt, "@")
	if i < 0 {
		return true
	}
	return strings.EqualFold(withAt[i+1:], username)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	if !addressedTo(message, b.api.Self.UserName) {
		return
	}

	b.handlers.ObserveChat(b.ctx, message.Chat.ID, message.Chat.Type, message.Chat.Title)

	cmd, ok := lookupCommand(message.Command())
	if !ok {
		return
	}
	cmd.handle(b.handlers, b.ctx, message, b)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if handlers.IsLeaderboardCallback(query.Data) {
		b.handlers.HandleLeaderboardCallback(b.ctx, query, b)
		return
	}
	b.AnswerCallbackQuery(query.ID, "", false)
}
