package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adhyankumar740-cloud/Game/internal/security"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const leaderboardPageSize = 10

const msgNoScores = "No one has earned a score yet."

func rankEmoji(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "🔹"
	}
}

// leaderboardPage renders page (zero based). ok is false when nobody has
// scored yet.
func (h *HandlerManager) leaderboardPage(ctx context.Context, page int) (text string, keyboard interface{}, ok bool, err error) {
	total, err := h.UserRepo.CountRanked(ctx)
	if err != nil {
		return "", nil, false, err
	}
	if total == 0 {
		return "", nil, false, nil
	}

	totalPages := int((total + leaderboardPageSize - 1) / leaderboardPageSize)
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}

	entries, err := h.UserRepo.Leaderboard(ctx, page*leaderboardPageSize, leaderboardPageSize)
	if err != nil {
		return "", nil, false, err
	}

	var b strings.Builder
	b.WriteString("🧠 <b>Quiz &amp; Hustle Score Leaderboard</b> 🏆\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s <b>%d.</b> %s - %d points\n", rankEmoji(e.Rank), e.Rank, security.EscapeHTML(e.FirstName), e.Score)
	}
	fmt.Fprintf(&b, "\nPage %d of %d", page+1, totalPages)

	return b.String(), LeaderboardKeyboard(page, totalPages), true, nil
}

// HandleRanking shows the first leaderboard page.
func (h *HandlerManager) HandleRanking(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	text, keyboard, ok, err := h.leaderboardPage(ctx, 0)
	if err != nil {
		logger.Error("Failed to build leaderboard", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}
	if !ok {
		bot.SendMessage(message.Chat.ID, msgNoScores, nil)
		return
	}
	bot.SendMessage(message.Chat.ID, text, keyboard)
}

// IsLeaderboardCallback reports whether data belongs to leaderboard paging.
func IsLeaderboardCallback(data string) bool {
	return strings.HasPrefix(data, leaderboardCallbackPrefix)
}

// HandleLeaderboardCallback edits the leaderboard message in place to show
// the requested page.
func (h *HandlerManager) HandleLeaderboardCallback(ctx context.Context, query *tgbotapi.CallbackQuery, bot BotInterface) {
	page, err := strconv.Atoi(strings.TrimPrefix(query.Data, leaderboardCallbackPrefix))
	if err != nil || query.Message == nil {
		bot.AnswerCallbackQuery(query.ID, "", false)
		return
	}

	text, keyboard, ok, err := h.leaderboardPage(ctx, page)
	if err != nil {
		logger.Error("Failed to build leaderboard page", "page", page, "error", err)
		bot.AnswerCallbackQuery(query.ID, msgGenericError, false)
		return
	}
	if !ok {
		text = msgNoScores
	}

	if err := bot.EditMessage(query.Message.Chat.ID, query.Message.MessageID, text, keyboard); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			bot.AnswerCallbackQuery(query.ID, "You are already on this page.", false)
			return
		}
		logger.Error("Failed to edit leaderboard", "error", err)
	}
	bot.AnswerCallbackQuery(query.ID, "", false)
}
