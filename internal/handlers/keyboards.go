package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	BtnPrevious = "⬅️ Previous"
	BtnNext     = "Next ➡️"

	leaderboardCallbackPrefix = "lb_page_"
)

func leaderboardCallbackData(page int) string {
	return fmt.Sprintf("%s%d", leaderboardCallbackPrefix, page)
}

// LeaderboardKeyboard builds the pagination row for page (zero based). It
// returns nil when there is only one page.
func LeaderboardKeyboard(page, totalPages int) interface{} {
	var row []tgbotapi.InlineKeyboardButton
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(BtnPrevious, leaderboardCallbackData(page-1)))
	}
	if page+1 < totalPages {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(BtnNext, leaderboardCallbackData(page+1)))
	}
	if len(row) == 0 {
		return nil
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
