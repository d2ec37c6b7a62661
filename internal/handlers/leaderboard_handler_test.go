package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/adhyankumar740-cloud/Game/internal/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedScores(t *testing.T, m *testManager, n int) {
	for i := 1; i <= n; i++ {
		require.NoError(t, m.UserRepo.AddScore(context.Background(), int64(i), fmt.Sprintf("Player%d", i), "", 100-i))
	}
}

func TestLeaderboardKeyboard(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		totalPages int
		want       []string
	}{
		{"Single page", 0, 1, nil},
		{"First of many", 0, 3, []string{"lb_page_1"}},
		{"Middle", 1, 3, []string{"lb_page_0", "lb_page_2"}},
		{"Last", 2, 3, []string{"lb_page_1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := LeaderboardKeyboard(tt.page, tt.totalPages)
			if tt.want == nil {
				assert.Nil(t, kb)
				return
			}
			markup, ok := kb.(tgbotapi.InlineKeyboardMarkup)
			require.True(t, ok)
			require.Len(t, markup.InlineKeyboard, 1)

			var got []string
			for _, btn := range markup.InlineKeyboard[0] {
				got = append(got, *btn.CallbackData)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleRanking(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, testConfig(), services.ImageConfig{})
	chat := groupChat(testGroupID)

	m.HandleRanking(ctx, commandMessage(chat, tgUser(1, "Asha"), "/ranking"), m.bot)
	assert.Equal(t, msgNoScores, m.bot.lastText(testGroupID))

	seedScores(t, m, 12)
	m.HandleRanking(ctx, commandMessage(chat, tgUser(1, "Asha"), "/ranking"), m.bot)

	msgs := m.bot.messages()
	last := msgs[len(msgs)-1]
	assert.Contains(t, last.Text, "🥇 <b>1.</b> Player1 - 99 points")
	assert.Contains(t, last.Text, "🔹 <b>10.</b> Player10 - 90 points")
	assert.NotContains(t, last.Text, "Player11")
	assert.Contains(t, last.Text, "Page 1 of 2")
	assert.NotNil(t, last.Keyboard)
}

func TestHandleLeaderboardCallback(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, testConfig(), services.ImageConfig{})
	seedScores(t, m, 12)

	query := &tgbotapi.CallbackQuery{
		ID:      "q1",
		Data:    "lb_page_1",
		Message: &tgbotapi.Message{MessageID: 77, Chat: groupChat(testGroupID)},
	}
	require.True(t, IsLeaderboardCallback(query.Data))

	m.HandleLeaderboardCallback(ctx, query, m.bot)
	require.Len(t, m.bot.edits, 1)
	assert.Equal(t, 77, m.bot.edits[0].MessageID)
	assert.Contains(t, m.bot.edits[0].Text, "<b>11.</b> Player11")
	assert.Contains(t, m.bot.edits[0].Text, "Page 2 of 2")
	assert.Equal(t, []string{""}, m.bot.answers)

	m.bot.editErr = fmt.Errorf("Bad Request: message is not modified")
	m.HandleLeaderboardCallback(ctx, query, m.bot)
	assert.Equal(t, "You are already on this page.", m.bot.answers[len(m.bot.answers)-1])
}

func TestHandleLeaderboardCallback_BadData(t *testing.T) {
	m := newTestManager(t, testConfig(), services.ImageConfig{})
	query := &tgbotapi.CallbackQuery{ID: "q2", Data: "lb_page_x", Message: &tgbotapi.Message{Chat: groupChat(testGroupID)}}

	m.HandleLeaderboardCallback(context.Background(), query, m.bot)
	assert.Empty(t, m.bot.edits)
	assert.Len(t, m.bot.answers, 1)
}
