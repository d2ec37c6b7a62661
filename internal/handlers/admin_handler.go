package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/security"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const msgOwnerOnly = "❌ This is an owner-only command."

// requireOwner replies with a refusal unless the sender is OWNER_ID.
func (h *HandlerManager) requireOwner(message *tgbotapi.Message, bot BotInterface) bool {
	if message.From != nil && h.Config.IsOwner(message.From.ID) {
		return true
	}
	bot.SendMessage(message.Chat.ID, msgOwnerOnly, nil)
	return false
}

// HandleBroadcast sends the command text to every active group, paced by the
// owner broadcaster, and reports the counts when done.
func (h *HandlerManager) HandleBroadcast(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	if !h.requireOwner(message, bot) {
		return
	}

	text := security.SanitizeString(message.CommandArguments())
	if len([]rune(text)) < 2 {
		bot.SendMessage(message.Chat.ID, "Usage: /broadcast &lt;message&gt;", nil)
		return
	}

	count, err := h.ChatRepo.CountActive(ctx)
	if err != nil {
		logger.Error("Failed to count chats for broadcast", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}
	bot.SendMessage(message.Chat.ID, fmt.Sprintf("Starting broadcast to %d chats...", count), nil)

	ownerChat := message.Chat.ID
	h.goBackground(func() {
		report, err := h.OwnerBroadcaster.Broadcast(ctx, text)
		if err != nil {
			logger.Error("Owner broadcast aborted", "error", err)
		}
		bot.SendMessage(ownerChat, fmt.Sprintf("Broadcast complete.\nSent: %d\nFailed: %d", report.Sent, report.Failed), nil)
		logger.Info("Admin broadcast message", "admin_id", message.From.ID, "recipients", report.Sent)
	})
}

// HandleReleaseLock force-releases the quiz lease and restarts the cooldown.
func (h *HandlerManager) HandleReleaseLock(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	if !h.requireOwner(message, bot) {
		return
	}

	if err := h.ValueRepo.ForceReleaseLease(ctx, models.KeyQuizLock); err != nil {
		logger.Error("Failed to force release quiz lease", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}
	if err := h.ValueRepo.SetLastQuizTime(ctx, h.now()); err != nil {
		logger.Error("Failed to reset quiz timer", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}

	logger.Info("Quiz lease force released", "admin_id", message.From.ID)
	bot.SendMessage(message.Chat.ID, "✅ Global quiz lock released, and global timer reset.", nil)
}

func formatCountdown(seconds float64) string {
	if seconds <= 0 {
		return "✅ READY"
	}
	return fmt.Sprintf("⏳ %d seconds left", int(seconds))
}

// HandleTimerStatus reports the lease, the cooldown and the open games.
func (h *HandlerManager) HandleTimerStatus(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	if !h.requireOwner(message, bot) {
		return
	}

	now := h.now()
	lastQuiz, err := h.ValueRepo.GetLastQuizTime(ctx)
	if err != nil {
		logger.Error("Failed to load last quiz time", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}
	lease, held, err := h.ValueRepo.GetLease(ctx, models.KeyQuizLock)
	if err != nil {
		logger.Error("Failed to load quiz lease", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}
	quizzes, err := h.ValueRepo.GetOpenQuizzes(ctx)
	if err != nil {
		logger.Error("Failed to load open quizzes", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}
	games, err := h.Hustle.ActiveGames(ctx)
	if err != nil {
		logger.Error("Failed to count hustle games", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}

	lastQuizText := "N/A (Never sent)"
	remaining := 0.0
	if lastQuiz > 0 {
		lastQuizText = models.FromEpochSeconds(lastQuiz).UTC().Format("2006-01-02 15:04:05 UTC")
		remaining = h.Config.QuizCooldown().Seconds() - (models.EpochSeconds(now) - lastQuiz)
	}

	lockText := "🔓 FREE"
	switch {
	case held:
		expires := models.FromEpochSeconds(lease.ExpiresAt).Sub(now).Round(time.Second)
		lockText = fmt.Sprintf("🔒 HELD (expires in %s)", expires)
	case !lease.IsFree():
		lockText = "⚠️ EXPIRED (will be taken over)"
	}

	var b strings.Builder
	b.WriteString("<b>⌛ Global Timer Status (Owner Only)</b>\n\n")
	fmt.Fprintf(&b, "<b>Quiz Broadcast Lock:</b> <code>%s</code>\n", lockText)
	fmt.Fprintf(&b, "<b>Last Broadcast:</b> <code>%s</code>\n", lastQuizText)
	fmt.Fprintf(&b, "<b>Cooldown (%ds):</b> <code>%s</code>\n\n", h.Config.QuizCooldownSeconds, formatCountdown(remaining))
	b.WriteString("--- <b>Active Games</b> ---\n")
	fmt.Fprintf(&b, "<b>Open Quizzes (Polls):</b> <code>%d</code>\n", len(quizzes))
	fmt.Fprintf(&b, "<b>Open Word Hustle:</b> <code>%d</code>", games)

	if report, ok := h.Broadcast.LastReport(); ok {
		fmt.Fprintf(&b, "\n\n--- <b>Last Run</b> ---\nSent %d/%d, skipped %d, deactivated %d, failed %d",
			report.Sent, report.Total, report.Skipped, report.Deactivated, report.Failed)
		if report.Aborted {
			b.WriteString(" (aborted)")
		}
	}

	bot.SendMessage(message.Chat.ID, b.String(), nil)
}

// HandleExportScores sends the leaderboard as an Excel workbook.
func (h *HandlerManager) HandleExportScores(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	if !h.requireOwner(message, bot) {
		return
	}

	data, count, err := h.Exporter.Export(ctx)
	if err != nil {
		logger.Error("Failed to export scores", "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}

	name := fmt.Sprintf("scores_%s.xlsx", h.now().UTC().Format("20060102"))
	if bot.SendDocument(message.Chat.ID, name, data, fmt.Sprintf("📊 %d ranked users", count)) == 0 {
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
	}
}
