package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/security"
	"github.com/adhyankumar740-cloud/Game/internal/services"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendWithPhoto sends text as a photo caption when photoID is set, falling
// back to a plain message.
func sendWithPhoto(bot BotInterface, chatID int64, photoID, text string) {
	if photoID != "" && bot.SendPhoto(chatID, photoID, text) != 0 {
		return
	}
	bot.SendMessage(chatID, text, nil)
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return "Anonymous"
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.UserName != "" {
		return "@" + user.UserName
	}
	return "Anonymous"
}

// HandleStart greets the user and lists what the bot does.
func (h *HandlerManager) HandleStart(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	text := fmt.Sprintf(
		"👋 <b>Hi %s, I'm %s</b>!\n\n"+
			"I'm a <b>Game-focused Bot</b> here to bring fun with Quizzes and Word Hustle challenges.\n\n"+
			"<b>What I can do:</b>\n"+
			"• 🏆 Track Quiz/Hustle scores (/ranking)\n"+
			"• 👤 Check your score with (/profile)\n"+
			"• 🧠 Trigger automatic Quiz Polls as you chat\n"+
			"• 🔠 Start a <b>Word Hustle</b> game with (/hustle)\n"+
			"• 🏅 Check your personal score (/myscore)\n\n"+
			"Just start chatting to potentially trigger a quiz, or use /hustle to start a challenge!",
		security.EscapeHTML(displayName(message.From)), security.EscapeHTML(bot.BotName()),
	)
	sendWithPhoto(bot, message.Chat.ID, h.Config.StartPhotoID, text)
}

func (h *HandlerManager) HandleAbout(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	var b strings.Builder
	fmt.Fprintf(&b, "👋 <b>About Me</b>\n\nHi, I'm %s!\n\n", security.EscapeHTML(bot.BotName()))
	b.WriteString("I was created for gaming and group engagement.\n\n")
	b.WriteString("<b>Features:</b>\n")
	b.WriteString("• Quiz/Hustle rankings (/ranking)\n")
	b.WriteString("• User profiles (/profile)\n")
	b.WriteString("• Automatic quizzes (via polls)\n")
	b.WriteString("• Word Hustle game (/hustle)\n")
	b.WriteString("• Personal score tracking (/myscore)\n")
	b.WriteString("• Image search (/img)\n")
	b.WriteString("• AI Image generation (/gen)\n")
	if h.Config.OwnerID != 0 {
		fmt.Fprintf(&b, "\nYou can contact my owner for support: <a href=\"tg://user?id=%d\">Owner</a>\n", h.Config.OwnerID)
	}
	sendWithPhoto(bot, message.Chat.ID, h.Config.AboutPhotoID, b.String())
}

func (h *HandlerManager) HandleMyScore(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	score, err := h.UserRepo.GetScore(ctx, message.From.ID)
	if err != nil {
		logger.Error("Failed to load score", "user_id", message.From.ID, "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}

	bot.SendMessage(message.Chat.ID, fmt.Sprintf(
		"🏆 <b>%s's Total Game Score</b>\n\nYou have earned a total of <b>%d</b> points!",
		security.EscapeHTML(displayName(message.From)), score,
	), nil)
}

// HandleProfile shows the score and rank of the replied-to user, or of the
// sender when the command is not a reply.
func (h *HandlerManager) HandleProfile(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	target := message.From
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		target = message.ReplyToMessage.From
	}

	score, err := h.UserRepo.GetScore(ctx, target.ID)
	if err != nil {
		logger.Error("Failed to load profile score", "user_id", target.ID, "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}
	rank, err := h.UserRepo.Rank(ctx, target.ID)
	if err != nil {
		logger.Error("Failed to load profile rank", "user_id", target.ID, "error", err)
		bot.SendMessage(message.Chat.ID, msgGenericError, nil)
		return
	}

	rankText := "N/A"
	if rank > 0 {
		rankText = fmt.Sprintf("%d", rank)
	}

	bot.SendMessage(message.Chat.ID, fmt.Sprintf(
		"👤 <b>User Profile</b>\n\n"+
			"<b>Name:</b> %s\n"+
			"<b>User ID:</b> <code>%d</code>\n\n"+
			"--- <b>Game Stats</b> ---\n"+
			"🏆 <b>Score Rank:</b> %s\n"+
			"🧠 <b>Total Score:</b> %d points",
		services.MentionHTML(target.ID, displayName(target)), target.ID, rankText, score,
	), nil)
}

// mediaFileID returns the file id and kind of the media in message.
func mediaFileID(message *tgbotapi.Message) (string, string) {
	switch {
	case message.Video != nil:
		return message.Video.FileID, "Video"
	case len(message.Photo) > 0:
		return message.Photo[len(message.Photo)-1].FileID, "Photo"
	case message.Audio != nil:
		return message.Audio.FileID, "Audio"
	case message.Document != nil:
		return message.Document.FileID, "Document"
	case message.Sticker != nil:
		return message.Sticker.FileID, "Sticker"
	case message.Animation != nil:
		return message.Animation.FileID, "Animation"
	case message.Voice != nil:
		return message.Voice.FileID, "Voice"
	}
	return "", ""
}

// HandleGetID replies with the file id of the replied-to media, for use in
// START_PHOTO_ID and WELCOME_VIDEO_IDS.
func (h *HandlerManager) HandleGetID(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	if message.ReplyToMessage == nil {
		bot.SendMessage(message.Chat.ID, "Please reply to a media file.", nil)
		return
	}

	fileID, kind := mediaFileID(message.ReplyToMessage)
	if fileID == "" {
		bot.SendMessage(message.Chat.ID, "Could not find a File ID.", nil)
		return
	}
	bot.SendMessage(message.Chat.ID, fmt.Sprintf("<b>%s File ID:</b> <code>%s</code>", kind, security.EscapeHTML(fileID)), nil)
}

// HandleNewMembers welcomes each human joining a group, rotating through the
// configured welcome videos.
func (h *HandlerManager) HandleNewMembers(ctx context.Context, message *tgbotapi.Message, bot BotInterface) {
	chat := message.Chat
	h.ObserveChat(ctx, chat.ID, chat.Type, chat.Title)

	chatName := chat.Title
	if chatName == "" {
		chatName = "the group"
	}

	for i := range message.NewChatMembers {
		member := &message.NewChatMembers[i]
		if member.IsBot {
			continue
		}

		text := fmt.Sprintf(
			"👋 <b>Welcome to %s</b>!\n\nUser: %s\n\nStart playing quizzes and hustle to earn your spot on the leaderboard! 🏆",
			security.EscapeHTML(chatName), services.MentionHTML(member.ID, displayName(member)),
		)

		if videoID := h.nextWelcomeVideo(ctx); videoID != "" && bot.SendVideo(chat.ID, videoID, text) != 0 {
			continue
		}
		bot.SendMessage(chat.ID, text, nil)
	}
}

func (h *HandlerManager) nextWelcomeVideo(ctx context.Context) string {
	videos := h.Config.WelcomeVideoIDs
	if len(videos) == 0 {
		return ""
	}
	counter, err := h.ValueRepo.NextCounter(ctx, models.KeyVideoCounter)
	if err != nil {
		logger.Warn("Failed to advance welcome video counter", "error", err)
		return videos[0]
	}
	return videos[counter%len(videos)]
}
