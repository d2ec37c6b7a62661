package telegram

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	apperrors "github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"github.com/adhyankumar740-cloud/Game/pkg/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Platform limits for quiz polls.
const (
	maxPollQuestion    = 300
	maxPollOption      = 100
	maxPollExplanation = 200

	quizQuestionPrefix = "🧠 Quiz Time!\n\n"
	maxSendAttempts    = 3
)

// Descriptions of 400 responses that mean the bot can no longer post to the
// chat at all, as opposed to a problem with one message.
var chatUnavailableHints = []string{
	"chat not found",
	"group chat was upgraded",
	"chat_write_forbidden",
	"not enough rights",
	"have no rights",
	"need administrator rights",
	"bot is not a member",
	"peer_id_invalid",
}

func apiError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}
	return tgbotapi.Error{}, false
}

// classifySendError maps a Bot API failure onto the app error taxonomy.
// Kicked, blocked and vanished chats become ErrCodeChatUnavailable.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := apiError(err); ok {
		desc := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.Code == http.StatusForbidden:
			return apperrors.Wrap(err, apperrors.ErrCodeChatUnavailable, "chat unavailable")
		case apiErr.Code == http.StatusBadRequest && containsAny(desc, chatUnavailableHints):
			return apperrors.Wrap(err, apperrors.ErrCodeChatUnavailable, "chat unavailable")
		case apiErr.Code == http.StatusTooManyRequests:
			return apperrors.Wrap(err, apperrors.ErrCodeRateLimitExceeded, "telegram rate limit")
		}
	}
	return apperrors.Wrap(err, apperrors.ErrCodeUpstream, "telegram request failed")
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func isNetworkError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network is unreachable")
}

// send delivers c, retrying network errors with a linear backoff.
func (b *Bot) send(c tgbotapi.Chattable, chatID int64) (tgbotapi.Message, error) {
	var lastErr error
	for i := 0; i < maxSendAttempts; i++ {
		sent, err := b.api.Send(c)
		if err == nil {
			return sent, nil
		}
		lastErr = err
		logger.Error("Failed to send message", "error", err, "chat_id", chatID, "attempt", i+1)

		if !isNetworkError(err) {
			break
		}
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return tgbotapi.Message{}, classifySendError(lastErr)
}

func withKeyboard(msg *tgbotapi.MessageConfig, keyboard interface{}) {
	switch kb := keyboard.(type) {
	case tgbotapi.InlineKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.ReplyKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.ReplyKeyboardRemove:
		msg.ReplyMarkup = kb
	}
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	withKeyboard(&msg, keyboard)

	sent, err := b.send(msg, chatID)
	if err != nil {
		return 0
	}
	return sent.MessageID
}

// SendText implements services.Messenger.
func (b *Bot) SendText(chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sent, err := b.send(msg, chatID)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) error {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
		msg.ReplyMarkup = &kb
	}

	if _, err := b.api.Send(msg); err != nil {
		logger.Error("Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
		return classifySendError(err)
	}
	return nil
}

// EditText implements services.Messenger.
func (b *Bot) EditText(chatID int64, messageID int, text string) error {
	return b.EditMessage(chatID, messageID, text, nil)
}

func (b *Bot) DeleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	deleteMsg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := b.api.Request(deleteMsg); err != nil {
		logger.Error("Failed to delete message", "chat_id", chatID, "msg_id", messageID, "error", err)
	}
}

// photoFile treats http(s) strings as URLs and anything else as a file id.
func photoFile(photo string) tgbotapi.RequestFileData {
	if strings.HasPrefix(photo, "http://") || strings.HasPrefix(photo, "https://") {
		return tgbotapi.FileURL(photo)
	}
	return tgbotapi.FileID(photo)
}

func (b *Bot) SendPhoto(chatID int64, photo string, caption string) int {
	msg := tgbotapi.NewPhoto(chatID, photoFile(photo))
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML

	sent, err := b.send(msg, chatID)
	if err != nil {
		return 0
	}
	return sent.MessageID
}

func (b *Bot) SendVideo(chatID int64, videoID string, caption string) int {
	msg := tgbotapi.NewVideo(chatID, tgbotapi.FileID(videoID))
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML

	sent, err := b.send(msg, chatID)
	if err != nil {
		return 0
	}
	return sent.MessageID
}

func (b *Bot) SendDocument(chatID int64, fileName string, data []byte, caption string) int {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	msg.Caption = caption

	sent, err := b.send(msg, chatID)
	if err != nil {
		return 0
	}
	return sent.MessageID
}

func (b *Bot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

func (b *Bot) BotName() string {
	if b.api.Self.FirstName != "" {
		return b.api.Self.FirstName
	}
	return b.api.Self.UserName
}

// quizPollParams builds the sendPoll request. Params are set by hand so a
// correct option of 0 is still sent.
func quizPollParams(chatID int64, quiz models.QuizItem, openPeriod time.Duration) (tgbotapi.Params, error) {
	if quiz.CorrectOptionID < 0 || quiz.CorrectOptionID >= len(quiz.Options) {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "correct option out of range")
	}

	options := make([]string, len(quiz.Options))
	for i, opt := range quiz.Options {
		options[i] = utils.Truncate(opt, maxPollOption)
	}

	params := tgbotapi.Params{}
	params["chat_id"] = strconv.FormatInt(chatID, 10)
	params["question"] = utils.Truncate(quizQuestionPrefix+quiz.Question, maxPollQuestion)
	if err := params.AddInterface("options", options); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to encode poll options")
	}
	params["is_anonymous"] = "false"
	params["type"] = "quiz"
	params["correct_option_id"] = strconv.Itoa(quiz.CorrectOptionID)
	params.AddNonEmpty("explanation", utils.Truncate("✅ Correct: "+quiz.Options[quiz.CorrectOptionID], maxPollExplanation))
	params.AddNonZero("open_period", int(openPeriod.Seconds()))
	return params, nil
}

// SendQuizPoll implements services.Messenger. It returns the poll id that
// answers will reference.
func (b *Bot) SendQuizPoll(chatID int64, quiz models.QuizItem, openPeriod time.Duration) (string, error) {
	params, err := quizPollParams(chatID, quiz, openPeriod)
	if err != nil {
		return "", err
	}

	resp, err := b.api.MakeRequest("sendPoll", params)
	if err != nil {
		return "", classifySendError(err)
	}

	var sent tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeUpstream, "failed to decode sent poll")
	}
	if sent.Poll == nil || sent.Poll.ID == "" {
		return "", apperrors.New(apperrors.ErrCodeUpstream, "sent message carries no poll")
	}
	return sent.Poll.ID, nil
}
