package services

import (
	"fmt"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/security"
)

//go:generate mockgen -source=messenger.go -destination=mock_messenger_test.go -package=services

// Messenger is the outbound side of the chat platform used by background work.
// Text is sent in HTML parse mode. Permanent delivery failures carry
// errors.ErrCodeChatUnavailable.
type Messenger interface {
	SendText(chatID int64, text string) (int, error)
	EditText(chatID int64, messageID int, text string) error
	SendQuizPoll(chatID int64, quiz models.QuizItem, openPeriod time.Duration) (string, error)
}

// MentionHTML links a user by id with an escaped display name.
func MentionHTML(userID int64, name string) string {
	if name == "" {
		name = "Anonymous"
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, security.EscapeHTML(name))
}
