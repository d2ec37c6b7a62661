package models

import "time"

// Chat is a group the bot has seen. IsActive is cleared instead of deleting
// the row when delivery fails permanently.
type Chat struct {
	ChatID    string    `gorm:"column:chat_id;primaryKey;type:text"`
	Title     string    `gorm:"type:text"`
	IsActive  bool      `gorm:"default:true;not null;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Chat) TableName() string {
	return "chat_data"
}

// Chat types that count as groups.
const (
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
)

func IsGroupChat(chatType string) bool {
	return chatType == ChatTypeGroup || chatType == ChatTypeSupergroup
}
