package models

import (
	"strconv"
	"time"
)

// User is a player's score and spam-tracking row. Rows are created on the
// first scored event or spam check and are never deleted.
type User struct {
	UserID           string    `gorm:"column:user_id;primaryKey;type:text"`
	Username         string    `gorm:"type:text"`
	FirstName        string    `gorm:"type:text"`
	QuizScore        int       `gorm:"default:0;not null;index"`
	SpamBlockedUntil float64   `gorm:"default:0;not null"`
	SpamTimestamps   []float64 `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "user_data"
}

// DisplayName falls back from first name to @username to a placeholder.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "Anonymous"
	}
}

// IsSpamBlocked reports whether the user is still serving a spam block at now.
func (u *User) IsSpamBlocked(now time.Time) bool {
	return EpochSeconds(now) < u.SpamBlockedUntil
}

// RecordMessage prunes timestamps outside the window, appends now and returns
// how many messages fall inside the window.
func (u *User) RecordMessage(now time.Time, window time.Duration) int {
	cutoff := EpochSeconds(now.Add(-window))
	kept := u.SpamTimestamps[:0:0]
	for _, ts := range u.SpamTimestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	u.SpamTimestamps = append(kept, EpochSeconds(now))
	return len(u.SpamTimestamps)
}

// UserKey converts a Telegram user or chat id to the text primary key.
func UserKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// EpochSeconds renders t as fractional Unix seconds, the unit every stored
// timestamp uses.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromEpochSeconds is the inverse of EpochSeconds.
func FromEpochSeconds(ts float64) time.Time {
	return time.Unix(0, int64(ts*float64(time.Second)))
}

// LeaderboardEntry is one ranked row of the score table.
type LeaderboardEntry struct {
	Rank      int
	UserID    string
	FirstName string
	Score     int
}
