package models

import "time"

// BotValue is one entry of the global key/value table. Value holds raw JSON.
type BotValue struct {
	Key       string    `gorm:"column:key;primaryKey;type:text"`
	Value     string    `gorm:"column:value;type:jsonb"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (BotValue) TableName() string {
	return "bot_data"
}

// Keys of the global key/value table.
const (
	KeyQuizLock        = "global_quiz_lock"
	KeyLastQuizTime    = "last_global_quiz_time"
	KeyLastQuizPollIDs = "last_quiz_poll_ids"
	KeyOpenQuizzes     = "open_quizzes_polls"
	KeyHustleGames     = "current_hustle_game"
	KeyVideoCounter    = "video_counter"
)

// Lease is the value stored under a lock key. An empty Owner means free.
// Token is a signed owner token whose expiry mirrors ExpiresAt.
type Lease struct {
	Owner      string  `json:"owner"`
	Token      string  `json:"token"`
	AcquiredAt float64 `json:"acquired_at"`
	ExpiresAt  float64 `json:"expires_at"`
}

// IsFree reports whether nobody has claimed the lease.
func (l *Lease) IsFree() bool {
	return l.Owner == ""
}

// Expired reports whether the lease's recorded expiry has passed at now.
func (l *Lease) Expired(now time.Time) bool {
	return l.ExpiresAt > 0 && EpochSeconds(now) >= l.ExpiresAt
}
