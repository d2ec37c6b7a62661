package models

import (
	"strconv"
	"time"
)

// Question is an entry of the local trivia bank used when the remote trivia
// source is unavailable.
type Question struct {
	ID               uint      `gorm:"primaryKey"`
	QuestionText     string    `gorm:"type:text;not null;uniqueIndex"`
	CorrectAnswer    string    `gorm:"type:text;not null"`
	IncorrectAnswers []string  `gorm:"type:jsonb;serializer:json"`
	Category         string    `gorm:"type:varchar(100);index"`
	Difficulty       string    `gorm:"type:varchar(20);index"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

// Difficulty constants
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

func (Question) TableName() string {
	return "questions"
}

// HustleGame is the Word Hustle record of one chat. Games are never deleted:
// a finished game stays with Active=false until the next start overwrites it.
type HustleGame struct {
	ID        string  `json:"id"`
	Word      string  `json:"word"`
	StartTime float64 `json:"start_time"`
	ChatID    int64   `json:"chat_id"`
	Active    bool    `json:"active"`
	MessageID int     `json:"message_id,omitempty"`
}

// Stale reports whether an active game outlived its timeout by more than
// grace, which only happens when the timer goroutine was lost.
func (g *HustleGame) Stale(now time.Time, timeout, grace time.Duration) bool {
	if !g.Active {
		return false
	}
	return now.Sub(FromEpochSeconds(g.StartTime)) > timeout+grace
}

// HustleRegistry maps chat ids (as text) to their current game.
type HustleRegistry map[string]*HustleGame

func (r HustleRegistry) Get(chatID int64) *HustleGame {
	return r[strconv.FormatInt(chatID, 10)]
}

func (r HustleRegistry) Put(game *HustleGame) {
	r[strconv.FormatInt(game.ChatID, 10)] = game
}

// ActiveCount returns the number of games still running.
func (r HustleRegistry) ActiveCount() int {
	count := 0
	for _, game := range r {
		if game != nil && game.Active {
			count++
		}
	}
	return count
}
