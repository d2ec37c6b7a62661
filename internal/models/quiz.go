package models

import "time"

// OpenQuiz tracks one dispatched quiz poll until its open period elapses.
type OpenQuiz struct {
	ChatID          int64   `json:"chat_id"`
	CorrectOptionID int     `json:"correct_option_id"`
	AnsweredUsers   []int64 `json:"answered_users"`
	DispatchedAt    float64 `json:"dispatched_at"`
	ExpiresAt       float64 `json:"expires_at"`
}

// HasAnswered reports whether userID was already credited for this poll.
func (q *OpenQuiz) HasAnswered(userID int64) bool {
	for _, id := range q.AnsweredUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Expired reports whether the poll stopped accepting answers at now. Entries
// without an expiry never expire.
func (q *OpenQuiz) Expired(now time.Time) bool {
	return q.ExpiresAt > 0 && EpochSeconds(now) > q.ExpiresAt
}

// OpenQuizRegistry maps provider poll ids to their open quiz.
type OpenQuizRegistry map[string]*OpenQuiz

// Prune drops expired entries and returns how many were removed.
func (r OpenQuizRegistry) Prune(now time.Time) int {
	removed := 0
	for pollID, quiz := range r {
		if quiz == nil || quiz.Expired(now) {
			delete(r, pollID)
			removed++
		}
	}
	return removed
}

// QuizItem is one multiple-choice question with options already shuffled.
type QuizItem struct {
	Question        string
	Options         []string
	CorrectOptionID int
}

// CorrectAnswer returns the text of the correct option.
func (q QuizItem) CorrectAnswer() string {
	if q.CorrectOptionID < 0 || q.CorrectOptionID >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectOptionID]
}
