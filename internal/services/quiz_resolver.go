package services

import (
	"context"
	"fmt"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"gorm.io/gorm"
)

// errNoChange aborts a registry mutation without writing anything.
var errNoChange = errors.New(errors.ErrCodeValidation, "nothing to change")

// PollAnswer is a user's vote on a quiz poll.
type PollAnswer struct {
	PollID    string
	UserID    int64
	FirstName string
	Username  string
	OptionIDs []int
}

type AnswerOutcome int

const (
	AnswerIgnored AnswerOutcome = iota
	AnswerDuplicate
	AnswerWrong
	AnswerCorrect
)

func (o AnswerOutcome) String() string {
	switch o {
	case AnswerDuplicate:
		return "duplicate"
	case AnswerWrong:
		return "wrong"
	case AnswerCorrect:
		return "correct"
	default:
		return "ignored"
	}
}

// QuizResolver credits correct poll answers, at most once per user and poll.
type QuizResolver struct {
	values    *repositories.BotValueRepository
	users     *repositories.UserRepository
	messenger Messenger
	now       func() time.Time
}

func NewQuizResolver(values *repositories.BotValueRepository, users *repositories.UserRepository, messenger Messenger) *QuizResolver {
	return &QuizResolver{values: values, users: users, messenger: messenger, now: time.Now}
}

// HandleAnswer scores one poll answer. The score and the answered-user list
// change in the same transaction.
func (r *QuizResolver) HandleAnswer(ctx context.Context, answer PollAnswer) (AnswerOutcome, error) {
	if len(answer.OptionIDs) == 0 {
		// Vote retracted.
		return AnswerIgnored, nil
	}

	outcome := AnswerIgnored
	now := r.now()
	err := r.values.MutateOpenQuizzes(ctx, func(tx *gorm.DB, quizzes models.OpenQuizRegistry) error {
		quiz, ok := quizzes[answer.PollID]
		if !ok || quiz == nil || quiz.Expired(now) {
			return errNoChange
		}
		if quiz.HasAnswered(answer.UserID) {
			outcome = AnswerDuplicate
			return errNoChange
		}
		if answer.OptionIDs[0] != quiz.CorrectOptionID {
			outcome = AnswerWrong
			return errNoChange
		}

		if err := r.users.WithTx(tx).AddScore(ctx, answer.UserID, answer.FirstName, answer.Username, 1); err != nil {
			return err
		}
		quiz.AnsweredUsers = append(quiz.AnsweredUsers, answer.UserID)
		outcome = AnswerCorrect
		return nil
	})
	if err != nil && err != errNoChange {
		return AnswerIgnored, err
	}

	if outcome == AnswerCorrect {
		r.notifyScore(ctx, answer.UserID)
	}
	return outcome, nil
}

// notifyScore DMs the new total. Users who never started the bot cannot be
// messaged, so failures are only logged.
func (r *QuizResolver) notifyScore(ctx context.Context, userID int64) {
	score, err := r.users.GetScore(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load score for DM", "user_id", userID, "error", err)
		return
	}

	text := fmt.Sprintf("✅ <b>Correct Answer!</b> You earned 1 point. Your total score is now <b>%d</b>.", score)
	if _, err := r.messenger.SendText(userID, text); err != nil {
		logger.Debug("Cannot DM user score update", "user_id", userID, "error", err)
	}
}
