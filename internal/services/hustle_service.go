package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"github.com/adhyankumar740-cloud/Game/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Active games older than timeout+staleGrace lost their timer.
const staleGrace = 30 * time.Second

// HustleService runs the per-chat Word Hustle game.
type HustleService struct {
	values    *repositories.BotValueRepository
	users     *repositories.UserRepository
	words     WordSource
	messenger Messenger
	timeout   time.Duration

	baseCtx  context.Context
	now      func() time.Time
	scramble func(string) string
	wg       sync.WaitGroup
}

func NewHustleService(
	baseCtx context.Context,
	values *repositories.BotValueRepository,
	users *repositories.UserRepository,
	words WordSource,
	messenger Messenger,
	timeout time.Duration,
) *HustleService {
	return &HustleService{
		values:    values,
		users:     users,
		words:     words,
		messenger: messenger,
		timeout:   timeout,
		baseCtx:   baseCtx,
		now:       time.Now,
		scramble:  Scramble,
	}
}

func (s *HustleService) runningGame(games models.HustleRegistry, chatID int64) *models.HustleGame {
	game := games.Get(chatID)
	if game == nil || !game.Active || game.Stale(s.now(), s.timeout, staleGrace) {
		return nil
	}
	return game
}

// Start opens a new round in chatID. It fails with ALREADY_EXISTS while a round
// is running and with UPSTREAM_ERROR when no word could be fetched.
func (s *HustleService) Start(ctx context.Context, chatID int64) (*models.HustleGame, error) {
	games, err := s.values.GetHustleGames(ctx)
	if err != nil {
		return nil, err
	}
	if s.runningGame(games, chatID) != nil {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "word hustle already running")
	}

	word, err := s.words.RandomWord(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUpstream, "could not fetch a word")
	}
	word = strings.ToLower(word)

	game := &models.HustleGame{
		ID:        uuid.NewString(),
		Word:      word,
		StartTime: models.EpochSeconds(s.now()),
		ChatID:    chatID,
		Active:    true,
	}

	err = s.values.MutateHustleGames(ctx, func(tx *gorm.DB, games models.HustleRegistry) error {
		if s.runningGame(games, chatID) != nil {
			return errors.New(errors.ErrCodeAlreadyExists, "word hustle already running")
		}
		games.Put(game)
		return nil
	})
	if err != nil {
		return nil, err
	}

	messageID, err := s.messenger.SendText(chatID, s.announcement(s.scramble(word)))
	if err != nil {
		logger.Error("Failed to announce word hustle", "chat_id", chatID, "error", err)
		s.finish(ctx, chatID, game.ID)
		return nil, err
	}
	game.MessageID = messageID

	err = s.values.MutateHustleGames(ctx, func(tx *gorm.DB, games models.HustleRegistry) error {
		current := games.Get(chatID)
		if current == nil || current.ID != game.ID {
			return errNoChange
		}
		current.MessageID = messageID
		return nil
	})
	if err != nil && err != errNoChange {
		logger.Warn("Failed to record hustle message id", "chat_id", chatID, "error", err)
	}

	s.wg.Add(1)
	go s.awaitTimeout(chatID, game.ID)

	logger.Info("Word hustle started", "chat_id", chatID, "game_id", game.ID)
	return game, nil
}

func (s *HustleService) announcement(scrambled string) string {
	return fmt.Sprintf(
		"🔥 <b>Word Hustle Challenge!</b> 🔥\n\n"+
			"Unscramble this word! You have <b>%d seconds</b>.\n\n"+
			"🔡 Scrambled Word: <code>%s</code>\n\n"+
			"Reply with your guess now!",
		int(s.timeout.Seconds()), utils.SpacedUpper(scrambled),
	)
}

func revealText(word string) string {
	return fmt.Sprintf(
		"⏰ <b>Time's Up!</b> ⏰\n\nNo one guessed the word in time.\nThe word was: <code>%s</code>",
		strings.ToUpper(word),
	)
}

func (s *HustleService) awaitTimeout(chatID int64, gameID string) {
	defer s.wg.Done()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-s.baseCtx.Done():
		return
	case <-timer.C:
	}

	if _, err := s.Expire(s.baseCtx, chatID, gameID); err != nil {
		logger.Error("Failed to expire word hustle", "chat_id", chatID, "game_id", gameID, "error", err)
	}
}

// finish marks gameID inactive if it is still the chat's running game and
// returns the game as it was.
func (s *HustleService) finish(ctx context.Context, chatID int64, gameID string) (*models.HustleGame, error) {
	var ended *models.HustleGame
	err := s.values.MutateHustleGames(ctx, func(tx *gorm.DB, games models.HustleRegistry) error {
		game := games.Get(chatID)
		if game == nil || game.ID != gameID || !game.Active {
			return errNoChange
		}
		game.Active = false
		copied := *game
		ended = &copied
		return nil
	})
	if err == errNoChange {
		return nil, nil
	}
	return ended, err
}

// Expire ends gameID with no winner and reveals the word. Timers that fire
// after the game was solved or replaced do nothing and return false.
func (s *HustleService) Expire(ctx context.Context, chatID int64, gameID string) (bool, error) {
	game, err := s.finish(ctx, chatID, gameID)
	if err != nil || game == nil {
		return false, err
	}

	s.reveal(game)
	logger.Info("Word hustle timed out", "chat_id", chatID, "game_id", gameID)
	return true, nil
}

func (s *HustleService) reveal(game *models.HustleGame) {
	text := revealText(game.Word)
	if game.MessageID != 0 {
		err := s.messenger.EditText(game.ChatID, game.MessageID, text)
		if err == nil {
			return
		}
		logger.Warn("Failed to edit hustle timeout message", "chat_id", game.ChatID, "error", err)
	}
	if _, err := s.messenger.SendText(game.ChatID, text); err != nil {
		logger.Warn("Failed to send hustle timeout message", "chat_id", game.ChatID, "error", err)
	}
}

// Guess checks text against the running game in chatID. The first correct
// guess ends the game and credits the guesser in the same transaction.
func (s *HustleService) Guess(ctx context.Context, chatID, userID int64, firstName, username, text string) (bool, error) {
	guess := utils.NormalizeGuess(text)
	if guess == "" {
		return false, nil
	}

	games, err := s.values.GetHustleGames(ctx)
	if err != nil {
		return false, err
	}
	if game := games.Get(chatID); game == nil || !game.Active || game.Word != guess {
		return false, nil
	}

	var solved models.HustleGame
	err = s.values.MutateHustleGames(ctx, func(tx *gorm.DB, games models.HustleRegistry) error {
		game := games.Get(chatID)
		if game == nil || !game.Active || game.Word != guess {
			return errNoChange
		}
		if err := s.users.WithTx(tx).AddScore(ctx, userID, firstName, username, 1); err != nil {
			return err
		}
		game.Active = false
		solved = *game
		return nil
	})
	if err == errNoChange {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	score, err := s.users.GetScore(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load score after hustle win", "user_id", userID, "error", err)
	}

	text = fmt.Sprintf(
		"🎉 <b>Correct!</b> %s unscrambled the word: <b>%s</b>\n\n🏆 <b>Point earned!</b> Your total score is now <b>%d</b>.",
		MentionHTML(userID, firstName), strings.ToUpper(solved.Word), score,
	)
	if _, err := s.messenger.SendText(chatID, text); err != nil {
		logger.Warn("Failed to announce hustle winner", "chat_id", chatID, "error", err)
	}

	logger.Info("Word hustle solved", "chat_id", chatID, "game_id", solved.ID, "user_id", userID)
	return true, nil
}

// ExpireStale ends games whose timer was lost, for example across a restart.
func (s *HustleService) ExpireStale(ctx context.Context) (int, error) {
	var stale []models.HustleGame
	now := s.now()
	err := s.values.MutateHustleGames(ctx, func(tx *gorm.DB, games models.HustleRegistry) error {
		for _, game := range games {
			if game != nil && game.Stale(now, s.timeout, staleGrace) {
				game.Active = false
				stale = append(stale, *game)
			}
		}
		if len(stale) == 0 {
			return errNoChange
		}
		return nil
	})
	if err == errNoChange {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for i := range stale {
		s.reveal(&stale[i])
	}
	return len(stale), nil
}

// ActiveGames counts running games for diagnostics.
func (s *HustleService) ActiveGames(ctx context.Context) (int, error) {
	games, err := s.values.GetHustleGames(ctx)
	if err != nil {
		return 0, err
	}
	return games.ActiveCount(), nil
}

// Wait blocks until every pending timeout has fired or been cancelled.
func (s *HustleService) Wait() {
	s.wg.Wait()
}
