package services

import (
	"context"
	"strconv"
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

// Answers can reach us shortly after the poll closes on the platform side.
const openQuizGrace = time.Minute

type BroadcastConfig struct {
	Cooldown   time.Duration
	LeaseTTL   time.Duration
	OpenPeriod time.Duration
	MinDelay   time.Duration
	MaxDelay   time.Duration
}

// BroadcastReport summarizes one fan-out run.
type BroadcastReport struct {
	Total       int
	Sent        int
	Skipped     int
	Deactivated int
	Failed      int
	Aborted     bool
}

// BroadcastService triggers the global quiz fan-out once the cooldown has
// elapsed. The database lease keeps runs exclusive across processes.
type BroadcastService struct {
	values    *repositories.BotValueRepository
	chats     *repositories.ChatRepository
	trivia    TriviaSource
	messenger Messenger
	cfg       BroadcastConfig

	instanceID string
	baseCtx    context.Context
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error

	wg         sync.WaitGroup
	mu         sync.Mutex
	lastReport *BroadcastReport
}

// NewBroadcastService creates the service. Jobs run under baseCtx, which
// should only be cancelled at shutdown.
func NewBroadcastService(
	baseCtx context.Context,
	values *repositories.BotValueRepository,
	chats *repositories.ChatRepository,
	trivia TriviaSource,
	messenger Messenger,
	cfg BroadcastConfig,
) *BroadcastService {
	return &BroadcastService{
		values:     values,
		chats:      chats,
		trivia:     trivia,
		messenger:  messenger,
		cfg:        cfg,
		instanceID: uuid.NewString(),
		baseCtx:    baseCtx,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SecondsSinceLastBroadcast returns the time since the last completed run.
// A bot that never broadcast reports the whole epoch.
func (s *BroadcastService) SecondsSinceLastBroadcast(ctx context.Context) (float64, error) {
	last, err := s.values.GetLastQuizTime(ctx)
	if err != nil {
		return 0, err
	}
	return models.EpochSeconds(s.now()) - last, nil
}

// MaybeTrigger starts a broadcast job when the cooldown has elapsed and this
// caller wins the lease. It never waits for the job.
func (s *BroadcastService) MaybeTrigger(ctx context.Context, triggeredBy int64) (bool, error) {
	elapsed, err := s.SecondsSinceLastBroadcast(ctx)
	if err != nil {
		return false, err
	}
	if elapsed <= s.cfg.Cooldown.Seconds() {
		return false, nil
	}

	owner := s.instanceID + "/" + uuid.NewString()
	acquired, err := s.values.TryAcquireLease(ctx, models.KeyQuizLock, owner, s.cfg.LeaseTTL)
	if err != nil {
		return false, err
	}
	if !acquired {
		logger.Info("Quiz trigger attempted, but the lease is already held", "user_id", triggeredBy)
		return false, nil
	}

	logger.Info("Global quiz cooldown over, starting broadcast", "user_id", triggeredBy, "owner", owner)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(s.baseCtx, owner)
	}()
	return true, nil
}

// Wait blocks until every started job has finished.
func (s *BroadcastService) Wait() {
	s.wg.Wait()
}

// LastReport returns the summary of the most recent finished job.
func (s *BroadcastService) LastReport() (BroadcastReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReport == nil {
		return BroadcastReport{}, false
	}
	return *s.lastReport, true
}

func (s *BroadcastService) runJob(ctx context.Context, owner string) (report BroadcastReport) {
	log := logger.With("owner", owner)
	log.Infow("Starting staggered quiz broadcast")

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Broadcast job panicked", "panic", r)
			report.Aborted = true
		}

		// Release even when ctx was cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		released, err := s.values.ReleaseLease(releaseCtx, models.KeyQuizLock, owner)
		switch {
		case err != nil:
			log.Errorw("Failed to release quiz lease", "error", err)
		case !released:
			log.Warnw("Quiz lease was taken over before release")
		}

		s.mu.Lock()
		s.lastReport = &report
		s.mu.Unlock()

		log.Infow("Staggered broadcast finished",
			"sent", report.Sent, "total", report.Total, "skipped", report.Skipped,
			"deactivated", report.Deactivated, "failed", report.Failed, "aborted", report.Aborted)
	}()

	chatIDs, err := s.chats.ActiveChatIDs(ctx)
	if err != nil {
		log.Errorw("Failed to list active chats", "error", err)
		report.Aborted = true
		return report
	}
	report.Total = len(chatIDs)
	if len(chatIDs) == 0 {
		log.Warnw("No active chats for staggered broadcast")
	}

	pollIDs := make(map[string]string, len(chatIDs))
	for i, chatID := range chatIDs {
		if i > 0 {
			if err := s.sleep(ctx, utils.RandomDuration(s.cfg.MinDelay, s.cfg.MaxDelay)); err != nil {
				log.Warnw("Broadcast interrupted", "error", err)
				report.Aborted = true
				return report
			}
			if err := s.values.RenewLease(ctx, models.KeyQuizLock, owner, s.cfg.LeaseTTL); err != nil {
				log.Errorw("Lost quiz lease mid-broadcast", "error", err)
				report.Aborted = true
				return report
			}
		}
		if ctx.Err() != nil {
			report.Aborted = true
			return report
		}

		if pollID, ok := s.sendToChat(ctx, chatID, &report); ok {
			pollIDs[strconv.FormatInt(chatID, 10)] = pollID
		}
	}

	if err := s.values.SetLastQuizPollIDs(ctx, pollIDs); err != nil {
		log.Errorw("Failed to store last poll ids", "error", err)
	}
	if err := s.values.SetLastQuizTime(ctx, s.now()); err != nil {
		log.Errorw("Failed to reset global quiz timer", "error", err)
	}
	return report
}

// sendToChat delivers one quiz and registers it for scoring. Failures are
// recorded in report and never stop the run.
func (s *BroadcastService) sendToChat(ctx context.Context, chatID int64, report *BroadcastReport) (string, bool) {
	item, err := s.trivia.FetchQuiz(ctx)
	if err != nil {
		logger.Error("Failed to fetch quiz data, skipping chat", "chat_id", chatID, "error", err)
		report.Skipped++
		return "", false
	}

	pollID, err := s.messenger.SendQuizPoll(chatID, item, s.cfg.OpenPeriod)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeChatUnavailable) {
			logger.Warn("Chat unreachable, deactivating", "chat_id", chatID, "error", err)
			if derr := s.chats.Deactivate(ctx, chatID); derr != nil {
				logger.Error("Failed to deactivate chat", "chat_id", chatID, "error", derr)
			}
			report.Deactivated++
			return "", false
		}
		logger.Error("Failed to send quiz poll", "chat_id", chatID, "error", err)
		report.Failed++
		return "", false
	}

	now := s.now()
	err = s.values.MutateOpenQuizzes(ctx, func(tx *gorm.DB, quizzes models.OpenQuizRegistry) error {
		quizzes.Prune(now)
		quizzes[pollID] = &models.OpenQuiz{
			ChatID:          chatID,
			CorrectOptionID: item.CorrectOptionID,
			AnsweredUsers:   []int64{},
			DispatchedAt:    models.EpochSeconds(now),
			ExpiresAt:       models.EpochSeconds(now.Add(s.cfg.OpenPeriod + openQuizGrace)),
		}
		return nil
	})
	if err != nil {
		// The poll is out but answers to it cannot be scored.
		logger.Error("Failed to register open quiz", "chat_id", chatID, "poll_id", pollID, "error", err)
	}

	report.Sent++
	logger.Info("Quiz poll sent", "chat_id", chatID, "poll_id", pollID)
	return pollID, true
}
