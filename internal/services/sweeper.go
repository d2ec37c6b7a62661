package services

import (
	"context"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/middleware"
	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

// SweepResult counts what one sweep cleaned up.
type SweepResult struct {
	PrunedQuizzes   int
	ExpiredGames    int
	DroppedLimits   int
	StaleLeaseFound bool
}

// Sweeper periodically removes state whose owner went away: closed polls,
// hustle games that lost their timer and idle rate-limit windows.
type Sweeper struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	values    *repositories.BotValueRepository
	hustle    *HustleService
	limiter   *middleware.RateLimiter
	now       func() time.Time
}

func NewSweeper(values *repositories.BotValueRepository, hustle *HustleService, limiter *middleware.RateLimiter, interval time.Duration) *Sweeper {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Sweeper{
		scheduler: s,
		interval:  interval,
		values:    values,
		hustle:    hustle,
		limiter:   limiter,
		now:       time.Now,
	}
}

// Start schedules the sweep and returns immediately. The first run happens
// one interval after Start.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

// Sweep runs one cleanup pass. Each step is independent; failures are logged.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	var result SweepResult
	now := s.now()

	err := s.values.MutateOpenQuizzes(ctx, func(tx *gorm.DB, quizzes models.OpenQuizRegistry) error {
		result.PrunedQuizzes = quizzes.Prune(now)
		if result.PrunedQuizzes == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil && err != errNoChange {
		logger.Error("Failed to prune open quizzes", "error", err)
	}

	if s.hustle != nil {
		expired, err := s.hustle.ExpireStale(ctx)
		if err != nil {
			logger.Error("Failed to expire stale hustle games", "error", err)
		}
		result.ExpiredGames = expired
	}

	if s.limiter != nil {
		result.DroppedLimits = s.limiter.Cleanup()
	}

	lease, held, err := s.values.GetLease(ctx, models.KeyQuizLock)
	if err != nil {
		logger.Error("Failed to inspect quiz lease", "error", err)
	} else if !held && !lease.IsFree() {
		result.StaleLeaseFound = true
		logger.Warn("Quiz lease expired without release; next trigger will take it over", "owner", lease.Owner)
	}

	if result.PrunedQuizzes > 0 || result.ExpiredGames > 0 {
		logger.Info("Sweep finished", "pruned_quizzes", result.PrunedQuizzes, "expired_games", result.ExpiredGames)
	}
	return result
}
