package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/security"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errLeaseHeld     = errors.New(errors.ErrCodeAlreadyExists, "lease is held by another owner")
	errLeaseNotOwned = errors.New(errors.ErrCodeForbidden, "lease is not held by this owner")
)

// BotValueRepository stores global bot state as JSON documents in bot_data.
type BotValueRepository struct {
	db          *gorm.DB
	leaseSecret string
	now         func() time.Time
}

func NewBotValueRepository(db *gorm.DB, leaseSecret string) *BotValueRepository {
	return &BotValueRepository{db: db, leaseSecret: leaseSecret, now: time.Now}
}

// SetClock replaces the time source used for lease bookkeeping.
func (r *BotValueRepository) SetClock(now func() time.Time) {
	r.now = now
}

func decodeValue(key, raw string, dest interface{}) {
	if raw == "" || raw == "null" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Warn("Discarding unreadable bot value", "key", key, "error", err)
	}
}

// GetValue decodes the value stored under key into dest. It reports false when
// the key is absent or holds null.
func (r *BotValueRepository) GetValue(ctx context.Context, key string, dest interface{}) (bool, error) {
	var row models.BotValue
	result := r.db.WithContext(ctx).Where(&models.BotValue{Key: key}).Limit(1).Find(&row)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to read bot value")
	}
	if result.RowsAffected == 0 || row.Value == "" || row.Value == "null" {
		return false, nil
	}
	decodeValue(key, row.Value, dest)
	return true, nil
}

// SetValue upserts value under key.
func (r *BotValueRepository) SetValue(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode bot value")
	}

	row := &models.BotValue{Key: key, Value: string(data)}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to write bot value")
	}
	return nil
}

// lockRow makes sure the row exists and then holds its row lock for the rest
// of tx. Creating first keeps two first-time writers from both inserting.
func lockRow(tx *gorm.DB, key string) (*models.BotValue, error) {
	seed := &models.BotValue{Key: key, Value: "null"}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to initialize bot value")
	}

	var row models.BotValue
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(&models.BotValue{Key: key}).First(&row).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock bot value")
	}
	return &row, nil
}

// mutate runs a locked read-modify-write of key. dest receives the current
// value, fn may change it and use tx for related writes, and dest is stored
// back when fn succeeds. An error from fn rolls everything back.
func (r *BotValueRepository) mutate(ctx context.Context, key string, dest interface{}, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRow(tx, key)
		if err != nil {
			return err
		}
		decodeValue(key, row.Value, dest)

		if err := fn(tx); err != nil {
			return err
		}

		data, err := json.Marshal(dest)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode bot value")
		}
		if err := tx.Model(&models.BotValue{Key: key}).Update("value", string(data)).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write bot value")
		}
		return nil
	})
}

// GetLastQuizTime returns the last broadcast completion time as epoch
// seconds, or 0 when no broadcast has completed yet.
func (r *BotValueRepository) GetLastQuizTime(ctx context.Context) (float64, error) {
	var ts float64
	if _, err := r.GetValue(ctx, models.KeyLastQuizTime, &ts); err != nil {
		return 0, err
	}
	return ts, nil
}

func (r *BotValueRepository) SetLastQuizTime(ctx context.Context, t time.Time) error {
	return r.SetValue(ctx, models.KeyLastQuizTime, models.EpochSeconds(t))
}

// leaseHeld reports whether lease still belongs to its recorded owner at now.
// Tokens that fail verification or have expired leave the lease free.
func (r *BotValueRepository) leaseHeld(lease *models.Lease, now time.Time) bool {
	if lease.IsFree() || lease.Token == "" || lease.Expired(now) {
		return false
	}
	claims, err := security.ParseLeaseToken(lease.Token, r.leaseSecret, now)
	if err != nil {
		return false
	}
	return claims.Subject == lease.Owner
}

func (r *BotValueRepository) issueLease(key, owner string, acquiredAt, now time.Time, ttl time.Duration) (models.Lease, error) {
	// Token expiry has second precision; store the same deadline.
	expires := now.Add(ttl).Truncate(time.Second)
	token, err := security.GenerateLeaseToken(key, owner, now, expires, r.leaseSecret)
	if err != nil {
		return models.Lease{}, errors.Wrap(err, errors.ErrCodeInternalError, "failed to sign lease token")
	}
	return models.Lease{
		Owner:      owner,
		Token:      token,
		AcquiredAt: models.EpochSeconds(acquiredAt),
		ExpiresAt:  models.EpochSeconds(expires),
	}, nil
}

// TryAcquireLease claims key for owner for ttl. It returns false without error
// when another owner holds an unexpired lease. An expired lease is taken over.
func (r *BotValueRepository) TryAcquireLease(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	var lease models.Lease
	err := r.mutate(ctx, key, &lease, func(tx *gorm.DB) error {
		now := r.now()
		if r.leaseHeld(&lease, now) {
			return errLeaseHeld
		}
		if !lease.IsFree() {
			logger.Warn("Taking over expired lease", "key", key, "previous_owner", lease.Owner)
		}

		issued, err := r.issueLease(key, owner, now, now, ttl)
		if err != nil {
			return err
		}
		lease = issued
		return nil
	})

	if err == errLeaseHeld {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RenewLease extends owner's lease to now+ttl. It fails with FORBIDDEN when the
// lease expired or was taken over.
func (r *BotValueRepository) RenewLease(ctx context.Context, key, owner string, ttl time.Duration) error {
	var lease models.Lease
	return r.mutate(ctx, key, &lease, func(tx *gorm.DB) error {
		now := r.now()
		if lease.Owner != owner || !r.leaseHeld(&lease, now) {
			return errLeaseNotOwned
		}

		renewed, err := r.issueLease(key, owner, models.FromEpochSeconds(lease.AcquiredAt), now, ttl)
		if err != nil {
			return err
		}
		lease = renewed
		return nil
	})
}

// ReleaseLease frees key if owner still holds it. Releasing a lease that was
// taken over leaves the new holder untouched and returns false.
func (r *BotValueRepository) ReleaseLease(ctx context.Context, key, owner string) (bool, error) {
	var lease models.Lease
	err := r.mutate(ctx, key, &lease, func(tx *gorm.DB) error {
		if lease.Owner != owner {
			return errLeaseNotOwned
		}
		lease = models.Lease{}
		return nil
	})

	if err == errLeaseNotOwned {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ForceReleaseLease frees key regardless of the holder.
func (r *BotValueRepository) ForceReleaseLease(ctx context.Context, key string) error {
	var lease models.Lease
	return r.mutate(ctx, key, &lease, func(tx *gorm.DB) error {
		lease = models.Lease{}
		return nil
	})
}

// GetLease returns the stored lease and whether it is currently held.
func (r *BotValueRepository) GetLease(ctx context.Context, key string) (*models.Lease, bool, error) {
	var lease models.Lease
	if _, err := r.GetValue(ctx, key, &lease); err != nil {
		return nil, false, err
	}
	return &lease, r.leaseHeld(&lease, r.now()), nil
}

// MutateOpenQuizzes runs fn against the open-quiz registry under its row lock.
func (r *BotValueRepository) MutateOpenQuizzes(ctx context.Context, fn func(tx *gorm.DB, quizzes models.OpenQuizRegistry) error) error {
	quizzes := models.OpenQuizRegistry{}
	return r.mutate(ctx, models.KeyOpenQuizzes, &quizzes, func(tx *gorm.DB) error {
		return fn(tx, quizzes)
	})
}

func (r *BotValueRepository) GetOpenQuizzes(ctx context.Context) (models.OpenQuizRegistry, error) {
	quizzes := models.OpenQuizRegistry{}
	if _, err := r.GetValue(ctx, models.KeyOpenQuizzes, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// MutateHustleGames runs fn against the Word Hustle registry under its row lock.
func (r *BotValueRepository) MutateHustleGames(ctx context.Context, fn func(tx *gorm.DB, games models.HustleRegistry) error) error {
	games := models.HustleRegistry{}
	return r.mutate(ctx, models.KeyHustleGames, &games, func(tx *gorm.DB) error {
		return fn(tx, games)
	})
}

func (r *BotValueRepository) GetHustleGames(ctx context.Context) (models.HustleRegistry, error) {
	games := models.HustleRegistry{}
	if _, err := r.GetValue(ctx, models.KeyHustleGames, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// SetLastQuizPollIDs records the poll sent to each chat by the latest run.
func (r *BotValueRepository) SetLastQuizPollIDs(ctx context.Context, pollIDs map[string]string) error {
	return r.SetValue(ctx, models.KeyLastQuizPollIDs, pollIDs)
}

// NextCounter increments the counter under key and returns its previous value.
func (r *BotValueRepository) NextCounter(ctx context.Context, key string) (int, error) {
	var counter int
	var previous int
	err := r.mutate(ctx, key, &counter, func(tx *gorm.DB) error {
		previous = counter
		counter++
		return nil
	})
	return previous, err
}
