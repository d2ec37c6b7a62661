package repositories

import (
	"context"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to tx so score updates can join a
// transaction opened elsewhere.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// AddScore adds delta to the user's score, creating the row on first credit.
// Non-empty names overwrite the stored ones.
func (r *UserRepository) AddScore(ctx context.Context, userID int64, firstName, username string, delta int) error {
	user := &models.User{
		UserID:    models.UserKey(userID),
		FirstName: firstName,
		Username:  username,
		QuizScore: delta,
	}

	updates := map[string]interface{}{
		"quiz_score": gorm.Expr("user_data.quiz_score + ?", delta),
		"updated_at": time.Now().UTC(),
	}
	if firstName != "" {
		updates["first_name"] = firstName
	}
	if username != "" {
		updates["username"] = username
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(user)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update score")
	}
	return nil
}

// GetUser retrieves a user by Telegram ID
func (r *UserRepository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where(&models.User{UserID: models.UserKey(userID)}).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get user")
	}

	return &user, nil
}

// GetScore returns the user's score, 0 for unknown users.
func (r *UserRepository) GetScore(ctx context.Context, userID int64) (int, error) {
	user, err := r.GetUser(ctx, userID)
	if errors.HasCode(err, errors.ErrCodeNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return user.QuizScore, nil
}

// UpdateSpamState runs fn on the user's row under a row lock and saves the
// spam fields it changed. The row is created if missing.
func (r *UserRepository) UpdateSpamState(ctx context.Context, userID int64, firstName, username string, fn func(user *models.User) error) error {
	key := models.UserKey(userID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := &models.User{UserID: key, FirstName: firstName, Username: username}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create user")
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(&models.User{UserID: key}).First(&user).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock user")
		}

		if err := fn(&user); err != nil {
			return err
		}

		result := tx.Model(&user).Select("spam_timestamps", "spam_blocked_until").Updates(&user)
		if result.Error != nil {
			return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to save spam state")
		}
		return nil
	})
}

// Leaderboard returns one page of users with a positive score, best first.
func (r *UserRepository) Leaderboard(ctx context.Context, offset, limit int) ([]models.LeaderboardEntry, error) {
	var users []models.User
	result := r.db.WithContext(ctx).
		Where("quiz_score > ?", 0).
		Order("quiz_score DESC").
		Order("user_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to load leaderboard")
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, models.LeaderboardEntry{
			Rank:      offset + i + 1,
			UserID:    u.UserID,
			FirstName: u.DisplayName(),
			Score:     u.QuizScore,
		})
	}
	return entries, nil
}

// CountRanked returns how many users have a positive score.
func (r *UserRepository) CountRanked(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("quiz_score > ?", 0).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count ranked users")
	}
	return count, nil
}

// Rank returns the user's leaderboard position, or 0 when unranked.
func (r *UserRepository) Rank(ctx context.Context, userID int64) (int, error) {
	var position int
	result := r.db.WithContext(ctx).Raw(`
		SELECT row_pos FROM (
			SELECT user_id, ROW_NUMBER() OVER (ORDER BY quiz_score DESC, user_id ASC) AS row_pos
			FROM user_data
			WHERE quiz_score > 0
		) ranked
		WHERE user_id = ?`, models.UserKey(userID)).Scan(&position)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to compute rank")
	}
	return position, nil
}

// AllScores returns every user with a positive score, best first.
func (r *UserRepository) AllScores(ctx context.Context) ([]models.User, error) {
	var users []models.User
	result := r.db.WithContext(ctx).
		Where("quiz_score > ?", 0).
		Order("quiz_score DESC").
		Order("user_id ASC").
		Find(&users)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to load scores")
	}
	return users, nil
}
