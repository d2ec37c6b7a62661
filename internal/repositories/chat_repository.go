package repositories

import (
	"context"
	"strconv"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Register records a group chat and marks it active again.
func (r *ChatRepository) Register(ctx context.Context, chatID int64, title string) error {
	chat := &models.Chat{ChatID: strconv.FormatInt(chatID, 10), Title: title, IsActive: true}

	updates := []string{"is_active", "updated_at"}
	if title != "" {
		updates = append(updates, "title")
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(chat)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to register chat")
	}
	return nil
}

// ActiveChatIDs lists every chat still eligible for broadcasts.
func (r *ChatRepository) ActiveChatIDs(ctx context.Context) ([]int64, error) {
	var keys []string
	result := r.db.WithContext(ctx).Model(&models.Chat{}).
		Where("is_active = ?", true).
		Order("chat_id").
		Pluck("chat_id", &keys)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list chats")
	}

	ids := make([]int64, 0, len(keys))
	for _, key := range keys {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			logger.Warn("Skipping chat with malformed id", "chat_id", key)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Deactivate stops broadcasts to chatID without dropping its row.
func (r *ChatRepository) Deactivate(ctx context.Context, chatID int64) error {
	result := r.db.WithContext(ctx).Model(&models.Chat{}).
		Where("chat_id = ?", strconv.FormatInt(chatID, 10)).
		Update("is_active", false)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to deactivate chat")
	}
	return nil
}

func (r *ChatRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Chat{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count chats")
	}
	return count, nil
}
