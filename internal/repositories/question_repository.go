package repositories

import (
	"context"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// RandomQuestion retrieves a random question from the local bank
func (r *QuestionRepository) RandomQuestion(ctx context.Context) (*models.Question, error) {
	var question models.Question
	result := r.db.WithContext(ctx).Order("RANDOM()").First(&question)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "no questions found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get question")
	}

	return &question, nil
}

// BulkCreate inserts questions, skipping texts already in the bank, and
// returns how many rows were added.
func (r *QuestionRepository) BulkCreate(ctx context.Context, questions []models.Question) (int64, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "question_text"}}, DoNothing: true}).
		CreateInBatches(&questions, 100)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to import questions")
	}
	return result.RowsAffected, nil
}

func (r *QuestionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Question{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count questions")
	}
	return count, nil
}
