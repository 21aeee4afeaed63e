package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/cypher-quest-api/internal/models"
)

// ProgressMutation edits a learner's progress row while it is locked.
type ProgressMutation func(progress *models.LearnerProgress) error

// ProgressRepository persists learner progress.
type ProgressRepository interface {
	GetByLearner(ctx context.Context, learnerID string) (models.LearnerProgress, error)
	Update(ctx context.Context, initial models.LearnerProgress, mutate ProgressMutation, attempt *models.QuestAttempt) (models.LearnerProgress, error)
	DeleteByLearner(ctx context.Context, learnerID string) error
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs a progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) GetByLearner(ctx context.Context, learnerID string) (models.LearnerProgress, error) {
	var progress models.LearnerProgress
	err := r.db.WithContext(ctx).Where("learner_id = ?", learnerID).First(&progress).Error
	return progress, err
}

// Update applies mutate to the learner's row inside one transaction. The row
// is created from initial when missing and read with a row lock, so concurrent
// updates for the same learner run one after another. A non-nil attempt is
// inserted in the same transaction.
func (r *progressRepository) Update(ctx context.Context, initial models.LearnerProgress, mutate ProgressMutation, attempt *models.QuestAttempt) (models.LearnerProgress, error) {
	if initial.LearnerID == "" {
		return models.LearnerProgress{}, errors.New("learner id is required")
	}
	if mutate == nil {
		return models.LearnerProgress{}, errors.New("progress mutation is required")
	}

	var progress models.LearnerProgress
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := initial
		seed.ID = 0
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "learner_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("learner_id = ?", initial.LearnerID).
			First(&progress).Error; err != nil {
			return err
		}

		if err := mutate(&progress); err != nil {
			return err
		}

		if err := tx.Save(&progress).Error; err != nil {
			return err
		}

		if attempt != nil {
			if err := tx.Create(attempt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.LearnerProgress{}, err
	}
	return progress, nil
}

func (r *progressRepository) DeleteByLearner(ctx context.Context, learnerID string) error {
	result := r.db.WithContext(ctx).Where("learner_id = ?", learnerID).Delete(&models.LearnerProgress{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
