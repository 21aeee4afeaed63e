package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/cypher-quest-api/internal/models"
)

// AttemptFilter narrows attempt history queries.
type AttemptFilter struct {
	LearnerID string
	QuestID   string
	Limit     int
}

// AttemptRepository reads graded submissions. Attempts are written together
// with progress by ProgressRepository.Update.
type AttemptRepository interface {
	ListRecent(ctx context.Context, filter AttemptFilter) ([]models.QuestAttempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository constructs an attempt repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) ListRecent(ctx context.Context, filter AttemptFilter) ([]models.QuestAttempt, error) {
	query := r.db.WithContext(ctx).Model(&models.QuestAttempt{}).Where("learner_id = ?", filter.LearnerID)

	if questID := strings.TrimSpace(filter.QuestID); questID != "" {
		query = query.Where("quest_id = ?", questID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var attempts []models.QuestAttempt
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
