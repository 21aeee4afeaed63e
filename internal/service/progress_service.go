package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/cypher-quest-api/internal/catalog"
	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/models"
	"github.com/noah-isme/cypher-quest-api/internal/observability"
	"github.com/noah-isme/cypher-quest-api/internal/repository"
)

const clearReward = 100

// ProgressService tracks each learner's position in the quest line.
type ProgressService interface {
	Get(ctx context.Context, learnerID string) (dto.ProgressResponse, error)
	Record(ctx context.Context, attempt *models.QuestAttempt) (dto.ProgressUpdate, error)
	Select(ctx context.Context, learnerID string, payload dto.SelectQuestRequest) (dto.ProgressResponse, error)
	Reset(ctx context.Context, learnerID string) (dto.ProgressResponse, error)
}

type progressService struct {
	repo        repository.ProgressRepository
	registry    *catalog.Registry
	seed        SeedChecker
	cache       *redis.Client
	ttl         time.Duration
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

type questClearedEvent struct {
	LearnerID string    `json:"learner_id"`
	QuestID   string    `json:"quest_id"`
	Score     int       `json:"score"`
	ClearedAt time.Time `json:"cleared_at"`
}

// NewProgressService constructs the progress service. natsConn may be nil.
func NewProgressService(repo repository.ProgressRepository, registry *catalog.Registry, seed SeedChecker, cache *redis.Client, ttl time.Duration, natsConn *nats.Conn, subjectBase string, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	subject := ""
	if base := strings.Trim(subjectBase, "."); base != "" {
		subject = base + ".quest.cleared"
	}

	return &progressService{
		repo:        repo,
		registry:    registry,
		seed:        seed,
		cache:       cache,
		ttl:         ttl,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		now:         time.Now,
	}
}

func (s *progressService) Get(ctx context.Context, learnerID string) (dto.ProgressResponse, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return dto.ProgressResponse{}, ErrLearnerRequired
	}

	if cached, ok := s.fetchCache(ctx, learnerID); ok {
		observability.ProgressCacheLookups().WithLabelValues("hit").Inc()
		return cached, nil
	}
	observability.ProgressCacheLookups().WithLabelValues("miss").Inc()

	progress, err := s.load(ctx, learnerID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	response := toProgressResponse(progress)
	s.writeCache(ctx, response)
	return response, nil
}

// Record stores the graded attempt and applies it to the learner's progress
// in one transaction.
func (s *progressService) Record(ctx context.Context, attempt *models.QuestAttempt) (dto.ProgressUpdate, error) {
	if attempt == nil {
		return dto.ProgressUpdate{}, errors.New("attempt is required")
	}
	learnerID := strings.TrimSpace(attempt.LearnerID)
	if learnerID == "" {
		return dto.ProgressUpdate{}, ErrLearnerRequired
	}
	questID := attempt.QuestID
	if _, ok := s.registry.Get(questID); !ok {
		return dto.ProgressUpdate{}, ErrQuestNotFound
	}
	attempt.LearnerID = learnerID

	seeded := false
	if attempt.Correct {
		var err error
		seeded, err = s.seed.IsSeeded(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("seed status unavailable, assuming unseeded")
			seeded = false
		}
	}

	firstClear := false
	progress, err := s.repo.Update(ctx, s.fresh(learnerID), func(progress *models.LearnerProgress) error {
		firstClear = false
		if progress.Answers == nil {
			progress.Answers = datatypes.JSONMap{}
		}
		progress.Answers[questID] = attempt.Cypher

		if attempt.Correct {
			if !progress.HasCleared(questID) {
				firstClear = true
				progress.SetCleared(append(progress.ClearedList(), questID))
				progress.Score += clearReward
			}
			progress.CurrentQuestID = s.registry.Next(questID, seeded)
		}
		return nil
	}, attempt)
	if err != nil {
		return dto.ProgressUpdate{}, fmt.Errorf("save progress: %w", err)
	}

	// Get refills the cache from the committed row.
	s.invalidate(ctx, learnerID)
	response := toProgressResponse(progress)

	if firstClear {
		s.publishCleared(progress, questID)
	}

	return dto.ProgressUpdate{Progress: response, FirstClear: firstClear}, nil
}

func (s *progressService) Select(ctx context.Context, learnerID string, payload dto.SelectQuestRequest) (dto.ProgressResponse, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return dto.ProgressResponse{}, ErrLearnerRequired
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProgressResponse{}, err
	}

	quest, ok := s.registry.Get(payload.QuestID)
	if !ok {
		return dto.ProgressResponse{}, ErrQuestNotFound
	}
	if quest.Group == catalog.GroupPost {
		seeded, err := s.seed.IsSeeded(ctx)
		if err != nil {
			return dto.ProgressResponse{}, err
		}
		if quest.Locked(seeded) {
			return dto.ProgressResponse{}, ErrSeedRequired
		}
	}

	progress, err := s.repo.Update(ctx, s.fresh(learnerID), func(progress *models.LearnerProgress) error {
		progress.CurrentQuestID = quest.ID
		return nil
	}, nil)
	if err != nil {
		return dto.ProgressResponse{}, fmt.Errorf("save progress: %w", err)
	}

	s.invalidate(ctx, learnerID)
	return toProgressResponse(progress), nil
}

func (s *progressService) Reset(ctx context.Context, learnerID string) (dto.ProgressResponse, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return dto.ProgressResponse{}, ErrLearnerRequired
	}

	if err := s.repo.DeleteByLearner(ctx, learnerID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProgressResponse{}, fmt.Errorf("reset progress: %w", err)
	}
	s.invalidate(ctx, learnerID)

	s.logger.Info().Str("learner_id", learnerID).Msg("progress reset")
	return toProgressResponse(s.fresh(learnerID)), nil
}

func (s *progressService) load(ctx context.Context, learnerID string) (models.LearnerProgress, error) {
	progress, err := s.repo.GetByLearner(ctx, learnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fresh(learnerID), nil
		}
		return models.LearnerProgress{}, fmt.Errorf("load progress: %w", err)
	}
	return progress, nil
}

func (s *progressService) fresh(learnerID string) models.LearnerProgress {
	progress := models.LearnerProgress{
		LearnerID:      learnerID,
		CurrentQuestID: s.registry.First().ID,
		Answers:        datatypes.JSONMap{},
	}
	progress.SetCleared(nil)
	return progress
}

func (s *progressService) publishCleared(progress models.LearnerProgress, questID string) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}

	payload, err := json.Marshal(questClearedEvent{
		LearnerID: progress.LearnerID,
		QuestID:   questID,
		Score:     progress.Score,
		ClearedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode quest cleared event")
		return
	}
	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.natsSubject).Msg("failed to publish quest cleared event")
	}
}

func (s *progressService) cacheKey(learnerID string) string {
	return fmt.Sprintf("progress:learner:%s", learnerID)
}

func (s *progressService) fetchCache(ctx context.Context, learnerID string) (dto.ProgressResponse, bool) {
	if s.cache == nil {
		return dto.ProgressResponse{}, false
	}
	payload, err := s.cache.Get(ctx, s.cacheKey(learnerID)).Result()
	if err != nil {
		return dto.ProgressResponse{}, false
	}

	var response dto.ProgressResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode progress cache")
		return dto.ProgressResponse{}, false
	}
	return response, true
}

func (s *progressService) writeCache(ctx context.Context, response dto.ProgressResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode progress cache")
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(response.LearnerID), payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store progress cache")
	}
}

func (s *progressService) invalidate(ctx context.Context, learnerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(learnerID)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear progress cache")
	}
}

func toProgressResponse(progress models.LearnerProgress) dto.ProgressResponse {
	return dto.ProgressResponse{
		LearnerID:       progress.LearnerID,
		CurrentQuestID:  progress.CurrentQuestID,
		Score:           progress.Score,
		ClearedQuestIDs: progress.ClearedList(),
		Answers:         progress.AnswerMap(),
		UpdatedAt:       progress.UpdatedAt,
	}
}
