package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/catalog"
	"github.com/noah-isme/cypher-quest-api/internal/dto"
)

// QuestService exposes the quest catalogue.
type QuestService interface {
	List(ctx context.Context) (dto.QuestListResult, error)
	Get(ctx context.Context, id string) (dto.QuestDetailResponse, error)
}

type questService struct {
	registry *catalog.Registry
	seed     SeedChecker
	logger   zerolog.Logger
}

// NewQuestService constructs the quest catalogue service.
func NewQuestService(registry *catalog.Registry, seed SeedChecker, logger zerolog.Logger) QuestService {
	return &questService{
		registry: registry,
		seed:     seed,
		logger:   logger.With().Str("component", "quest_service").Logger(),
	}
}

func (s *questService) List(ctx context.Context) (dto.QuestListResult, error) {
	seeded := s.seeded(ctx)

	quests := s.registry.List()
	items := make([]dto.QuestSummary, 0, len(quests))
	for _, quest := range quests {
		items = append(items, dto.QuestSummary{
			ID:        quest.ID,
			Chapter:   quest.Chapter,
			Group:     string(quest.Group),
			Title:     quest.Title,
			Objective: quest.Objective,
			Locked:    quest.Locked(seeded),
		})
	}

	return dto.QuestListResult{Items: items, Seeded: seeded, Total: len(items)}, nil
}

func (s *questService) Get(ctx context.Context, id string) (dto.QuestDetailResponse, error) {
	quest, ok := s.registry.Get(id)
	if !ok {
		return dto.QuestDetailResponse{}, ErrQuestNotFound
	}
	seeded := s.seeded(ctx)

	checker := dto.CheckerSummary{}
	if spec := s.registry.Checker(quest.ID); spec != nil {
		checker.Type = string(spec.Kind())
		checker.Columns = append([]string(nil), spec.Columns...)
	}

	detail := dto.QuestDetailResponse{
		ID:            quest.ID,
		Chapter:       quest.Chapter,
		Group:         string(quest.Group),
		Title:         quest.Title,
		Story:         quest.Story,
		Objective:     quest.Objective,
		StarterCypher: quest.StarterCypher,
		Hints:         quest.Hints,
		AllowedOps:    quest.AllowedOps,
		Constraints: dto.QuestConstraints{
			DenyWrite:   quest.Constraints.DenyWrite,
			RequireSeed: quest.Constraints.RequireSeed,
		},
		Checker: checker,
		Locked:  quest.Locked(seeded),
	}
	if next := s.registry.Next(quest.ID, seeded); next != quest.ID {
		detail.NextQuestID = next
	}
	return detail, nil
}

// seeded treats an unreachable graph as unseeded so the catalogue stays
// browsable.
func (s *questService) seeded(ctx context.Context) bool {
	seeded, err := s.seed.IsSeeded(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("seed status unavailable")
		return false
	}
	return seeded
}
