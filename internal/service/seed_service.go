package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/grader"
	"github.com/noah-isme/cypher-quest-api/internal/observability"
	"github.com/noah-isme/cypher-quest-api/pkg/graphdb"
)

const (
	seedStatusKey   = "graph:seeded"
	nodeCountCypher = "MATCH (n) RETURN count(n) AS cnt"
)

// SeedService loads the quest dataset into the graph and reports whether it
// is present.
type SeedService interface {
	Seed(ctx context.Context, token string) (dto.SeedResult, error)
	Status(ctx context.Context) (dto.SeedStatusResponse, error)
	IsSeeded(ctx context.Context) (bool, error)
}

type seedService struct {
	runner  graphdb.Runner
	dataset string
	cache   *redis.Client
	ttl     time.Duration
	enabled bool
	token   string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSeedService constructs a seeding service. dataset is the write statement
// that loads the graph.
func NewSeedService(runner graphdb.Runner, dataset string, cache *redis.Client, ttl time.Duration, enabled bool, token string, logger zerolog.Logger) SeedService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &seedService{
		runner:  runner,
		dataset: dataset,
		cache:   cache,
		ttl:     ttl,
		enabled: enabled,
		token:   token,
		logger:  logger.With().Str("component", "seed_service").Logger(),
		now:     time.Now,
	}
}

func (s *seedService) Seed(ctx context.Context, token string) (dto.SeedResult, error) {
	if !s.enabled {
		observability.SeedOperations().WithLabelValues("disabled").Inc()
		return dto.SeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		observability.SeedOperations().WithLabelValues("unauthorized").Inc()
		return dto.SeedResult{}, ErrSeedUnauthorized
	}

	count, err := s.nodeCount(ctx)
	if err != nil {
		observability.SeedOperations().WithLabelValues("error").Inc()
		return dto.SeedResult{}, err
	}
	if count > 0 {
		observability.SeedOperations().WithLabelValues("skipped").Inc()
		s.logger.Info().Int64("nodes", count).Msg("graph already seeded")
		return dto.SeedResult{Seeded: true, Skipped: true, NodeCount: count}, nil
	}

	if _, err := s.runner.Run(ctx, graphdb.Statement{Cypher: s.dataset, Write: true}); err != nil {
		observability.SeedOperations().WithLabelValues("error").Inc()
		return dto.SeedResult{}, fmt.Errorf("load seed dataset: %w", err)
	}
	s.invalidate(ctx)

	count, err = s.nodeCount(ctx)
	if err != nil {
		return dto.SeedResult{}, err
	}

	observability.SeedOperations().WithLabelValues("seeded").Inc()
	s.logger.Info().Int64("nodes", count).Msg("seed dataset loaded")
	return dto.SeedResult{Seeded: count > 0, NodeCount: count}, nil
}

func (s *seedService) Status(ctx context.Context) (dto.SeedStatusResponse, error) {
	if cached, ok := s.fetchCache(ctx); ok {
		cached.CacheHit = true
		return cached, nil
	}

	count, err := s.nodeCount(ctx)
	if err != nil {
		return dto.SeedStatusResponse{}, err
	}

	status := dto.SeedStatusResponse{
		Seeded:    count > 0,
		NodeCount: count,
		CheckedAt: s.now().UTC(),
	}
	s.writeCache(ctx, status)
	return status, nil
}

func (s *seedService) IsSeeded(ctx context.Context) (bool, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Seeded, nil
}

func (s *seedService) nodeCount(ctx context.Context) (int64, error) {
	result, err := s.runner.Run(ctx, graphdb.Statement{Cypher: nodeCountCypher})
	if err != nil {
		return 0, fmt.Errorf("count graph nodes: %w", err)
	}
	if len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0, nil
	}
	value, ok := grader.FromValue(result.Rows[0][0]).Number()
	if !ok {
		return 0, fmt.Errorf("count graph nodes: unexpected value %v", result.Rows[0][0])
	}
	return int64(value), nil
}

func (s *seedService) fetchCache(ctx context.Context) (dto.SeedStatusResponse, bool) {
	if s.cache == nil {
		return dto.SeedStatusResponse{}, false
	}
	payload, err := s.cache.Get(ctx, seedStatusKey).Result()
	if err != nil {
		return dto.SeedStatusResponse{}, false
	}

	var status dto.SeedStatusResponse
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode seed status cache")
		return dto.SeedStatusResponse{}, false
	}
	return status, true
}

func (s *seedService) writeCache(ctx context.Context, status dto.SeedStatusResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(status)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode seed status cache")
		return
	}
	if err := s.cache.Set(ctx, seedStatusKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store seed status cache")
	}
}

func (s *seedService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, seedStatusKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear seed status cache")
	}
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
