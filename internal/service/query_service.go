package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/cypher-quest-api/internal/catalog"
	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/grader"
	"github.com/noah-isme/cypher-quest-api/internal/observability"
	"github.com/noah-isme/cypher-quest-api/pkg/graphdb"
)

// Execution is a normalised query result together with run metadata.
type Execution struct {
	Result    grader.QueryResult
	Truncated bool
	Elapsed   time.Duration
}

// SeedChecker reports whether the graph holds the seed dataset.
type SeedChecker interface {
	IsSeeded(ctx context.Context) (bool, error)
}

// QueryService runs learner queries against the graph database.
type QueryService interface {
	Run(ctx context.Context, payload dto.QueryRunRequest) (dto.QueryRunResponse, error)
	Execute(ctx context.Context, questID, cypher string) (Execution, error)
}

type queryService struct {
	runner    graphdb.Runner
	registry  *catalog.Registry
	seed      SeedChecker
	validator *validator.Validate
	timeout   time.Duration
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewQueryService constructs the read-only query service.
func NewQueryService(runner graphdb.Runner, registry *catalog.Registry, seed SeedChecker, validate *validator.Validate, timeout time.Duration, logger zerolog.Logger) QueryService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &queryService{
		runner:    runner,
		registry:  registry,
		seed:      seed,
		validator: validate,
		timeout:   timeout,
		logger:    logger.With().Str("component", "query_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/cypher-quest-api/internal/service/query"),
	}
}

func (s *queryService) Run(ctx context.Context, payload dto.QueryRunRequest) (dto.QueryRunResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QueryRunResponse{}, err
	}

	exec, err := s.execute(ctx, strings.TrimSpace(payload.QuestID), payload.Cypher, payload.Params)
	if err != nil {
		return dto.QueryRunResponse{}, err
	}
	return dto.NewQueryRunResponse(exec.Result, exec.Truncated, exec.Elapsed.Milliseconds()), nil
}

func (s *queryService) Execute(ctx context.Context, questID, cypher string) (Execution, error) {
	return s.execute(ctx, questID, cypher, nil)
}

func (s *queryService) execute(ctx context.Context, questID, raw string, params map[string]any) (Execution, error) {
	ctx, span := s.tracer.Start(ctx, "query.execute", trace.WithAttributes(
		attribute.String("quest.id", questID),
	))
	defer span.End()

	cypher, err := guardCypher(raw)
	if err != nil {
		s.block(span, err)
		return Execution{}, err
	}

	if questID != "" {
		quest, ok := s.registry.Get(questID)
		if !ok {
			return Execution{}, ErrQuestNotFound
		}
		if err := checkAllowedOps(cypher, quest.AllowedOps); err != nil {
			s.block(span, err)
			return Execution{}, err
		}
		if quest.Constraints.RequireSeed {
			seeded, err := s.seed.IsSeeded(ctx)
			if err != nil {
				return Execution{}, s.mapRunnerError(err)
			}
			if !seeded {
				return Execution{}, ErrSeedRequired
			}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.runner.Run(runCtx, graphdb.Statement{Cypher: cypher, Params: params})
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Execution{}, s.mapRunnerError(err)
	}

	result := toQueryResult(out)
	span.SetAttributes(attribute.Int("query.rows", len(result.Rows)))
	s.logger.Debug().
		Str("quest_id", questID).
		Int("rows", len(result.Rows)).
		Dur("elapsed", elapsed).
		Msg("query executed")

	return Execution{Result: result, Truncated: out.Truncated, Elapsed: elapsed}, nil
}

func (s *queryService) block(span trace.Span, err error) {
	reason := "write"
	var keywordErr *KeywordNotAllowedError
	switch {
	case errors.Is(err, ErrQueryRequired):
		reason = "empty"
	case errors.As(err, &keywordErr):
		reason = "keyword"
	}
	observability.BlockedQueries().WithLabelValues(reason).Inc()
	span.SetAttributes(attribute.String("query.blocked", reason))
}

func (s *queryService) mapRunnerError(err error) error {
	switch {
	case errors.Is(err, graphdb.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrQueryTimeout
	case errors.Is(err, graphdb.ErrUnavailable):
		s.logger.Error().Err(err).Msg("graph database unavailable")
		return fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	default:
		return err
	}
}

func toQueryResult(raw graphdb.Result) grader.QueryResult {
	columns := append([]string{}, raw.Keys...)
	rows := make([]grader.Row, 0, len(raw.Rows))
	for _, values := range raw.Rows {
		row := make(grader.Row, len(values))
		for i, value := range values {
			row[i] = grader.FromValue(value)
		}
		rows = append(rows, row)
	}
	return grader.QueryResult{Columns: columns, Rows: rows}
}
