package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/cypher-quest-api/internal/catalog"
	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/grader"
	"github.com/noah-isme/cypher-quest-api/internal/models"
	"github.com/noah-isme/cypher-quest-api/internal/observability"
	"github.com/noah-isme/cypher-quest-api/internal/repository"
)

// SubmissionService grades query results against quest checkers.
type SubmissionService interface {
	Evaluate(ctx context.Context, questID string, payload dto.EvaluateRequest) (dto.EvaluationResponse, error)
	Submit(ctx context.Context, learnerID, questID string, payload dto.SubmitRequest) (dto.SubmissionResponse, error)
	History(ctx context.Context, learnerID, questID string, limit int) ([]dto.AttemptResponse, error)
}

type submissionService struct {
	registry  *catalog.Registry
	queries   QueryService
	progress  ProgressService
	attempts  repository.AttemptRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(registry *catalog.Registry, queries QueryService, progress ProgressService, attempts repository.AttemptRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		registry:  registry,
		queries:   queries,
		progress:  progress,
		attempts:  attempts,
		validator: validate,
		logger:    logger.With().Str("component", "submission_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/cypher-quest-api/internal/service/submission"),
	}
}

func (s *submissionService) Evaluate(ctx context.Context, questID string, payload dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	questID = strings.TrimSpace(questID)
	spec := s.registry.Checker(questID)
	if spec == nil {
		return dto.EvaluationResponse{}, ErrQuestNotFound
	}

	evaluation := s.grade(ctx, spec, payload.Result())
	return dto.NewEvaluationResponse(questID, evaluation), nil
}

func (s *submissionService) Submit(ctx context.Context, learnerID, questID string, payload dto.SubmitRequest) (dto.SubmissionResponse, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return dto.SubmissionResponse{}, ErrLearnerRequired
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	questID = strings.TrimSpace(questID)
	spec := s.registry.Checker(questID)
	if spec == nil {
		return dto.SubmissionResponse{}, ErrQuestNotFound
	}

	exec, err := s.queries.Execute(ctx, questID, payload.Cypher)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	evaluation := s.grade(ctx, spec, &exec.Result)
	cypher := normalizeCypher(payload.Cypher)

	attempt := models.QuestAttempt{
		LearnerID: learnerID,
		QuestID:   questID,
		Cypher:    cypher,
		Correct:   evaluation.Correct,
		Outcome:   string(evaluation.Outcome),
		Feedback:  evaluation.Feedback,
		RowCount:  len(exec.Result.Rows),
	}
	update, err := s.progress.Record(ctx, &attempt)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Str("learner_id", learnerID).
		Str("quest_id", questID).
		Bool("correct", evaluation.Correct).
		Str("outcome", string(evaluation.Outcome)).
		Msg("submission graded")

	return dto.SubmissionResponse{
		Evaluation: dto.NewEvaluationResponse(questID, evaluation),
		Result:     dto.NewQueryRunResponse(exec.Result, exec.Truncated, exec.Elapsed.Milliseconds()),
		Progress:   update.Progress,
		FirstClear: update.FirstClear,
	}, nil
}

func (s *submissionService) History(ctx context.Context, learnerID, questID string, limit int) ([]dto.AttemptResponse, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return nil, ErrLearnerRequired
	}

	questID = strings.TrimSpace(questID)
	if questID != "" {
		if _, ok := s.registry.Get(questID); !ok {
			return nil, ErrQuestNotFound
		}
	}

	attempts, err := s.attempts.ListRecent(ctx, repository.AttemptFilter{
		LearnerID: learnerID,
		QuestID:   questID,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, dto.AttemptResponse{
			ID:        attempt.ID,
			QuestID:   attempt.QuestID,
			Cypher:    attempt.Cypher,
			Correct:   attempt.Correct,
			Outcome:   attempt.Outcome,
			Feedback:  attempt.Feedback,
			RowCount:  attempt.RowCount,
			CreatedAt: attempt.CreatedAt,
		})
	}
	return responses, nil
}

func (s *submissionService) grade(ctx context.Context, spec *grader.CheckerSpec, result *grader.QueryResult) grader.Evaluation {
	_, span := s.tracer.Start(ctx, "submission.grade", trace.WithAttributes(
		attribute.String("checker.type", string(spec.Kind())),
	))
	defer span.End()

	evaluation := grader.Evaluate(result, spec)
	observability.Evaluations().WithLabelValues(string(spec.Kind()), string(evaluation.Outcome)).Inc()
	span.SetAttributes(
		attribute.Bool("evaluation.correct", evaluation.Correct),
		attribute.String("evaluation.outcome", string(evaluation.Outcome)),
	)
	return evaluation
}
