package handler_test

import (
	"context"

	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/models"
	"github.com/noah-isme/cypher-quest-api/internal/service"
)

const learnerID = "6f1c2b0e-4e0a-4b8b-9e0d-2d6a0c1d7e11"

type stubQuestService struct {
	list   dto.QuestListResult
	detail dto.QuestDetailResponse
	err    error
}

func (s stubQuestService) List(context.Context) (dto.QuestListResult, error) {
	return s.list, s.err
}

func (s stubQuestService) Get(_ context.Context, id string) (dto.QuestDetailResponse, error) {
	return s.detail, s.err
}

type stubQueryService struct {
	response dto.QueryRunResponse
	err      error
	last     *dto.QueryRunRequest
}

func (s stubQueryService) Run(_ context.Context, payload dto.QueryRunRequest) (dto.QueryRunResponse, error) {
	if s.last != nil {
		*s.last = payload
	}
	return s.response, s.err
}

func (s stubQueryService) Execute(context.Context, string, string) (service.Execution, error) {
	return service.Execution{}, s.err
}

type stubSubmissionService struct {
	evaluation dto.EvaluationResponse
	submission dto.SubmissionResponse
	attempts   []dto.AttemptResponse
	err        error
	learner    *string
}

func (s stubSubmissionService) Evaluate(context.Context, string, dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	return s.evaluation, s.err
}

func (s stubSubmissionService) Submit(_ context.Context, learnerID, _ string, _ dto.SubmitRequest) (dto.SubmissionResponse, error) {
	if s.learner != nil {
		*s.learner = learnerID
	}
	return s.submission, s.err
}

func (s stubSubmissionService) History(_ context.Context, learnerID, _ string, _ int) ([]dto.AttemptResponse, error) {
	if s.learner != nil {
		*s.learner = learnerID
	}
	return s.attempts, s.err
}

type stubProgressService struct {
	progress dto.ProgressResponse
	err      error
}

func (s stubProgressService) Get(context.Context, string) (dto.ProgressResponse, error) {
	return s.progress, s.err
}

func (s stubProgressService) Record(context.Context, *models.QuestAttempt) (dto.ProgressUpdate, error) {
	return dto.ProgressUpdate{Progress: s.progress}, s.err
}

func (s stubProgressService) Select(_ context.Context, _ string, payload dto.SelectQuestRequest) (dto.ProgressResponse, error) {
	progress := s.progress
	progress.CurrentQuestID = payload.QuestID
	return progress, s.err
}

func (s stubProgressService) Reset(context.Context, string) (dto.ProgressResponse, error) {
	return s.progress, s.err
}

type stubSeedService struct {
	result dto.SeedResult
	status dto.SeedStatusResponse
	err    error
	token  *string
}

func (s stubSeedService) Seed(_ context.Context, token string) (dto.SeedResult, error) {
	if s.token != nil {
		*s.token = token
	}
	return s.result, s.err
}

func (s stubSeedService) Status(context.Context) (dto.SeedStatusResponse, error) {
	return s.status, s.err
}

func (s stubSeedService) IsSeeded(context.Context) (bool, error) {
	return s.status.Seeded, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}
