package handler_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cypher-quest-api/internal/catalog"
	"github.com/noah-isme/cypher-quest-api/internal/config"
	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/grader"
	"github.com/noah-isme/cypher-quest-api/internal/handler"
	"github.com/noah-isme/cypher-quest-api/internal/middleware"
	"github.com/noah-isme/cypher-quest-api/internal/service"
	"github.com/noah-isme/cypher-quest-api/internal/utils"
	"github.com/noah-isme/cypher-quest-api/pkg/graphdb"
)

func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeEnvelope(t *testing.T, raw []byte) utils.APIResponse {
	t.Helper()
	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	return schema
}

func validateAgainst(t *testing.T, schema *jsonschema.Schema, raw []byte) {
	t.Helper()
	var instance any
	require.NoError(t, json.Unmarshal(raw, &instance))
	require.NoError(t, schema.Validate(instance))
}

func TestHealthCheckReportsGraphState(t *testing.T) {
	cfg := config.Config{AppName: "Cypher Quest API", AppEnv: "test"}

	app := fiber.New()
	app.Get("/ok", handler.HealthCheck(cfg, stubPinger{}))
	app.Get("/down", handler.HealthCheck(cfg, stubPinger{err: errors.New("refused")}))
	app.Get("/none", handler.HealthCheck(cfg, nil))

	resp, raw := doJSON(t, app, http.MethodGet, "/ok", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var healthy struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &healthy))
	require.True(t, healthy.Success)
	require.Equal(t, "reachable", healthy.Data.Graph)
	require.Equal(t, cfg.AppName, healthy.Data.Service)

	resp, _ = doJSON(t, app, http.MethodGet, "/down", "", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp, raw = doJSON(t, app, http.MethodGet, "/none", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"graph":"unknown"`)
}

func TestQuestHandlerListAndDetail(t *testing.T) {
	app := fiber.New()
	svc := stubQuestService{
		list: dto.QuestListResult{
			Items:  []dto.QuestSummary{{ID: "C0-Q1", Group: "pre"}, {ID: "CH1-Q1", Group: "post", Locked: true}},
			Total:  2,
			Seeded: false,
		},
		detail: dto.QuestDetailResponse{ID: "C0-Q1", Checker: dto.CheckerSummary{Type: "rows_exact", Columns: []string{"ok"}}},
	}
	handler.NewQuestHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/quests"))

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/quests", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	envelope := decodeEnvelope(t, raw)
	require.True(t, envelope.Success)
	require.Len(t, envelope.Data, 2)
	require.Equal(t, false, envelope.Meta.(map[string]any)["seeded"])

	resp, raw = doJSON(t, app, http.MethodGet, "/api/v1/quests/C0-Q1", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"type":"rows_exact"`)
	require.NotContains(t, string(raw), `"rows"`)

	missing := fiber.New()
	handler.NewQuestHandler(stubQuestService{err: service.ErrQuestNotFound}, zerolog.Nop()).Register(missing.Group("/api/v1/quests"))
	resp, _ = doJSON(t, missing, http.MethodGet, "/api/v1/quests/nope", "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestQueryHandlerRun(t *testing.T) {
	var last dto.QueryRunRequest
	svc := stubQueryService{
		response: dto.NewQueryRunResponse(grader.QueryResult{Columns: []string{"ok"}, Rows: []grader.Row{grader.R(1)}}, false, 3),
		last:     &last,
	}
	app := fiber.New()
	handler.NewQueryHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1"))

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/run", `{"cypher":"RETURN 1 AS ok","quest_id":"C0-Q1"}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "C0-Q1", last.QuestID)
	require.Contains(t, string(raw), `"rows":[[1]]`)
	require.Contains(t, string(raw), `"row_count":1`)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/run", `{"cypher":`, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestQueryHandlerMapsErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrQueryRequired, fiber.StatusBadRequest},
		{service.ErrWriteNotAllowed, fiber.StatusForbidden},
		{&service.KeywordNotAllowedError{Keywords: []string{"WHERE"}}, fiber.StatusBadRequest},
		{service.ErrQuestNotFound, fiber.StatusNotFound},
		{service.ErrSeedRequired, fiber.StatusConflict},
		{service.ErrQueryTimeout, fiber.StatusGatewayTimeout},
		{service.ErrGraphUnavailable, fiber.StatusServiceUnavailable},
		{&graphdb.QueryError{Code: "Neo.ClientError.Statement.SyntaxError", Message: "Invalid input"}, fiber.StatusBadRequest},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := fiber.New()
		handler.NewQueryHandler(stubQueryService{err: tc.err}, zerolog.Nop()).Register(app.Group("/api/v1"))

		resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/run", `{"cypher":"RETURN 1"}`, nil)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		require.False(t, decodeEnvelope(t, raw).Success)
	}
}

func TestQueryHandlerKeywordErrorCarriesDetails(t *testing.T) {
	app := fiber.New()
	svc := stubQueryService{err: &service.KeywordNotAllowedError{Keywords: []string{"WHERE", "LIMIT"}}}
	handler.NewQueryHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1"))

	_, raw := doJSON(t, app, http.MethodPost, "/api/v1/run", `{"cypher":"MATCH (n) WHERE n.x = 1 RETURN n LIMIT 1"}`, nil)
	require.Contains(t, string(raw), `"details":{"keywords":["WHERE","LIMIT"]}`)
}

func TestQueryHandlerRunsGuardsFirst(t *testing.T) {
	app := fiber.New()
	blocked := func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusTooManyRequests, "slow down")
	}
	handler.NewQueryHandler(stubQueryService{}, zerolog.Nop()).Register(app.Group("/api/v1"), blocked)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/run", `{"cypher":"RETURN 1"}`, nil)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestSubmissionHandlerEvaluateMatchesContract(t *testing.T) {
	schema := compileSchema(t, "evaluation_envelope.schema.json")
	svc := stubSubmissionService{evaluation: dto.EvaluationResponse{
		QuestID:  "C0-Q1",
		Correct:  false,
		Feedback: "The values do not match the expected answer.",
		Outcome:  string(grader.OutcomeMismatch),
	}}
	app := fiber.New()
	handler.NewSubmissionHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/quests"))

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/quests/C0-Q1/evaluate", `{"fields":["ok"],"values":[[2]]}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateAgainst(t, schema, raw)

	missing := fiber.New()
	handler.NewSubmissionHandler(stubSubmissionService{err: service.ErrQuestNotFound}, zerolog.Nop()).Register(missing.Group("/api/v1/quests"))
	resp, _ = doJSON(t, missing, http.MethodPost, "/api/v1/quests/nope/evaluate", `{}`, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmissionHandlerEvaluateTreatsMalformedTableAsUnreadable(t *testing.T) {
	registry, err := catalog.Load()
	require.NoError(t, err)
	svc := service.NewSubmissionService(registry, nil, nil, nil, nil, zerolog.Nop())
	app := fiber.New()
	handler.NewSubmissionHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/quests"))

	for _, body := range []string{
		`{"columns":["ok"],"rows":"oops"}`,
		`{"columns":"ok","rows":[[1]]}`,
		`{"fields":["ok"],"values":[1,2]}`,
		`{"columns":["ok"]}`,
	} {
		resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/quests/C0-Q1/evaluate", body, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

		var envelope struct {
			Success bool                   `json:"success"`
			Data    dto.EvaluationResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &envelope))
		require.True(t, envelope.Success)
		require.False(t, envelope.Data.Correct)
		require.Equal(t, string(grader.OutcomeUnreadable), envelope.Data.Outcome, body)
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/quests/C0-Q1/evaluate", `"oops"`, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerSubmitRequiresLearner(t *testing.T) {
	schema := compileSchema(t, "submission_envelope.schema.json")
	var learner string
	svc := stubSubmissionService{
		learner: &learner,
		submission: dto.SubmissionResponse{
			Evaluation: dto.EvaluationResponse{QuestID: "C0-Q1", Correct: true, Feedback: "Correct!", Outcome: "success"},
			Result:     dto.NewQueryRunResponse(grader.QueryResult{Columns: []string{"ok"}, Rows: []grader.Row{grader.R(1)}}, false, 4),
			Progress: dto.ProgressResponse{
				LearnerID:       learnerID,
				CurrentQuestID:  "C0-Q2",
				Score:           100,
				ClearedQuestIDs: []string{"C0-Q1"},
				Answers:         map[string]string{"C0-Q1": "RETURN 1 AS ok"},
			},
			FirstClear: true,
		},
	}
	app := fiber.New()
	handler.NewSubmissionHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/quests"))

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/quests/C0-Q1/submit", `{"cypher":"RETURN 1 AS ok"}`, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/quests/C0-Q1/submit", `{"cypher":"RETURN 1 AS ok"}`,
		map[string]string{middleware.LearnerHeader: learnerID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, learnerID, learner)
	require.Equal(t, "quest cleared", decodeEnvelope(t, raw).Message)
	validateAgainst(t, schema, raw)
}

func TestProgressHandlerRoutes(t *testing.T) {
	var learner string
	progress := stubProgressService{progress: dto.ProgressResponse{
		LearnerID:       learnerID,
		CurrentQuestID:  "C0-Q1",
		ClearedQuestIDs: []string{},
		Answers:         map[string]string{},
	}}
	submissions := stubSubmissionService{
		learner:  &learner,
		attempts: []dto.AttemptResponse{{ID: 2, QuestID: "C0-Q1", Correct: true}, {ID: 1, QuestID: "C0-Q1"}},
	}
	app := fiber.New()
	handler.NewProgressHandler(progress, submissions, zerolog.Nop()).Register(app.Group("/api/v1/progress"))
	headers := map[string]string{middleware.LearnerHeader: learnerID}

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/progress", "", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/progress", "", headers)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"current_quest_id":"C0-Q1"`)

	resp, raw = doJSON(t, app, http.MethodPut, "/api/v1/progress/current", `{"quest_id":"C0-Q2"}`, headers)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"current_quest_id":"C0-Q2"`)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/progress", "", headers)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, raw = doJSON(t, app, http.MethodGet, "/api/v1/progress/attempts?limit=5", "", headers)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, learnerID, learner)
	require.Len(t, decodeEnvelope(t, raw).Data, 2)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/progress/attempts?limit=-1", "", headers)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProgressHandlerMapsErrors(t *testing.T) {
	cases := map[error]int{
		service.ErrQuestNotFound: fiber.StatusNotFound,
		service.ErrSeedRequired:  fiber.StatusConflict,
		errors.New("db down"):    fiber.StatusInternalServerError,
	}
	for err, status := range cases {
		app := fiber.New()
		handler.NewProgressHandler(stubProgressService{err: err}, stubSubmissionService{}, zerolog.Nop()).Register(app.Group("/api/v1/progress"))

		resp, _ := doJSON(t, app, http.MethodPut, "/api/v1/progress/current", `{"quest_id":"CH1-Q1"}`,
			map[string]string{middleware.LearnerHeader: learnerID})
		require.Equal(t, status, resp.StatusCode, err.Error())
	}
}

func TestSeedHandler(t *testing.T) {
	var token string
	svc := stubSeedService{
		token:  &token,
		result: dto.SeedResult{Seeded: true, NodeCount: 12},
		status: dto.SeedStatusResponse{Seeded: true, NodeCount: 12},
	}
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/seed"))

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/seed", "", map[string]string{middleware.SeedTokenHeader: "secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "secret", token)
	require.Equal(t, "dataset seeded", decodeEnvelope(t, raw).Message)

	resp, raw = doJSON(t, app, http.MethodGet, "/api/v1/seed/status", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"node_count":12`)

	for err, status := range map[error]int{
		service.ErrSeedDisabled:     fiber.StatusForbidden,
		service.ErrSeedUnauthorized: fiber.StatusForbidden,
		graphdb.ErrUnavailable:      fiber.StatusServiceUnavailable,
	} {
		failing := fiber.New()
		handler.NewSeedHandler(stubSeedService{err: err}, zerolog.Nop()).Register(failing.Group("/api/v1/seed"))
		resp, _ := doJSON(t, failing, http.MethodPost, "/api/v1/seed", "", nil)
		require.Equal(t, status, resp.StatusCode, err.Error())
	}
}
