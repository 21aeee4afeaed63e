package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/grader"
	"github.com/noah-isme/cypher-quest-api/internal/models"
	"github.com/noah-isme/cypher-quest-api/internal/repository"
	"github.com/noah-isme/cypher-quest-api/pkg/graphdb"
)

func newSubmissionService(t *testing.T, runner *fakeRunner) SubmissionService {
	t.Helper()
	db := testDB(t, &models.LearnerProgress{}, &models.QuestAttempt{})
	_, client := testRedis(t)
	registry := testRegistry(t)
	seed := staticSeed(false)

	queries := NewQueryService(runner, registry, seed, testValidator(), time.Second, testLogger())
	progress := NewProgressService(repository.NewProgressRepository(db), registry, seed, client, time.Minute, nil, "", testValidator(), testLogger())
	return NewSubmissionService(registry, queries, progress, repository.NewAttemptRepository(db), testValidator(), testLogger())
}

func TestSubmissionServiceEvaluateAcceptsBothSpellings(t *testing.T) {
	svc := newSubmissionService(t, &fakeRunner{})

	resp, err := svc.Evaluate(context.Background(), "C0-Q1", dto.EvaluateRequest{
		Fields: []string{"ok"},
		Values: []grader.Row{grader.R(1)},
	})
	require.NoError(t, err)
	require.True(t, resp.Correct)
	require.Equal(t, "C0-Q1", resp.QuestID)
	require.Equal(t, string(grader.OutcomeSuccess), resp.Outcome)

	resp, err = svc.Evaluate(context.Background(), "C0-Q1", dto.EvaluateRequest{
		Columns: []string{"ok"},
		Rows:    []grader.Row{grader.R(2)},
	})
	require.NoError(t, err)
	require.False(t, resp.Correct)
	require.NotEmpty(t, resp.Feedback)

	resp, err = svc.Evaluate(context.Background(), "C0-Q1", dto.EvaluateRequest{})
	require.NoError(t, err)
	require.Equal(t, string(grader.OutcomeUnreadable), resp.Outcome)

	_, err = svc.Evaluate(context.Background(), "missing", dto.EvaluateRequest{})
	require.ErrorIs(t, err, ErrQuestNotFound)
}

func TestSubmissionServiceSubmitRecordsAttemptAndProgress(t *testing.T) {
	runner := &fakeRunner{result: graphdb.Result{Keys: []string{"ok"}, Rows: [][]any{{int64(2)}}}}
	svc := newSubmissionService(t, runner)
	ctx := context.Background()

	wrong, err := svc.Submit(ctx, learner, "C0-Q1", dto.SubmitRequest{Cypher: "RETURN 2 AS ok"})
	require.NoError(t, err)
	require.False(t, wrong.Evaluation.Correct)
	require.False(t, wrong.FirstClear)
	require.Equal(t, "C0-Q1", wrong.Progress.CurrentQuestID)
	require.Equal(t, 1, wrong.Result.RowCount)

	runner.result = graphdb.Result{Keys: []string{"ok"}, Rows: [][]any{{int64(1)}}}
	right, err := svc.Submit(ctx, learner, "C0-Q1", dto.SubmitRequest{Cypher: "RETURN 1\nAS ok"})
	require.NoError(t, err)
	require.True(t, right.Evaluation.Correct)
	require.True(t, right.FirstClear)
	require.Equal(t, 100, right.Progress.Score)
	require.Equal(t, "C0-Q2", right.Progress.CurrentQuestID)
	require.Equal(t, "RETURN 1 AS ok", right.Progress.Answers["C0-Q1"])

	history, err := svc.History(ctx, learner, "C0-Q1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[0].Correct)
	require.Equal(t, "RETURN 1 AS ok", history[0].Cypher)
	require.False(t, history[1].Correct)

	_, err = svc.History(ctx, learner, "missing", 10)
	require.ErrorIs(t, err, ErrQuestNotFound)
}

func TestSubmissionServiceExecutionFailuresAreErrors(t *testing.T) {
	runner := &fakeRunner{err: graphdb.ErrTimeout}
	svc := newSubmissionService(t, runner)
	ctx := context.Background()

	_, err := svc.Submit(ctx, learner, "C0-Q1", dto.SubmitRequest{Cypher: "RETURN 1 AS ok"})
	require.ErrorIs(t, err, ErrQueryTimeout)

	_, err = svc.Submit(ctx, learner, "C0-Q1", dto.SubmitRequest{Cypher: "CREATE (n) RETURN 1 AS ok"})
	require.ErrorIs(t, err, ErrWriteNotAllowed)

	_, err = svc.Submit(ctx, learner, "CH1-Q1", dto.SubmitRequest{Cypher: "MATCH (u:User) RETURN count(u) AS users"})
	require.ErrorIs(t, err, ErrSeedRequired)

	_, err = svc.Submit(ctx, "", "C0-Q1", dto.SubmitRequest{Cypher: "RETURN 1 AS ok"})
	require.ErrorIs(t, err, ErrLearnerRequired)

	history, err := svc.History(ctx, learner, "", 0)
	require.NoError(t, err)
	require.Empty(t, history)
}
