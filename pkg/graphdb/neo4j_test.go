package graphdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/require"
)

func TestNewNeo4jRunnerValidatesConfig(t *testing.T) {
	_, err := NewNeo4jRunner(Neo4jConfig{})
	require.Error(t, err)

	_, err = NewNeo4jRunner(Neo4jConfig{URI: "neo4j+s://demo.databases.neo4j.io", Username: "neo4j"})
	require.Error(t, err)

	runner, err := NewNeo4jRunner(Neo4jConfig{
		URI:      "neo4j+s://demo.databases.neo4j.io",
		Username: "neo4j",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, "neo4j", runner.cfg.Database)
	require.Equal(t, 1000, runner.cfg.MaxRows)
	require.NoError(t, runner.Close(context.Background()))
}

func TestClassifyMapsDriverErrors(t *testing.T) {
	reason, err := classify(context.Background(), &neo4j.Neo4jError{
		Code: "Neo.ClientError.Statement.SyntaxError",
		Msg:  "Invalid input 'RETRUN'",
	})
	require.Equal(t, "query", reason)
	var queryErr *QueryError
	require.True(t, errors.As(err, &queryErr))
	require.Equal(t, "Neo.ClientError.Statement.SyntaxError", queryErr.Code)
	require.Contains(t, queryErr.Error(), "RETRUN")

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	reason, err = classify(ctx, errors.New("read tcp: i/o timeout"))
	require.Equal(t, "timeout", reason)
	require.ErrorIs(t, err, ErrTimeout)

	reason, err = classify(context.Background(), context.Canceled)
	require.Equal(t, "canceled", reason)
	require.ErrorIs(t, err, context.Canceled)

	reason, err = classify(context.Background(), errors.New("boom"))
	require.Equal(t, "unknown", reason)
	require.EqualError(t, err, "run graph statement: boom")
}
