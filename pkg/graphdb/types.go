package graphdb

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when a statement does not finish before its deadline.
	ErrTimeout = errors.New("graph query timed out")
	// ErrUnavailable is returned when the graph database cannot be reached.
	ErrUnavailable = errors.New("graph database unavailable")
)

// QueryError is a failure reported by the database for a statement, such as a
// syntax error or an unknown function.
type QueryError struct {
	Code    string
	Message string
}

func (e *QueryError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Statement is a single Cypher statement with its parameters. Write selects
// writer routing; every other statement is routed to readers.
type Statement struct {
	Cypher string
	Params map[string]any
	Write  bool
}

// Result is the tabular outcome of a statement.
type Result struct {
	Keys      []string
	Rows      [][]any
	Truncated bool
}

// Runner executes statements against a graph database.
type Runner interface {
	Run(ctx context.Context, stmt Statement) (Result, error)
	Ping(ctx context.Context) error
}
