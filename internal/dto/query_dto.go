package dto

import "github.com/noah-isme/cypher-quest-api/internal/grader"

// QueryRunRequest is the payload of the read-only query proxy.
type QueryRunRequest struct {
	QuestID string         `json:"quest_id" validate:"omitempty,max=32"`
	Cypher  string         `json:"cypher" validate:"required,max=4000"`
	Params  map[string]any `json:"params"`
}

// QueryRunResponse is a normalised query result.
type QueryRunResponse struct {
	Columns   []string     `json:"columns"`
	Rows      []grader.Row `json:"rows"`
	RowCount  int          `json:"row_count"`
	Truncated bool         `json:"truncated"`
	ElapsedMS int64        `json:"elapsed_ms"`
}

// NewQueryRunResponse wraps a graded result table.
func NewQueryRunResponse(result grader.QueryResult, truncated bool, elapsedMS int64) QueryRunResponse {
	return QueryRunResponse{
		Columns:   result.Columns,
		Rows:      result.Rows,
		RowCount:  len(result.Rows),
		Truncated: truncated,
		ElapsedMS: elapsedMS,
	}
}
