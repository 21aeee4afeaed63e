package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/cypher-quest-api/internal/grader"
)

// EvaluateRequest carries a client-side query result to grade. Both the
// columns/rows and the fields/values spellings are accepted.
type EvaluateRequest struct {
	Columns []string     `json:"columns"`
	Fields  []string     `json:"fields"`
	Rows    []grader.Row `json:"rows"`
	Values  []grader.Row `json:"values"`
}

// UnmarshalJSON accepts any JSON object. A table part that is not an array of
// the expected shape decodes to nil instead of failing the request.
func (r *EvaluateRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Columns json.RawMessage `json:"columns"`
		Fields  json.RawMessage `json:"fields"`
		Rows    json.RawMessage `json:"rows"`
		Values  json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = EvaluateRequest{
		Columns: decodeList[string](raw.Columns),
		Fields:  decodeList[string](raw.Fields),
		Rows:    decodeList[grader.Row](raw.Rows),
		Values:  decodeList[grader.Row](raw.Values),
	}
	return nil
}

func decodeList[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Result normalises the payload into a query result. Missing parts stay nil so
// the grader reports the result as unreadable.
func (r EvaluateRequest) Result() *grader.QueryResult {
	columns := r.Columns
	if columns == nil {
		columns = r.Fields
	}
	rows := r.Rows
	if rows == nil {
		rows = r.Values
	}
	return &grader.QueryResult{Columns: columns, Rows: rows}
}

// SubmitRequest carries the learner's query for a quest.
type SubmitRequest struct {
	Cypher string `json:"cypher" validate:"required,max=4000"`
}

// EvaluationResponse reports a grading verdict.
type EvaluationResponse struct {
	QuestID  string `json:"quest_id"`
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
	Outcome  string `json:"outcome"`
}

// NewEvaluationResponse converts a grader evaluation for the API.
func NewEvaluationResponse(questID string, evaluation grader.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		QuestID:  questID,
		Correct:  evaluation.Correct,
		Feedback: evaluation.Feedback,
		Outcome:  string(evaluation.Outcome),
	}
}

// SubmissionResponse is returned after a learner submits a query.
type SubmissionResponse struct {
	Evaluation EvaluationResponse `json:"evaluation"`
	Result     QueryRunResponse   `json:"result"`
	Progress   ProgressResponse   `json:"progress"`
	FirstClear bool               `json:"first_clear"`
}

// AttemptResponse is one entry of a learner's attempt history.
type AttemptResponse struct {
	ID        uint      `json:"id"`
	QuestID   string    `json:"quest_id"`
	Cypher    string    `json:"cypher"`
	Correct   bool      `json:"correct"`
	Outcome   string    `json:"outcome"`
	Feedback  string    `json:"feedback"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}
