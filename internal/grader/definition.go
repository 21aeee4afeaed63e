package grader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownKind is returned when a definition names no supported checker.
	ErrUnknownKind = errors.New("unknown checker type")
	// ErrUnknownOutcome is returned when a feedback override uses an unknown tag.
	ErrUnknownOutcome = errors.New("unknown feedback outcome")
)

// Definition is the declarative form of a checker as stored in the quest
// catalogue.
type Definition struct {
	Type     string            `json:"type" yaml:"type"`
	Expected Expectation       `json:"expected" yaml:"expected"`
	Feedback map[string]string `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	Success  string            `json:"success,omitempty" yaml:"success,omitempty"`
}

// Expectation carries the union of all rule payloads. Each kind reads only the
// fields it needs.
type Expectation struct {
	Columns        []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows           []Row    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Key            string   `json:"key,omitempty" yaml:"key,omitempty"`
	KeyColumn      string   `json:"keyColumn,omitempty" yaml:"keyColumn,omitempty"`
	MinimumRows    *int     `json:"minimumRows,omitempty" yaml:"minimumRows,omitempty"`
	MinRows        *int     `json:"minRows,omitempty" yaml:"minRows,omitempty"`
	MinCount       *int     `json:"minCount,omitempty" yaml:"minCount,omitempty"`
	Min            *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max            *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MinValueColumn string   `json:"minValueColumn,omitempty" yaml:"minValueColumn,omitempty"`
	MinValue       *float64 `json:"minValue,omitempty" yaml:"minValue,omitempty"`
}

// ParseKind maps a wire name onto a Kind.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case KindRowsExact, KindSetExact, KindContainsMin, KindRowsRange, KindSetContains, KindRowsMin:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// Compile turns the definition into an evaluable CheckerSpec.
func (d Definition) Compile() (CheckerSpec, error) {
	kind, err := ParseKind(d.Type)
	if err != nil {
		return CheckerSpec{}, err
	}

	feedback, err := compileFeedback(d.Feedback, d.Success)
	if err != nil {
		return CheckerSpec{}, err
	}

	exp := d.Expected
	var rule Rule
	switch kind {
	case KindRowsExact:
		rule = RowsExact{Rows: exp.Rows}
	case KindSetExact:
		keyColumn := exp.KeyColumn
		if keyColumn == "" {
			keyColumn = exp.Key
		}
		rule = SetExact{KeyColumn: keyColumn, Rows: exp.Rows}
	case KindContainsMin:
		rule = ContainsMin{Rows: exp.Rows, MinCount: intOr(exp.MinCount, 0)}
	case KindRowsRange:
		rule = RowsRange{Min: exp.Min, Max: exp.Max}
	case KindSetContains:
		rule = SetContains{Key: exp.Key, Rows: exp.Rows, MinimumRows: exp.MinimumRows}
	case KindRowsMin:
		rule = RowsMin{
			MinRows:        intOr(exp.MinRows, 1),
			Key:            exp.Key,
			MinValueColumn: exp.MinValueColumn,
			MinValue:       exp.MinValue,
		}
	}

	return CheckerSpec{
		Columns:  append([]string(nil), exp.Columns...),
		Rule:     rule,
		Feedback: feedback,
	}, nil
}

func compileFeedback(raw map[string]string, success string) (Feedback, error) {
	if len(raw) == 0 && strings.TrimSpace(success) == "" {
		return nil, nil
	}

	var unknown []string
	feedback := make(Feedback, len(raw)+1)
	for tag, msg := range raw {
		if !IsOutcome(tag) {
			unknown = append(unknown, tag)
			continue
		}
		feedback[Outcome(tag)] = msg
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownOutcome, strings.Join(unknown, ", "))
	}

	if strings.TrimSpace(success) != "" {
		feedback[OutcomeSuccess] = success
	}
	return feedback, nil
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
