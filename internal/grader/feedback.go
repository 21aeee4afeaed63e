package grader

import (
	"strconv"
	"strings"
)

// Outcome tags the branch an evaluation ended in. The string values double as
// the keys of per-checker feedback overrides.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeUndefinedRule Outcome = "undefinedRule"
	OutcomeInvalidRule   Outcome = "invalidRule"
	OutcomeUnreadable    Outcome = "unreadable"
	OutcomeColumns       Outcome = "columns"
	OutcomeEmpty         Outcome = "empty"
	OutcomeRowCount      Outcome = "rowCount"
	OutcomeMismatch      Outcome = "mismatch"
	OutcomeSetMismatch   Outcome = "setMismatch"
	OutcomeMissingKey    Outcome = "missingKey"
	OutcomeMissingColumn Outcome = "missingColumn"
	OutcomeMissingRows   Outcome = "missingRows"
	OutcomeTooFew        Outcome = "tooFew"
	OutcomeDuplicates    Outcome = "duplicates"
	OutcomeNotNumeric    Outcome = "notNumeric"
	OutcomeLow           Outcome = "low"
	OutcomeHigh          Outcome = "high"
	OutcomeMinValue      Outcome = "minValue"
)

// Outcomes lists every outcome tag.
var Outcomes = []Outcome{
	OutcomeSuccess, OutcomeUndefinedRule, OutcomeInvalidRule, OutcomeUnreadable,
	OutcomeColumns, OutcomeEmpty, OutcomeRowCount, OutcomeMismatch,
	OutcomeSetMismatch, OutcomeMissingKey, OutcomeMissingColumn,
	OutcomeMissingRows, OutcomeTooFew, OutcomeDuplicates, OutcomeNotNumeric,
	OutcomeLow, OutcomeHigh, OutcomeMinValue,
}

// IsOutcome reports whether tag names a known outcome.
func IsOutcome(tag string) bool {
	for _, o := range Outcomes {
		if string(o) == tag {
			return true
		}
	}
	return false
}

// fallbacks lists, per outcome, the broader overrides consulted when the
// checker has no override for the exact outcome.
var fallbacks = map[Outcome][]Outcome{
	OutcomeEmpty:         {OutcomeMismatch},
	OutcomeRowCount:      {OutcomeMismatch},
	OutcomeSetMismatch:   {OutcomeMismatch},
	OutcomeDuplicates:    {OutcomeTooFew},
	OutcomeMissingColumn: {OutcomeMissingKey},
}

// Feedback holds custom messages keyed by outcome.
type Feedback map[Outcome]string

func (f Feedback) lookup(outcome Outcome) (string, bool) {
	if len(f) == 0 {
		return "", false
	}
	if msg := strings.TrimSpace(f[outcome]); msg != "" {
		return msg, true
	}
	for _, alt := range fallbacks[outcome] {
		if msg := strings.TrimSpace(f[alt]); msg != "" {
			return msg, true
		}
	}
	return "", false
}

const successMessage = "Correct! The result matches the expected answer."

// Evaluation is the pass/fail outcome of grading a query result.
type Evaluation struct {
	Correct  bool    `json:"correct"`
	Feedback string  `json:"feedback"`
	Outcome  Outcome `json:"outcome"`
}

func pass(spec *CheckerSpec) Evaluation {
	msg, ok := spec.Feedback.lookup(OutcomeSuccess)
	if !ok {
		msg = successMessage
	}
	return Evaluation{Correct: true, Feedback: msg, Outcome: OutcomeSuccess}
}

func fail(spec *CheckerSpec, outcome Outcome, fallback string) Evaluation {
	msg := fallback
	if spec != nil {
		if custom, ok := spec.Feedback.lookup(outcome); ok {
			msg = custom
		}
	}
	return Evaluation{Correct: false, Feedback: msg, Outcome: outcome}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
