package grader

import (
	"fmt"
	"strings"
)

// Evaluate grades result against spec. It performs no I/O, never mutates its
// arguments and never panics: every fault becomes a failing Evaluation.
func Evaluate(result *QueryResult, spec *CheckerSpec) (evaluation Evaluation) {
	rule := normalize(specRule(spec))
	if rule == nil {
		return fail(spec, OutcomeUndefinedRule, "No grading rule is defined for this quest.")
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			evaluation = fail(spec, OutcomeUnreadable, "The result could not be graded. Check the returned values.")
		}
	}()

	if !result.Valid() {
		return fail(spec, OutcomeUnreadable, "The query result is unreadable: columns and rows must form a table.")
	}

	if len(spec.Columns) > 0 && !ColumnsMatch(result.Columns, spec.Columns) {
		return fail(spec, OutcomeColumns, fmt.Sprintf(
			"Column names do not match. Expected [%s] but got [%s]; check the aliases in your RETURN clause.",
			strings.Join(spec.Columns, ", "), strings.Join(result.Columns, ", ")))
	}

	switch r := rule.(type) {
	case RowsExact:
		return evalRowsExact(result, spec, r)
	case SetExact:
		return evalSetExact(result, spec, r)
	case ContainsMin:
		return evalContainsMin(result, spec, r)
	case RowsRange:
		return evalRowsRange(result, spec, r)
	case SetContains:
		return evalSetContains(result, spec, r)
	case RowsMin:
		return evalRowsMin(result, spec, r)
	default:
		return fail(spec, OutcomeUndefinedRule, fmt.Sprintf("The grading rule %q is unsupported.", rule.Kind()))
	}
}

func specRule(spec *CheckerSpec) Rule {
	if spec == nil {
		return nil
	}
	return spec.Rule
}

// normalize turns pointer rules into their value form so the dispatch only
// deals with one shape. A typed nil pointer counts as no rule.
func normalize(rule Rule) Rule {
	switch r := rule.(type) {
	case *RowsExact:
		if r == nil {
			return nil
		}
		return *r
	case *SetExact:
		if r == nil {
			return nil
		}
		return *r
	case *ContainsMin:
		if r == nil {
			return nil
		}
		return *r
	case *RowsRange:
		if r == nil {
			return nil
		}
		return *r
	case *SetContains:
		if r == nil {
			return nil
		}
		return *r
	case *RowsMin:
		if r == nil {
			return nil
		}
		return *r
	}
	return rule
}

func evalRowsExact(result *QueryResult, spec *CheckerSpec, rule RowsExact) Evaluation {
	actual, expected := result.Rows, rule.Rows
	if len(actual) == 0 && len(expected) > 0 {
		return fail(spec, OutcomeEmpty, "The query returned no rows. Check your MATCH pattern.")
	}
	if len(actual) != len(expected) {
		return fail(spec, OutcomeRowCount, fmt.Sprintf("Expected %d rows but got %d.", len(expected), len(actual)))
	}
	for i := range expected {
		if !actual[i].Equal(expected[i]) {
			return fail(spec, OutcomeMismatch, fmt.Sprintf(
				"Row %d differs from the expected result. Check the values and the ORDER BY clause.", i+1))
		}
	}
	return pass(spec)
}

// evalSetExact keys both sides by the key column. Duplicate keys collapse to
// the last row carrying them.
func evalSetExact(result *QueryResult, spec *CheckerSpec, rule SetExact) Evaluation {
	if strings.TrimSpace(rule.KeyColumn) == "" {
		return fail(spec, OutcomeInvalidRule, "The grading rule has no key column configured.")
	}
	idx, ok := IndexOf(result.Columns, rule.KeyColumn)
	if !ok {
		return fail(spec, OutcomeMissingKey, fmt.Sprintf("The result must include the %q column.", rule.KeyColumn))
	}

	actual, ok := keyRows(result.Rows, idx)
	if !ok {
		return fail(spec, OutcomeUnreadable, "The query result is unreadable: a row has no key value.")
	}
	expected, ok := keyRows(rule.Rows, idx)
	if !ok {
		return fail(spec, OutcomeInvalidRule, fmt.Sprintf("An expected row has no %q value.", rule.KeyColumn))
	}

	if len(actual) != len(expected) {
		return fail(spec, OutcomeRowCount, fmt.Sprintf("Expected %d distinct rows but got %d.", len(expected), len(actual)))
	}
	for key, want := range expected {
		got, found := actual[key]
		if !found || !got.Equal(want) {
			return fail(spec, OutcomeSetMismatch, "The returned rows differ from the expected set.")
		}
	}
	return pass(spec)
}

func keyRows(rows []Row, idx int) (map[string]Row, bool) {
	keyed := make(map[string]Row, len(rows))
	for _, row := range rows {
		cell, ok := cellAt(row, idx)
		if !ok {
			return nil, false
		}
		keyed[cell.Key()] = row
	}
	return keyed, true
}

func evalContainsMin(result *QueryResult, spec *CheckerSpec, rule ContainsMin) Evaluation {
	required := rule.MinCount
	if required <= 0 {
		required = len(rule.Rows)
	}

	found := 0
	for _, want := range rule.Rows {
		for _, got := range result.Rows {
			if got.Equal(want) {
				found++
				break
			}
		}
	}

	if found < required {
		return fail(spec, OutcomeMissingRows, fmt.Sprintf(
			"Found %d of the expected rows; at least %d are required.", found, required))
	}
	return pass(spec)
}

func evalRowsRange(result *QueryResult, spec *CheckerSpec, rule RowsRange) Evaluation {
	if len(result.Rows) == 0 {
		return fail(spec, OutcomeEmpty, "The query returned no rows, so there is no value to check.")
	}
	cell, ok := cellAt(result.Rows[0], 0)
	if !ok {
		return fail(spec, OutcomeNotNumeric, "The first row has no value to check.")
	}
	value, ok := cell.Number()
	if !ok {
		return fail(spec, OutcomeNotNumeric, fmt.Sprintf("Expected a number but got %q.", cell.String()))
	}
	if rule.Min != nil && value < *rule.Min {
		return fail(spec, OutcomeLow, fmt.Sprintf(
			"The value %s is too low; it must be at least %s.", formatNumber(value), formatNumber(*rule.Min)))
	}
	if rule.Max != nil && value > *rule.Max {
		return fail(spec, OutcomeHigh, fmt.Sprintf(
			"The value %s is too high; it must be at most %s.", formatNumber(value), formatNumber(*rule.Max)))
	}
	return pass(spec)
}

func evalSetContains(result *QueryResult, spec *CheckerSpec, rule SetContains) Evaluation {
	if strings.TrimSpace(rule.Key) == "" {
		return fail(spec, OutcomeInvalidRule, "The grading rule has no key column configured.")
	}
	idx, ok := IndexOf(result.Columns, rule.Key)
	if !ok {
		return fail(spec, OutcomeMissingKey, fmt.Sprintf("The result must include the %q column.", rule.Key))
	}

	byKey := make(map[string][]Row, len(result.Rows))
	for _, row := range result.Rows {
		cell, _ := cellAt(row, idx)
		byKey[cell.Key()] = append(byKey[cell.Key()], row)
	}

	var missing []string
	for _, want := range rule.Rows {
		cell, ok := cellAt(want, idx)
		if !ok {
			return fail(spec, OutcomeInvalidRule, fmt.Sprintf("An expected row has no %q value.", rule.Key))
		}
		if !containsRow(byKey[cell.Key()], want) {
			missing = append(missing, cell.String())
		}
	}
	if len(missing) > 0 {
		return fail(spec, OutcomeMissingRows, fmt.Sprintf(
			"Some expected rows are missing or differ (%s: %s).", rule.Key, strings.Join(missing, ", ")))
	}

	if rule.MinimumRows != nil && len(result.Rows) < *rule.MinimumRows {
		return fail(spec, OutcomeTooFew, fmt.Sprintf(
			"Return at least %d rows; got %d.", *rule.MinimumRows, len(result.Rows)))
	}
	return pass(spec)
}

func containsRow(rows []Row, want Row) bool {
	for _, row := range rows {
		if row.Equal(want) {
			return true
		}
	}
	return false
}

// evalRowsMin checks, in order, the row count, the distinct key count and the
// minimum value column.
func evalRowsMin(result *QueryResult, spec *CheckerSpec, rule RowsMin) Evaluation {
	required := rule.MinRows
	if required <= 0 {
		required = 1
	}
	if len(result.Rows) < required {
		return fail(spec, OutcomeTooFew, fmt.Sprintf("Return at least %d rows; got %d.", required, len(result.Rows)))
	}

	if strings.TrimSpace(rule.Key) != "" {
		idx, ok := IndexOf(result.Columns, rule.Key)
		if !ok {
			return fail(spec, OutcomeMissingKey, fmt.Sprintf("The result must include the %q column.", rule.Key))
		}
		distinct := make(map[string]struct{}, len(result.Rows))
		for _, row := range result.Rows {
			cell, _ := cellAt(row, idx)
			distinct[cell.Key()] = struct{}{}
		}
		if len(distinct) < required {
			return fail(spec, OutcomeDuplicates, fmt.Sprintf(
				"Only %d distinct %s values were returned; at least %d are required.", len(distinct), rule.Key, required))
		}
	}

	if strings.TrimSpace(rule.MinValueColumn) != "" {
		idx, ok := IndexOf(result.Columns, rule.MinValueColumn)
		if !ok {
			return fail(spec, OutcomeMissingColumn, fmt.Sprintf("The result must include the %q column.", rule.MinValueColumn))
		}
		threshold := 0.0
		if rule.MinValue != nil {
			threshold = *rule.MinValue
		}
		for _, row := range result.Rows {
			cell, _ := cellAt(row, idx)
			if v, ok := cell.Number(); ok && v >= threshold {
				return pass(spec)
			}
		}
		return fail(spec, OutcomeMinValue, fmt.Sprintf(
			"At least one %s value must be %s or more.", rule.MinValueColumn, formatNumber(threshold)))
	}

	return pass(spec)
}
