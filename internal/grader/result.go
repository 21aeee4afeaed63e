package grader

import "strings"

// QueryResult is the tabular result of one query execution.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Valid reports whether the result is a well-formed table: columns and rows
// are present and every row has one cell per column.
func (r *QueryResult) Valid() bool {
	if r == nil || r.Columns == nil || r.Rows == nil {
		return false
	}
	for _, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return false
		}
	}
	return true
}

// IndexOf returns the position of name in columns, compared
// case-insensitively.
func IndexOf(columns []string, name string) (int, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return 0, false
	}
	for i, column := range columns {
		if strings.ToLower(strings.TrimSpace(column)) == target {
			return i, true
		}
	}
	return 0, false
}

// ColumnsMatch reports whether actual equals expected, ignoring case but not
// order.
func ColumnsMatch(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != strings.ToLower(strings.TrimSpace(expected[i])) {
			return false
		}
	}
	return true
}

func cellAt(row Row, idx int) (Cell, bool) {
	if idx < 0 || idx >= len(row) {
		return Cell{}, false
	}
	return row[idx], true
}
