package grader

// Kind enumerates the supported checker algorithms.
type Kind string

const (
	KindRowsExact   Kind = "rows_exact"
	KindSetExact    Kind = "set_exact"
	KindContainsMin Kind = "contains_min"
	KindRowsRange   Kind = "rows_range"
	KindSetContains Kind = "set_contains"
	KindRowsMin     Kind = "rows_min"
)

// Rule is the typed payload of a checker. The set of implementations is
// closed: only the six rule types of this package satisfy it.
type Rule interface {
	Kind() Kind
	sealed()
}

// RowsExact passes when the result rows equal Rows in the same order.
type RowsExact struct {
	Rows []Row
}

// SetExact passes when the result, keyed by KeyColumn, holds exactly the
// expected rows regardless of order.
type SetExact struct {
	KeyColumn string
	Rows      []Row
}

// ContainsMin passes when at least MinCount of the expected rows appear in
// the result.
type ContainsMin struct {
	Rows     []Row
	MinCount int
}

// RowsRange passes when the first cell of the first row is a number within
// [Min, Max]. A nil bound is open.
type RowsRange struct {
	Min *float64
	Max *float64
}

// SetContains passes when every expected row is present in the result, matched
// by the Key column. MinimumRows, when set, also bounds the result size.
type SetContains struct {
	Key         string
	Rows        []Row
	MinimumRows *int
}

// RowsMin passes when the result has at least MinRows rows, optionally
// counting distinct Key values only, and optionally requiring one row whose
// MinValueColumn is at least MinValue.
type RowsMin struct {
	MinRows        int
	Key            string
	MinValueColumn string
	MinValue       *float64
}

func (RowsExact) Kind() Kind   { return KindRowsExact }
func (SetExact) Kind() Kind    { return KindSetExact }
func (ContainsMin) Kind() Kind { return KindContainsMin }
func (RowsRange) Kind() Kind   { return KindRowsRange }
func (SetContains) Kind() Kind { return KindSetContains }
func (RowsMin) Kind() Kind     { return KindRowsMin }

func (RowsExact) sealed()   {}
func (SetExact) sealed()    {}
func (ContainsMin) sealed() {}
func (RowsRange) sealed()   {}
func (SetContains) sealed() {}
func (RowsMin) sealed()     {}

// CheckerSpec describes what a correct query result looks like.
type CheckerSpec struct {
	// Columns, when non-empty, must match the result columns
	// case-insensitively and in order.
	Columns  []string
	Rule     Rule
	Feedback Feedback
}

// Kind returns the rule kind, or an empty Kind when no rule is set.
func (s *CheckerSpec) Kind() Kind {
	if s == nil || s.Rule == nil {
		return ""
	}
	return s.Rule.Kind()
}
