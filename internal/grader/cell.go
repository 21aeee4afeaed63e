package grader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CellKind identifies the concrete type stored in a Cell.
type CellKind uint8

const (
	CellNull CellKind = iota
	CellInteger
	CellFloat
	CellText
	CellBoolean
)

func (k CellKind) String() string {
	switch k {
	case CellNull:
		return "null"
	case CellInteger:
		return "integer"
	case CellFloat:
		return "float"
	case CellText:
		return "text"
	case CellBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Cell is a single value of a query result row.
type Cell struct {
	kind CellKind
	i    int64
	f    float64
	s    string
	b    bool
}

// Row is an ordered sequence of cells.
type Row []Cell

// Null returns the null cell.
func Null() Cell { return Cell{} }

// Int returns an integer cell.
func Int(v int64) Cell { return Cell{kind: CellInteger, i: v} }

// Float returns a floating point cell.
func Float(v float64) Cell { return Cell{kind: CellFloat, f: v} }

// Text returns a string cell.
func Text(v string) Cell { return Cell{kind: CellText, s: v} }

// Bool returns a boolean cell.
func Bool(v bool) Cell { return Cell{kind: CellBoolean, b: v} }

// R builds a row from plain Go values using FromValue.
func R(values ...any) Row {
	row := make(Row, 0, len(values))
	for _, v := range values {
		row = append(row, FromValue(v))
	}
	return row
}

// Kind reports the cell type.
func (c Cell) Kind() CellKind { return c.kind }

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool { return c.kind == CellNull }

// Number reads the cell as a number. Integers, non-NaN floats and numeric
// text succeed; null, booleans and any other text do not.
func (c Cell) Number() (float64, bool) {
	switch c.kind {
	case CellInteger:
		return float64(c.i), true
	case CellFloat:
		if math.IsNaN(c.f) {
			return 0, false
		}
		return c.f, true
	case CellText:
		trimmed := strings.TrimSpace(c.s)
		if trimmed == "" {
			return 0, false
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Equal compares two cells. Integer and float cells compare numerically.
func (c Cell) Equal(other Cell) bool {
	if c.isNumeric() && other.isNumeric() {
		if c.kind == CellInteger && other.kind == CellInteger {
			return c.i == other.i
		}
		a, _ := c.Number()
		b, _ := other.Number()
		return a == b
	}
	if c.kind != other.kind {
		return false
	}
	switch c.kind {
	case CellNull:
		return true
	case CellText:
		return c.s == other.s
	case CellBoolean:
		return c.b == other.b
	default:
		return false
	}
}

// Key returns a canonical string usable as a map key. Equal cells share a key.
func (c Cell) Key() string {
	switch c.kind {
	case CellInteger:
		return "n:" + strconv.FormatInt(c.i, 10)
	case CellFloat:
		if c.f == math.Trunc(c.f) && math.Abs(c.f) < 1<<53 {
			return "n:" + strconv.FormatInt(int64(c.f), 10)
		}
		return "n:" + strconv.FormatFloat(c.f, 'g', -1, 64)
	case CellText:
		return "s:" + c.s
	case CellBoolean:
		return "b:" + strconv.FormatBool(c.b)
	default:
		return "null"
	}
}

// String renders the cell for feedback messages.
func (c Cell) String() string {
	switch c.kind {
	case CellInteger:
		return strconv.FormatInt(c.i, 10)
	case CellFloat:
		return strconv.FormatFloat(c.f, 'f', -1, 64)
	case CellText:
		return c.s
	case CellBoolean:
		return strconv.FormatBool(c.b)
	default:
		return "null"
	}
}

// Value returns the cell as a plain Go value.
func (c Cell) Value() any {
	switch c.kind {
	case CellInteger:
		return c.i
	case CellFloat:
		return c.f
	case CellText:
		return c.s
	case CellBoolean:
		return c.b
	default:
		return nil
	}
}

func (c Cell) isNumeric() bool {
	return c.kind == CellInteger || (c.kind == CellFloat && !math.IsNaN(c.f))
}

// Equal compares two rows cell by cell.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if !r[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// FromValue converts a value produced by a database driver or a JSON decoder
// into a Cell. Nested values (lists, maps, graph entities) become text.
func FromValue(value any) Cell {
	switch v := value.(type) {
	case nil:
		return Null()
	case Cell:
		return v
	case bool:
		return Bool(v)
	case string:
		return Text(v)
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint8:
		return Int(int64(v))
	case uint16:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint:
		if uint64(v) > math.MaxInt64 {
			return Float(float64(v))
		}
		return Int(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return Float(float64(v))
		}
		return Int(int64(v))
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case json.Number:
		return fromNumber(string(v))
	case fmt.Stringer:
		return Text(v.String())
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Text(fmt.Sprintf("%v", v))
		}
		return Text(string(data))
	}
}

func fromNumber(raw string) Cell {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Text(raw)
	}
	return Float(f)
}

// MarshalJSON encodes the cell as a JSON scalar.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.kind == CellFloat && (math.IsNaN(c.f) || math.IsInf(c.f, 0)) {
		return json.Marshal(strconv.FormatFloat(c.f, 'g', -1, 64))
	}
	return json.Marshal(c.Value())
}

// UnmarshalJSON decodes a JSON scalar into the cell. Arrays and objects are
// kept as their raw JSON text.
func (c *Cell) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty json value")
	}
	switch trimmed[0] {
	case 'n':
		*c = Null()
		return nil
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*c = Bool(v)
		return nil
	case '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*c = Text(v)
		return nil
	case '[', '{':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return err
		}
		*c = Text(compact.String())
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*c = fromNumber(string(n))
		return nil
	}
}

// UnmarshalYAML decodes a YAML scalar into the cell.
func (c *Cell) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: cell must be a scalar", node.Line)
	}
	switch node.Tag {
	case "!!null":
		*c = Null()
	case "!!bool":
		var v bool
		if err := node.Decode(&v); err != nil {
			return err
		}
		*c = Bool(v)
	case "!!int":
		var v int64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*c = Int(v)
	case "!!float":
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*c = Float(v)
	default:
		*c = Text(node.Value)
	}
	return nil
}
