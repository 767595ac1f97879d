// Package dataset loads the processed training/validation CSVs into typed
// tables, projects them onto the model's feature list, and computes the
// summary statistics and exports the dashboard shows.
package dataset

import (
	"fmt"
	"math"
)

// Kind is a column's storage type.
type Kind int

const (
	Object   Kind = iota // mixed values; nil is missing
	String               // string or nil
	Category             // comparable values or nil
	Int64
	Int32
	Float64 // NaN is missing
	Float32
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Category:
		return "category"
	case Int64:
		return "int64"
	case Int32:
		return "int32"
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	default:
		return "object"
	}
}

// Numeric reports whether the kind holds numbers.
func (k Kind) Numeric() bool {
	return k == Int64 || k == Int32 || k == Float64 || k == Float32
}

// Column is a named, typed series. Values holds int64, int32, float64,
// float32, string or arbitrary values according to Kind.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Len returns the number of values.
func (c *Column) Len() int { return len(c.Values) }

// Float returns value i as float64, NaN when missing or non-numeric.
func (c *Column) Float(i int) float64 {
	return toFloat(c.Values[i])
}

// Clone returns a deep copy of the column's value slice.
func (c *Column) Clone() *Column {
	return &Column{Name: c.Name, Kind: c.Kind, Values: append([]any(nil), c.Values...)}
}

// IsMissing reports whether v is nil or a floating NaN.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int:
		return float64(x)
	case float64:
		return x
	case float32:
		return float64(x)
	}
	return math.NaN()
}

// Table is a row-aligned set of columns. A table may have zero columns and
// still carry a row count.
type Table struct {
	Columns []*Column
	rows    int
}

// NewTable builds a table; every column must have the same length.
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{Columns: cols}
	for i, c := range cols {
		if i == 0 {
			t.rows = c.Len()
			continue
		}
		if c.Len() != t.rows {
			return nil, fmt.Errorf("dataset: column %q has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Select projects the table onto names, in the order given, skipping names
// the table lacks. Columns are shared, not copied.
func (t *Table) Select(names []string) *Table {
	out := &Table{rows: t.rows}
	for _, n := range names {
		if c := t.Column(n); c != nil {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// Head returns the first n rows (all rows when n <= 0 or n exceeds the count).
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= t.rows {
		return t
	}
	out := &Table{rows: n}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, &Column{Name: c.Name, Kind: c.Kind, Values: c.Values[:n:n]})
	}
	return out
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	var idx []int
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out := &Table{rows: len(idx)}
	for _, c := range t.Columns {
		vals := make([]any, len(idx))
		for j, i := range idx {
			vals[j] = c.Values[i]
		}
		out.Columns = append(out.Columns, &Column{Name: c.Name, Kind: c.Kind, Values: vals})
	}
	return out
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := &Table{rows: t.rows, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// Concat appends b's rows below a's with contiguous row numbering. The
// result has a's columns followed by the columns only b has; cells a table
// lacks become missing.
func Concat(a, b *Table) *Table {
	out := &Table{rows: a.rows + b.rows}
	for _, ca := range a.Columns {
		vals := make([]any, 0, out.rows)
		vals = append(vals, ca.Values...)
		kind := ca.Kind
		if cb := b.Column(ca.Name); cb != nil {
			vals = append(vals, cb.Values...)
			kind = mergeKinds(ca.Kind, cb.Kind)
		} else {
			vals = appendMissing(vals, ca.Kind, b.rows)
			kind = widenForMissing(ca.Kind, b.rows)
		}
		out.Columns = append(out.Columns, coerce(&Column{Name: ca.Name, Kind: kind, Values: vals}))
	}
	for _, cb := range b.Columns {
		if a.Column(cb.Name) != nil {
			continue
		}
		vals := appendMissing(make([]any, 0, out.rows), cb.Kind, a.rows)
		vals = append(vals, cb.Values...)
		kind := widenForMissing(cb.Kind, a.rows)
		out.Columns = append(out.Columns, coerce(&Column{Name: cb.Name, Kind: kind, Values: vals}))
	}
	return out
}

func appendMissing(vals []any, k Kind, n int) []any {
	for i := 0; i < n; i++ {
		vals = append(vals, missingFor(k))
	}
	return vals
}

// widenForMissing promotes integer kinds to Float64 when n missing cells are
// added, since integers have no missing value.
func widenForMissing(k Kind, n int) Kind {
	if n > 0 && (k == Int64 || k == Int32) {
		return Float64
	}
	return k
}

func missingFor(k Kind) any {
	if k.Numeric() {
		return math.NaN()
	}
	return nil
}

func mergeKinds(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a.Numeric() && b.Numeric():
		return Float64
	default:
		return Object
	}
}

// coerce normalizes values to the column's kind after a merge.
func coerce(c *Column) *Column {
	switch c.Kind {
	case Float64:
		for i, v := range c.Values {
			c.Values[i] = toFloat(v)
		}
	}
	return c
}

// Records converts the table to row maps, with missing values as nil.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.rows)
	for i := range out {
		row := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			v := c.Values[i]
			if IsMissing(v) {
				v = nil
			}
			row[c.Name] = v
		}
		out[i] = row
	}
	return out
}
