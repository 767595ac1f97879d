package dataset

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownColumn is returned when a query names a column the table lacks.
	ErrUnknownColumn = errors.New("dataset: unknown column")
	// ErrNotNumeric is returned for a range over a non-numeric column.
	ErrNotNumeric = errors.New("dataset: column is not numeric")
)

// Range keeps rows whose value lies in [Min, Max]. Missing values never match.
type Range struct {
	Column   string
	Min, Max float64
}

// Membership keeps rows whose value, formatted as text, is one of Values.
type Membership struct {
	Column string
	Values []string
}

// Query is a row and column filter over a table.
type Query struct {
	Columns []string // empty keeps every column
	Ranges  []Range
	In      []Membership
	MaxRows int // <= 0 keeps every matching row
}

// Apply filters rows first, then projects onto Columns in the given order,
// then truncates to MaxRows. t is not modified.
func (q Query) Apply(t *Table) (*Table, error) {
	for _, name := range q.Columns {
		if t.Column(name) == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
	}

	type rangeCheck struct {
		col *Column
		r   Range
	}
	var ranges []rangeCheck
	for _, r := range q.Ranges {
		col := t.Column(r.Column)
		if col == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, r.Column)
		}
		if !col.Kind.Numeric() {
			return nil, fmt.Errorf("%w: %s", ErrNotNumeric, r.Column)
		}
		ranges = append(ranges, rangeCheck{col, r})
	}

	type setCheck struct {
		col  *Column
		vals map[string]bool
	}
	var sets []setCheck
	for _, m := range q.In {
		col := t.Column(m.Column)
		if col == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, m.Column)
		}
		vals := make(map[string]bool, len(m.Values))
		for _, v := range m.Values {
			vals[v] = true
		}
		sets = append(sets, setCheck{col, vals})
	}

	out := t
	if len(ranges) > 0 || len(sets) > 0 {
		out = t.Filter(func(i int) bool {
			for _, rc := range ranges {
				v := rc.col.Float(i)
				if math.IsNaN(v) || v < rc.r.Min || v > rc.r.Max {
					return false
				}
			}
			for _, sc := range sets {
				v := sc.col.Values[i]
				if IsMissing(v) || !sc.vals[FormatValue(v)] {
					return false
				}
			}
			return true
		})
	}
	if len(q.Columns) > 0 {
		out = out.Select(q.Columns)
	}
	return out.Head(q.MaxRows), nil
}

// WithColumn returns a table sharing t's columns plus c appended. c must have
// one value per row.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	cols := append(append([]*Column(nil), t.Columns...), c)
	return NewTable(cols...)
}
