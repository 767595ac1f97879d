package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrEmptyCSV is returned for a file with no header row.
	ErrEmptyCSV = errors.New("dataset: csv has no header")
	// ErrTooManyFields is returned for a row longer than the header.
	ErrTooManyFields = errors.New("dataset: row has more fields than the header")
)

// ReadCSV parses a headed CSV into a table, inferring each column's kind.
// Rows shorter than the header are padded with empty (missing) cells.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: reading header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	raw := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: reading row: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d, header %d", ErrTooManyFields, line, len(rec), len(header))
		}
		for i := range header {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			raw[i] = append(raw[i], cell)
		}
	}

	cols := make([]*Column, len(header))
	for i, name := range header {
		cols[i] = inferColumn(name, raw[i])
	}
	t, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// inferColumn picks Int64 when every non-empty cell is an integer, Float64
// when every non-empty cell is numeric (or an integer column has gaps), and
// Object otherwise.
func inferColumn(name string, cells []string) *Column {
	allInt, allNum, gaps := true, true, false
	for _, s := range cells {
		s = strings.TrimSpace(s)
		if s == "" {
			gaps = true
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			allInt = false
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				allNum = false
				break
			}
		}
	}

	vals := make([]any, len(cells))
	switch {
	case allInt && !gaps:
		for i, s := range cells {
			vals[i], _ = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		}
		return &Column{Name: name, Kind: Int64, Values: vals}
	case allNum:
		for i, s := range cells {
			s = strings.TrimSpace(s)
			if s == "" {
				vals[i] = math.NaN()
				continue
			}
			vals[i], _ = strconv.ParseFloat(s, 64)
		}
		return &Column{Name: name, Kind: Float64, Values: vals}
	default:
		for i, s := range cells {
			if s == "" {
				vals[i] = nil
				continue
			}
			vals[i] = s
		}
		return &Column{Name: name, Kind: Object, Values: vals}
	}
}

// WriteCSV writes the table with a header row. When extra is non-nil it is
// appended as a trailing column. Missing values are written as empty cells.
func WriteCSV(w io.Writer, t *Table, extra *Column) error {
	cols := t.Columns
	if extra != nil {
		if extra.Len() != t.NumRows() {
			return fmt.Errorf("dataset: column %q has %d rows, want %d", extra.Name, extra.Len(), t.NumRows())
		}
		cols = append(append([]*Column(nil), cols...), extra)
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for r := 0; r < t.NumRows(); r++ {
		for i, c := range cols {
			row[i] = FormatValue(c.Values[r])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders a cell for CSV output.
func FormatValue(v any) string {
	if IsMissing(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	}
	return fmt.Sprint(v)
}
