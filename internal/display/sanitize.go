// Package display makes dataset tables safe to render and renders them,
// falling back to row records when the table widget cannot cope.
package display

import (
	"fmt"
	"math"
	"reflect"

	"github.com/Prabal729/disease-2/internal/dataset"
	"github.com/Prabal729/disease-2/internal/logging"
)

// Unknown replaces values that have no useful string form.
const Unknown = "Unknown"

var unknownTokens = map[string]bool{
	"nan":   true,
	"NaN":   true,
	"None":  true,
	"NULL":  true,
	"<nil>": true,
}

// Sanitize returns a copy of t in which every column is renderable: text and
// mixed columns become String or Category, and 64-bit numerics are narrowed
// to 32 bits where the values fit. The input is never modified. Sanitize
// does not panic; on any unexpected failure it returns t unchanged.
func Sanitize(t *dataset.Table) (out *dataset.Table) {
	if t == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			logging.New("display").Warn("sanitize failed", "error", r)
			out = t
		}
	}()

	out = t.Clone()
	for i, c := range out.Columns {
		switch c.Kind {
		case dataset.Object, dataset.String:
			out.Columns[i] = sanitizeText(c)
		case dataset.Float64:
			if col, ok := toFloat32(c); ok {
				out.Columns[i] = col
			}
		case dataset.Int64:
			if col, ok := toInt32(c); ok {
				out.Columns[i] = col
			}
		}
	}
	return out
}

// sanitizeText tries a string column, then a categorical one, then forces
// every value through fmt.Sprint.
func sanitizeText(c *dataset.Column) *dataset.Column {
	if col, ok := asString(c); ok {
		return col
	}
	if col, ok := asCategory(c); ok {
		return col
	}
	return forceString(c)
}

// asString accepts columns holding only strings and nil.
func asString(c *dataset.Column) (*dataset.Column, bool) {
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		if _, ok := v.(string); !ok {
			return nil, false
		}
	}
	return &dataset.Column{Name: c.Name, Kind: dataset.String, Values: c.Values}, true
}

// asCategory accepts columns whose non-nil values share one comparable type
// that is not a floating NaN.
func asCategory(c *dataset.Column) (*dataset.Column, bool) {
	var typ reflect.Type
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		if dataset.IsMissing(v) {
			return nil, false
		}
		rt := reflect.TypeOf(v)
		if !rt.Comparable() {
			return nil, false
		}
		if typ == nil {
			typ = rt
		} else if rt != typ {
			return nil, false
		}
	}
	return &dataset.Column{Name: c.Name, Kind: dataset.Category, Values: c.Values}, true
}

func forceString(c *dataset.Column) *dataset.Column {
	vals := make([]any, len(c.Values))
	for i, v := range c.Values {
		s := fmt.Sprint(v)
		if unknownTokens[s] {
			s = Unknown
		}
		vals[i] = s
	}
	return &dataset.Column{Name: c.Name, Kind: dataset.String, Values: vals}
}

func toFloat32(c *dataset.Column) (*dataset.Column, bool) {
	vals := make([]any, len(c.Values))
	for i, v := range c.Values {
		f, ok := v.(float64)
		if !ok {
			return nil, false
		}
		if !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return nil, false
		}
		vals[i] = float32(f)
	}
	return &dataset.Column{Name: c.Name, Kind: dataset.Float32, Values: vals}, true
}

func toInt32(c *dataset.Column) (*dataset.Column, bool) {
	vals := make([]any, len(c.Values))
	for i, v := range c.Values {
		n, ok := v.(int64)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, false
		}
		vals[i] = int32(n)
	}
	return &dataset.Column{Name: c.Name, Kind: dataset.Int32, Values: vals}, true
}
