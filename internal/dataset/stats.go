package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Prabal729/disease-2/internal/artifact"
)

// Frequency pairs a column or label with a value (a mean or a rate).
type Frequency struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Count pairs a column or label with an integer count.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Describe returns count, mean, std, min, quartiles and max for every
// numeric column, ignoring missing values. The first column names the
// statistic.
func Describe(t *Table) *Table {
	stats := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	label := &Column{Name: "statistic", Kind: String, Values: make([]any, len(stats))}
	for i, s := range stats {
		label.Values[i] = s
	}
	out := &Table{Columns: []*Column{label}, rows: len(stats)}
	for _, c := range t.Columns {
		if !c.Kind.Numeric() {
			continue
		}
		xs := present(c)
		sort.Float64s(xs)
		vals := []any{
			float64(len(xs)),
			mean(xs),
			stddev(xs),
			quantile(xs, 0),
			quantile(xs, 0.25),
			quantile(xs, 0.5),
			quantile(xs, 0.75),
			quantile(xs, 1),
		}
		out.Columns = append(out.Columns, &Column{Name: c.Name, Kind: Float64, Values: vals})
	}
	return out
}

func present(c *Column) []float64 {
	xs := make([]float64, 0, c.Len())
	for i := range c.Values {
		if f := c.Float(i); !math.IsNaN(f) {
			xs = append(xs, f)
		}
	}
	return xs
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// quantile interpolates linearly between the closest ranks of sorted xs.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// MissingByColumn counts missing values per column, in column order.
func MissingByColumn(t *Table) []Count {
	out := make([]Count, len(t.Columns))
	for i, c := range t.Columns {
		n := 0
		for _, v := range c.Values {
			if IsMissing(v) {
				n++
			}
		}
		out[i] = Count{Name: c.Name, Count: n}
	}
	return out
}

// MissingPercent is the share of missing cells over the whole table.
func MissingPercent(t *Table) float64 {
	cells := t.NumRows() * t.NumCols()
	if cells == 0 {
		return 0
	}
	total := 0
	for _, c := range MissingByColumn(t) {
		total += c.Count
	}
	return float64(total) / float64(cells) * 100
}

// DTypeCounts counts columns per kind name.
func DTypeCounts(t *Table) map[string]int {
	out := make(map[string]int)
	for _, c := range t.Columns {
		out[c.Kind.String()]++
	}
	return out
}

// NumericColumns returns the names of numeric columns.
func NumericColumns(t *Table) []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind.Numeric() {
			names = append(names, c.Name)
		}
	}
	return names
}

// ColumnMeans returns the mean of each numeric column in column order.
func ColumnMeans(t *Table) []Frequency {
	var out []Frequency
	for _, c := range t.Columns {
		if !c.Kind.Numeric() {
			continue
		}
		out = append(out, Frequency{Name: c.Name, Value: mean(present(c))})
	}
	return out
}

// SymptomFrequency returns the top n columns by mean (the share of records
// with the symptom), highest first. n <= 0 returns all.
func SymptomFrequency(t *Table, n int) []Frequency {
	freq := ColumnMeans(t)
	sortDesc(freq)
	if n > 0 && n < len(freq) {
		freq = freq[:n]
	}
	return freq
}

func sortDesc(freq []Frequency) {
	sort.SliceStable(freq, func(i, j int) bool {
		a, b := freq[i].Value, freq[j].Value
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
}

// DecodeLabels maps numeric class ids in col to names through enc. Values
// that are not numbers become id 0. When enc is nil or rejects an id the
// column is returned unchanged.
func DecodeLabels(col *Column, enc *artifact.LabelEncoder) *Column {
	if col == nil || enc == nil {
		return col
	}
	ids := make([]int64, col.Len())
	for i, v := range col.Values {
		ids[i] = toID(v)
	}
	names, err := enc.InverseTransform(ids)
	if err != nil {
		return col
	}
	out := &Column{Name: col.Name, Kind: String, Values: make([]any, len(names))}
	for i, n := range names {
		out.Values[i] = n
	}
	return out
}

func toID(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int32:
		return int64(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int64(f)
		}
		return 0
	}
	if f := toFloat(v); !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return 0
}

// ConcatLabels joins two label series; either may be nil.
func ConcatLabels(a, b *Column) *Column {
	switch {
	case a != nil && b != nil:
		vals := append(append(make([]any, 0, a.Len()+b.Len()), a.Values...), b.Values...)
		return coerce(&Column{Name: a.Name, Kind: mergeKinds(a.Kind, b.Kind), Values: vals})
	case a != nil:
		return a
	default:
		return b
	}
}

// LabelDistribution counts each label, most frequent first. Ties keep the
// order of first appearance. Missing labels are not counted.
func LabelDistribution(col *Column) []Count {
	if col == nil {
		return nil
	}
	idx := make(map[string]int)
	var out []Count
	for _, v := range col.Values {
		if IsMissing(v) {
			continue
		}
		k := FormatValue(v)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Count{Name: k})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ErrMisaligned is returned when labels and features have different lengths.
var ErrMisaligned = errors.New("dataset: labels not aligned with features")

// DiseaseSymptoms returns, for the records labelled disease, each symptom's
// mean when it exceeds threshold, highest first.
func DiseaseSymptoms(x *Table, labels *Column, disease string, threshold float64) ([]Frequency, error) {
	if x == nil || labels == nil {
		return nil, nil
	}
	if labels.Len() != x.NumRows() {
		return nil, fmt.Errorf("%w: %d labels, %d rows", ErrMisaligned, labels.Len(), x.NumRows())
	}
	sub := x.Filter(func(row int) bool {
		return FormatValue(labels.Values[row]) == disease
	})
	var out []Frequency
	for _, f := range ColumnMeans(sub) {
		if f.Value > threshold {
			out = append(out, f)
		}
	}
	sortDesc(out)
	return out, nil
}

// Summary is the analytics overview exported as JSON.
type Summary struct {
	TotalRecords         int     `json:"total_records"`
	TotalFeatures        int     `json:"total_features"`
	UniqueDiseases       int     `json:"unique_diseases"`
	AvgSymptomsPerRecord float64 `json:"avg_symptoms_per_record"`
	MostCommonDisease    string  `json:"most_common_disease"`
	MostCommonSymptom    string  `json:"most_common_symptom"`
}

// Summarize builds the overview from the combined features xAll, the raw
// labels yAll and their decoded names. Any argument may be nil.
func Summarize(xAll *Table, yAll, decoded *Column, numFeatures int) Summary {
	s := Summary{
		TotalFeatures:     numFeatures,
		MostCommonDisease: "N/A",
		MostCommonSymptom: "N/A",
	}
	if xAll != nil {
		s.TotalRecords = xAll.NumRows()
		means := ColumnMeans(xAll)
		var vals []float64
		best := math.Inf(-1)
		for _, m := range means {
			if math.IsNaN(m.Value) {
				continue
			}
			vals = append(vals, m.Value)
			if m.Value > best {
				best = m.Value
				s.MostCommonSymptom = m.Name
			}
		}
		if len(vals) > 0 {
			s.AvgSymptomsPerRecord = mean(vals)
		}
	}
	if yAll != nil {
		s.UniqueDiseases = len(LabelDistribution(yAll))
	}
	if dist := LabelDistribution(decoded); len(dist) > 0 {
		s.MostCommonDisease = mode(dist)
	}
	return s
}

// mode picks the highest count; ties go to the lexically smallest label.
func mode(dist []Count) string {
	best := dist[0]
	for _, c := range dist[1:] {
		if c.Count > best.Count || (c.Count == best.Count && c.Name < best.Name) {
			best = c
		}
	}
	return best.Name
}

// Info is the data-quality report exported as JSON.
type Info struct {
	Shape         [2]int            `json:"shape"`
	Columns       []string          `json:"columns"`
	DTypes        map[string]string `json:"dtypes"`
	MissingValues map[string]int    `json:"missing_values"`
	MemoryUsage   int64             `json:"memory_usage"`
}

// DescribeInfo builds the data-quality report for t.
func DescribeInfo(t *Table) Info {
	info := Info{
		Shape:         [2]int{t.NumRows(), t.NumCols()},
		Columns:       t.ColumnNames(),
		DTypes:        make(map[string]string, t.NumCols()),
		MissingValues: make(map[string]int, t.NumCols()),
	}
	for _, c := range t.Columns {
		info.DTypes[c.Name] = c.Kind.String()
	}
	for _, m := range MissingByColumn(t) {
		info.MissingValues[m.Name] = m.Count
	}
	info.MemoryUsage = MemoryUsage(t)
	return info
}

// MemoryUsage estimates the table's payload size in bytes: fixed widths for
// numeric kinds and string length plus a header for everything else.
func MemoryUsage(t *Table) int64 {
	var n int64
	for _, c := range t.Columns {
		switch c.Kind {
		case Int64, Float64:
			n += 8 * int64(c.Len())
		case Int32, Float32:
			n += 4 * int64(c.Len())
		default:
			for _, v := range c.Values {
				n += 16
				if s, ok := v.(string); ok {
					n += int64(len(s))
				}
			}
		}
	}
	return n
}
