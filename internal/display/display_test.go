package display

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Prabal729/disease-2/internal/dataset"
)

func mustTable(t *testing.T, cols ...*dataset.Column) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable(cols...)
	if err != nil {
		t.Fatalf("NewTable() error: %v", err)
	}
	return tbl
}

func TestSanitizeMixedColumnUsesUnknown(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "m", Kind: dataset.Object, Values: []any{nil, "x", math.NaN()}})

	out := Sanitize(in)
	col := out.Column("m")
	if col.Kind != dataset.String {
		t.Fatalf("kind = %v, want string", col.Kind)
	}
	if diff := cmp.Diff([]any{"Unknown", "x", "Unknown"}, col.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if in.Column("m").Kind != dataset.Object {
		t.Error("Sanitize mutated its input")
	}
}

func TestSanitizeStringColumnKeepsMissing(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "s", Kind: dataset.Object, Values: []any{"a", nil}})
	col := Sanitize(in).Column("s")
	if col.Kind != dataset.String || col.Values[1] != nil {
		t.Errorf("got %v %v, want string column with nil kept", col.Kind, col.Values)
	}
}

func TestSanitizeCategory(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "c", Kind: dataset.Object, Values: []any{int64(1), nil, int64(2)}})
	if got := Sanitize(in).Column("c").Kind; got != dataset.Category {
		t.Errorf("kind = %v, want category", got)
	}
}

func TestSanitizeForcesUncomparable(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "o", Kind: dataset.Object, Values: []any{[]int{1}, "NULL"}})
	col := Sanitize(in).Column("o")
	if diff := cmp.Diff([]any{"[1]", "Unknown"}, col.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeDowncasts(t *testing.T) {
	in := mustTable(t,
		&dataset.Column{Name: "f", Kind: dataset.Float64, Values: []any{1.5, math.NaN()}},
		&dataset.Column{Name: "i", Kind: dataset.Int64, Values: []any{int64(3), int64(-4)}},
		&dataset.Column{Name: "big", Kind: dataset.Int64, Values: []any{int64(1) << 40, int64(0)}},
		&dataset.Column{Name: "huge", Kind: dataset.Float64, Values: []any{1e300, 0.0}},
	)
	out := Sanitize(in)

	cases := map[string]dataset.Kind{
		"f":    dataset.Float32,
		"i":    dataset.Int32,
		"big":  dataset.Int64,
		"huge": dataset.Float64,
	}
	for name, want := range cases {
		if got := out.Column(name).Kind; got != want {
			t.Errorf("%s kind = %v, want %v", name, got, want)
		}
	}
	if v := out.Column("i").Values[1]; v != int32(-4) {
		t.Errorf("i[1] = %#v, want int32(-4)", v)
	}
}

func TestSanitizeRecoversFromBadColumn(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "a", Kind: dataset.Int64, Values: []any{int64(1)}})
	in.Columns = append(in.Columns, nil)

	if out := Sanitize(in); out != in {
		t.Error("Sanitize should return its input after a failure")
	}
	if Sanitize(nil) != nil {
		t.Error("Sanitize(nil) should be nil")
	}
}

func TestDisplayRendersTable(t *testing.T) {
	in := mustTable(t,
		&dataset.Column{Name: "symptom", Kind: dataset.Object, Values: []any{"fever", "cough", "rash"}},
		&dataset.Column{Name: "rate", Kind: dataset.Float64, Values: []any{0.5, 0.25, 0.1}},
	)
	var buf bytes.Buffer
	ok, err := Display(&buf, in, "Symptoms", 2)
	if err != nil || !ok {
		t.Fatalf("Display() = %v, %v; want true, nil", ok, err)
	}
	out := buf.String()
	for _, want := range []string{"Symptoms", "fever", "cough", "0.25"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "rash") {
		t.Errorf("output should be limited to 2 rows:\n%s", out)
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(io.Writer, *dataset.Table, string) error {
	return errors.New("widget refused")
}

func TestDisplayFallsBackToRecords(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "a", Kind: dataset.Int64, Values: []any{int64(1), int64(2)}})
	var buf bytes.Buffer
	ok, err := DisplayWith(&buf, failingRenderer{}, in, "Sample", 0)
	if err != nil {
		t.Fatalf("DisplayWith() error: %v", err)
	}
	if ok {
		t.Error("ok = true, want false for the fallback path")
	}
	if !strings.Contains(buf.String(), `"a": 1`) {
		t.Errorf("expected JSON records, got:\n%s", buf.String())
	}
}

func TestDisplayReportsDoubleFailure(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "a", Kind: dataset.Float64, Values: []any{math.Inf(1)}})
	var buf bytes.Buffer
	ok, err := DisplayWith(&buf, failingRenderer{}, in, "", 0)
	if ok || err == nil {
		t.Fatalf("DisplayWith() = %v, %v; want false and an error", ok, err)
	}
}

func TestDisplayNilTable(t *testing.T) {
	ok, err := Display(io.Discard, nil, "x", 10)
	if ok || !errors.Is(err, ErrNoTable) {
		t.Errorf("Display(nil) = %v, %v; want false, ErrNoTable", ok, err)
	}
}

func TestRendererRejectsObject(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "o", Kind: dataset.Object, Values: []any{"x"}})
	err := Renderer{}.Render(io.Discard, in, "")
	if !errors.Is(err, ErrUnrenderable) {
		t.Errorf("Render() error = %v, want ErrUnrenderable", err)
	}
}

func TestRendererMarkdown(t *testing.T) {
	in := mustTable(t, &dataset.Column{Name: "a", Kind: dataset.String, Values: []any{"x"}})
	var buf bytes.Buffer
	if err := (Renderer{Mode: Markdown}).Render(&buf, in, "T"); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "| a |") {
		t.Errorf("expected markdown table, got:\n%s", buf.String())
	}
}
