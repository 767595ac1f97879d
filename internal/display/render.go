package display

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Prabal729/disease-2/internal/dataset"
)

// Mode selects the table output format.
type Mode int

const (
	ASCII    Mode = iota // fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ErrUnrenderable is returned for columns the table widget cannot serialise.
var ErrUnrenderable = errors.New("display: column not renderable")

// Renderer writes a table in a fixed Mode.
type Renderer struct {
	Mode Mode
}

// Render writes t to w. Object columns are rejected; Sanitize first.
func (r Renderer) Render(w io.Writer, t *dataset.Table, title string) error {
	for _, c := range t.Columns {
		if c.Kind == dataset.Object {
			return fmt.Errorf("%w: %q has mixed values", ErrUnrenderable, c.Name)
		}
	}

	tw := table.NewWriter()
	style := table.StyleLight
	// Column names are data; keep them as written.
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	if r.Mode == ASCII {
		tw.SetTitle(title)
	}

	header := make(table.Row, len(t.Columns))
	cfgs := make([]table.ColumnConfig, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
		cfgs[i] = table.ColumnConfig{Number: i + 1, Align: align(c.Kind)}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(cfgs)

	for row := 0; row < t.NumRows(); row++ {
		cells := make(table.Row, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = dataset.FormatValue(c.Values[row])
		}
		tw.AppendRow(cells)
	}

	var out string
	switch r.Mode {
	case Markdown:
		if title != "" {
			out = "### " + title + "\n\n"
		}
		out += tw.RenderMarkdown()
	default:
		out = tw.Render()
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

func align(k dataset.Kind) text.Align {
	if k.Numeric() {
		return text.AlignRight
	}
	return text.AlignLeft
}
