package display

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Prabal729/disease-2/internal/dataset"
	"github.com/Prabal729/disease-2/internal/logging"
)

// ErrNoTable is returned when there is nothing to display.
var ErrNoTable = errors.New("display: no dataset available")

// Display renders the first maxRows rows of t (all rows when maxRows <= 0)
// after sanitising it. When the table cannot be rendered it writes the rows
// as JSON records instead. The result is true only when the table itself was
// rendered; an error is returned only when both forms failed.
func Display(w io.Writer, t *dataset.Table, title string, maxRows int) (bool, error) {
	return DisplayWith(w, Renderer{Mode: ASCII}, t, title, maxRows)
}

// tableRenderer is the primary output form.
type tableRenderer interface {
	Render(w io.Writer, t *dataset.Table, title string) error
}

// DisplayWith is Display with an explicit renderer.
func DisplayWith(w io.Writer, r tableRenderer, t *dataset.Table, title string, maxRows int) (bool, error) {
	if t == nil {
		return false, ErrNoTable
	}
	clean := Sanitize(t.Head(maxRows))

	renderErr := r.Render(w, clean, title)
	if renderErr == nil {
		return true, nil
	}
	log := logging.New("display")
	log.Warn("table render failed, falling back to records", "title", title, "error", renderErr)

	if err := writeRecords(w, clean, title); err != nil {
		log.Error("record fallback failed", "title", title, "error", err)
		return false, errors.Join(renderErr, err)
	}
	return false, nil
}

func writeRecords(w io.Writer, t *dataset.Table, title string) error {
	data, err := json.MarshalIndent(t.Records(), "", "  ")
	if err != nil {
		return fmt.Errorf("display: encoding records: %w", err)
	}
	if title != "" {
		if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
