// Package stdout echoes prediction records as JSON lines.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Prabal729/disease-2/internal/model"
)

// Output writes each record as JSON to a writer, stdout by default.
type Output struct {
	enc *json.Encoder
}

// New creates an Output on os.Stdout with optional pretty-printing.
func New(pretty bool) *Output {
	return NewWriter(os.Stdout, pretty)
}

// NewWriter creates an Output on w.
func NewWriter(w io.Writer, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc}
}

func (o *Output) Append(_ context.Context, rec model.PredictionRecord) error {
	if err := o.enc.Encode(rec); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
