// Package multi fans prediction records out to several sinks.
package multi

import (
	"context"
	"errors"

	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/predlog"
)

// Multi appends each record to every wrapped sink in order. A failing sink
// does not stop delivery to the rest; all errors are joined.
type Multi struct {
	sinks []predlog.Sink
}

// New creates a Multi over sinks. Nil sinks are skipped.
func New(sinks ...predlog.Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Append(ctx context.Context, rec model.PredictionRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
