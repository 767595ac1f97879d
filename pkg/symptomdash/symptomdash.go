package symptomdash

import (
	"context"
	"errors"
	"fmt"

	"github.com/Prabal729/disease-2/internal/config"
	"github.com/Prabal729/disease-2/internal/dataset"
	"github.com/Prabal729/disease-2/internal/pipeline"
	"github.com/Prabal729/disease-2/internal/predict"
)

var (
	// ErrNotReady is returned by Predict when the model or feature list could
	// not be resolved.
	ErrNotReady = errors.New("symptomdash: model artifacts unavailable")
	// ErrUnknownSymptom is returned when a symptom is not one of Features().
	ErrUnknownSymptom = pipeline.ErrUnknownSymptom
	// ErrLogWrite is returned alongside a valid Prediction when the
	// prediction log could not be written.
	ErrLogWrite = predict.ErrLogWrite
)

// Dashboard predicts diseases from symptoms and records every prediction.
// Safe for concurrent use.
type Dashboard struct {
	p *pipeline.Pipeline
}

// New creates a Dashboard. Artifacts and data are read lazily on first use.
func New(opts ...Option) (*Dashboard, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	dataDir, logPath := resolvePaths(o)

	p, err := pipeline.New(pipeline.Options{
		Paths: config.PathsConfig{
			Root:          o.root,
			DataDir:       dataDir,
			PredictionLog: logPath,
			ORTLibPath:    o.ortLib,
			LegacyRoots:   o.legacyRoots,
			Overrides: config.CandidateOverrides{
				Model:    single(o.model),
				Features: single(o.features),
				Labels:   single(o.labels),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("symptomdash: %w", err)
	}
	return &Dashboard{p: p}, nil
}

// Ready reports whether predictions can be made.
func (d *Dashboard) Ready() bool {
	return d.p.Bundle().Ready()
}

// Features returns the symptom names the model expects, in input order.
func (d *Dashboard) Features() []string {
	return append([]string(nil), d.p.Bundle().Features...)
}

// Predict runs the model on the named symptoms and appends the result to the
// prediction log. When only the log write fails, the Prediction is still
// returned together with an error wrapping ErrLogWrite.
func (d *Dashboard) Predict(ctx context.Context, symptoms ...string) (Prediction, error) {
	outcome, err := d.p.Predict(ctx, symptoms)
	switch {
	case err == nil, errors.Is(err, predict.ErrLogWrite):
		return predictionFromOutcome(outcome), err
	case errors.Is(err, predict.ErrNoModel), errors.Is(err, predict.ErrNoFeatures):
		return Prediction{}, fmt.Errorf("%w: %w", ErrNotReady, err)
	default:
		return Prediction{}, err
	}
}

// Recent returns the last n logged predictions, oldest first.
func (d *Dashboard) Recent(n int) ([]Record, error) {
	recs, err := d.p.Recent(n)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = recordFromModel(r)
	}
	return out, nil
}

// Summary returns the dataset overview. Fields fall back to zero and "N/A"
// when no data is available.
func (d *Dashboard) Summary() dataset.Summary {
	b := d.p.Bundle()
	ds := d.p.Dataset()
	if ds.Empty() {
		return dataset.Summarize(nil, nil, nil, len(b.Features))
	}
	y := ds.YAll()
	return dataset.Summarize(ds.XAll, y, dataset.DecodeLabels(y, b.Labels), len(b.Features))
}

// Reload discards cached artifacts and data so the next call re-reads disk.
func (d *Dashboard) Reload() {
	d.p.Reload()
}

// Close releases the model and closes the prediction log.
func (d *Dashboard) Close() error {
	return d.p.Close()
}
