// Package pipeline owns the dashboard's application state: the artifact and
// dataset caches, the prediction invoker and the sinks it records to. Every
// surface (HTTP, CLI, library) goes through a Pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Prabal729/disease-2/internal/artifact"
	"github.com/Prabal729/disease-2/internal/config"
	"github.com/Prabal729/disease-2/internal/dataset"
	"github.com/Prabal729/disease-2/internal/logging"
	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/predict"
	"github.com/Prabal729/disease-2/internal/predlog"
	"github.com/Prabal729/disease-2/internal/predlog/csvlog"
	"github.com/Prabal729/disease-2/internal/predlog/multi"
	"github.com/Prabal729/disease-2/internal/predlog/stdout"
)

// ErrUnknownSymptom is returned when a requested symptom is not a feature.
var ErrUnknownSymptom = errors.New("unknown symptom")

// Options configures a Pipeline.
type Options struct {
	Paths config.PathsConfig
	// Cwd is the working directory searched after Paths.Root. Defaults to
	// os.Getwd.
	Cwd string
	// Loaders overrides the model loaders; nil uses the ONNX and linear
	// loaders.
	Loaders map[string]artifact.ModelLoader
	// Echo, when set, receives every record as a JSON line.
	Echo io.Writer
	// Mirror is an extra sink such as the Postgres mirror.
	Mirror predlog.Sink
}

// Pipeline connects the artifact resolver, dataset loader, invoker and
// prediction log.
type Pipeline struct {
	artifacts *artifact.Cache
	data      *dataset.Cache
	invoker   *predict.Invoker
	ledger    *csvlog.Log
	sinks     predlog.Sink
	logPath   string
	log       *slog.Logger
}

// New builds a Pipeline. Nothing is read from disk until first use. A
// prediction log that cannot be opened does not fail construction; each
// prediction then reports the write failure.
func New(opts Options) (*Pipeline, error) {
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("pipeline: working directory: %w", err)
		}
		cwd = wd
	}
	paths := opts.Paths
	if paths.Root == "" {
		paths.Root = "."
	}

	o := paths.Overrides
	cands := artifact.DefaultCandidates(paths.Root, cwd, paths.LegacyRoots).
		Override(o.Model, o.Features, o.Labels)
	loaders := opts.Loaders
	if loaders == nil {
		loaders = artifact.DefaultModelLoaders(paths.ORTLibPath)
	}

	p := &Pipeline{
		artifacts: artifact.NewCache(artifact.NewResolver(cands, loaders)),
		data:      dataset.NewCache(dataset.NewLoader(os.DirFS(paths.DataDir))),
		logPath:   paths.PredictionLog,
		log:       logging.New("pipeline"),
	}

	var sinks []predlog.Sink
	if paths.PredictionLog != "" {
		l, err := csvlog.Open(paths.PredictionLog)
		if err != nil {
			p.log.Warn("prediction log unavailable", "path", paths.PredictionLog, "error", err)
			sinks = append(sinks, unavailable{err: err})
		} else {
			p.ledger = l
			sinks = append(sinks, l)
		}
	}
	if opts.Echo != nil {
		sinks = append(sinks, stdout.NewWriter(opts.Echo, false))
	}
	if opts.Mirror != nil {
		sinks = append(sinks, opts.Mirror)
	}
	p.sinks = multi.New(sinks...)
	p.invoker = predict.NewInvoker(p.sinks)
	return p, nil
}

// Bundle returns the cached artifact bundle for its features, labels and
// status. Running its model goes through Predict, which keeps the model open
// across a concurrent Reload.
func (p *Pipeline) Bundle() *artifact.Bundle {
	return p.artifacts.Get()
}

// Dataset returns the cached dataset projected onto the bundle's features.
func (p *Pipeline) Dataset() *dataset.Dataset {
	return p.data.Load(p.Bundle().Features)
}

// Predict runs one prediction for the named symptoms. Unknown names are
// rejected before the model is called.
func (p *Pipeline) Predict(ctx context.Context, symptoms []string) (model.Outcome, error) {
	b, release := p.artifacts.Acquire()
	defer release()
	vec, unknown := predict.BuildVector(b.Features, symptoms)
	if len(unknown) > 0 && len(b.Features) > 0 {
		return model.Outcome{}, &predict.Error{
			Op:  "features",
			Err: fmt.Errorf("%w: %s", ErrUnknownSymptom, strings.Join(unknown, ", ")),
		}
	}
	return p.invoker.PredictOne(ctx, vec, b)
}

// Recent returns the last n logged predictions, oldest first.
func (p *Pipeline) Recent(n int) ([]model.PredictionRecord, error) {
	if p.ledger != nil {
		return p.ledger.Recent(n)
	}
	if p.logPath == "" {
		return nil, nil
	}
	return csvlog.ReadRecent(p.logPath, n)
}

// Reload drops both caches so the next access re-reads disk. The previous
// model is closed once predictions already running on it finish.
func (p *Pipeline) Reload() {
	p.artifacts.Invalidate()
	p.data.Invalidate()
	p.log.Info("caches invalidated")
}

// Close closes the sinks and retires the current model, if one was loaded.
func (p *Pipeline) Close() error {
	p.artifacts.Close()
	return p.sinks.Close()
}

// unavailable stands in for a log that could not be opened.
type unavailable struct{ err error }

func (u unavailable) Append(context.Context, model.PredictionRecord) error { return u.err }
func (u unavailable) Close() error                                         { return nil }
