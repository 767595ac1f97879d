// Package predict turns a symptom selection into a disease prediction and
// records it, plus the selection helpers the dashboard offers around it.
package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Prabal729/disease-2/internal/artifact"
	"github.com/Prabal729/disease-2/internal/logging"
	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/predlog"
)

// Invoker runs single predictions against a bundle and appends each outcome
// to Log.
type Invoker struct {
	Log predlog.Sink
	Now func() time.Time
	log *slog.Logger
}

// NewInvoker creates an Invoker that records to sink (nil disables logging).
func NewInvoker(sink predlog.Sink) *Invoker {
	return &Invoker{
		Log: sink,
		Now: func() time.Time { return time.Now().UTC() },
		log: logging.New("predict"),
	}
}

// PredictOne predicts the disease for vec. Probability arg-max selects the
// class whenever the model provides probabilities; otherwise the plain
// prediction is used. Failures are returned as *Error. When only the log
// append fails, the outcome is returned together with an error wrapping
// ErrLogWrite.
func (inv *Invoker) PredictOne(ctx context.Context, vec model.SymptomVector, b *artifact.Bundle) (model.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return model.Outcome{}, &Error{Op: "predict", Err: err}
	}
	if b == nil || b.Model == nil {
		return model.Outcome{}, &Error{Op: "model", Err: ErrNoModel}
	}
	if len(b.Features) == 0 {
		return model.Outcome{}, &Error{Op: "features", Err: ErrNoFeatures}
	}

	row := make([]float32, len(b.Features))
	for i, f := range b.Features {
		row[i] = float32(vec[f])
	}
	if w := b.Model.InputWidth(); w != 0 && w != len(row) {
		return model.Outcome{}, &Error{Op: "predict", Err: fmt.Errorf("%w: %d features selected from, model expects %d", ErrShape, len(row), w)}
	}
	rows := [][]float32{row}

	ids, probs, err := inv.infer(b.Model, rows)
	if err != nil {
		if errors.Is(err, artifact.ErrShape) {
			err = fmt.Errorf("%w: %v", ErrShape, err)
		}
		return model.Outcome{}, &Error{Op: "predict", Err: err}
	}
	if len(ids) == 0 {
		return model.Outcome{}, &Error{Op: "predict", Err: ErrDecode}
	}

	out := model.Outcome{ClassID: ids[0]}
	if id, conf, ok := argmaxClass(b.Model, probs); ok {
		out.ClassID = id
		out.ConfidencePercent = &conf
	}
	out.Disease = decode(b.Labels, out.ClassID)

	if inv.Log == nil {
		return out, nil
	}
	rec := model.PredictionRecord{
		Timestamp:         inv.now(),
		PredictedDisease:  out.Disease,
		ConfidencePercent: out.ConfidencePercent,
		SelectedSymptoms:  vec.Selected(b.Features),
	}
	rec.NumSymptoms = len(rec.SelectedSymptoms)
	if err := inv.Log.Append(ctx, rec); err != nil {
		inv.logger().Warn("prediction log append failed", "error", err)
		return out, &Error{Op: "log", Err: fmt.Errorf("%w: %v", ErrLogWrite, err)}
	}
	return out, nil
}

// infer runs the model once when it supports joint output. Otherwise it
// falls back to Predict plus PredictProba. A probability failure is not
// fatal; probs is then nil and the plain prediction stands.
func (inv *Invoker) infer(m artifact.Classifier, rows [][]float32) ([]int64, [][]float32, error) {
	if jm, ok := m.(artifact.JointClassifier); ok {
		return jm.PredictJoint(rows)
	}
	ids, err := m.Predict(rows)
	if err != nil {
		return nil, nil, err
	}
	pm, ok := m.(artifact.ProbabilisticClassifier)
	if !ok {
		return ids, nil, nil
	}
	probs, err := pm.PredictProba(rows)
	if err != nil {
		inv.logger().Debug("probabilities unavailable, using plain prediction", "error", err)
		return ids, nil, nil
	}
	return ids, probs, nil
}

// argmaxClass picks the arg-max class of the first row.
func argmaxClass(m artifact.Classifier, probs [][]float32) (int64, float64, bool) {
	if len(probs) == 0 || len(probs[0]) == 0 {
		return 0, 0, false
	}
	p := probs[0]
	idx := 0
	for i, v := range p {
		if v > p[idx] {
			idx = i
		}
	}
	id := int64(idx)
	if cl, ok := m.(artifact.ClassLister); ok {
		if classes := cl.Classes(); idx < len(classes) {
			id = classes[idx]
		}
	}
	return id, widen(p[idx]) * 100, true
}

// widen converts through the shortest decimal form so 0.7f becomes 0.7.
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}

func decode(enc *artifact.LabelEncoder, id int64) string {
	if enc != nil {
		if names, err := enc.InverseTransform([]int64{id}); err == nil && len(names) == 1 {
			return names[0]
		}
	}
	return strconv.FormatInt(id, 10)
}

func (inv *Invoker) now() time.Time {
	if inv.Now != nil {
		return inv.Now().UTC()
	}
	return time.Now().UTC()
}

func (inv *Invoker) logger() *slog.Logger {
	if inv.log == nil {
		return logging.New("predict")
	}
	return inv.log
}
