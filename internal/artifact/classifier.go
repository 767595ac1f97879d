package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Classifier is the opaque model capability: one class id per input row.
type Classifier interface {
	Predict(rows [][]float32) ([]int64, error)
	// InputWidth is the number of features per row, or 0 when unknown.
	InputWidth() int
	Close() error
}

// ProbabilisticClassifier also yields one probability vector per row.
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(rows [][]float32) ([][]float32, error)
}

// JointClassifier returns class ids and probabilities from one inference.
// probs is nil when the model has no probabilities output.
type JointClassifier interface {
	Classifier
	PredictJoint(rows [][]float32) (ids []int64, probs [][]float32, err error)
}

var (
	_ JointClassifier         = (*ONNXClassifier)(nil)
	_ JointClassifier         = (*LinearClassifier)(nil)
	_ ProbabilisticClassifier = (*LinearClassifier)(nil)
)

// ClassLister is implemented by models that know which class id each
// probability column stands for.
type ClassLister interface {
	Classes() []int64
}

// ModelLoader decodes a model file into a Classifier.
type ModelLoader func(path string) (Classifier, error)

// DefaultModelLoaders maps file extensions to loaders. ortLibPath may be
// empty, in which case the ONNX runtime library is expected next to the model.
func DefaultModelLoaders(ortLibPath string) map[string]ModelLoader {
	return map[string]ModelLoader{
		".onnx": func(path string) (Classifier, error) {
			return NewONNXClassifier(path, ortLibPath)
		},
		".safetensors": func(path string) (Classifier, error) {
			return LoadLinearClassifier(path)
		},
	}
}

func loaderFor(loaders map[string]ModelLoader, path string) (ModelLoader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := loaders[ext]
	if !ok {
		return nil, fmt.Errorf("no model loader for %q", ext)
	}
	return l, nil
}

func checkWidth(rows [][]float32, width int) error {
	if width == 0 {
		return nil
	}
	for i, r := range rows {
		if len(r) != width {
			return fmt.Errorf("%w: row %d has %d features, model expects %d", ErrShape, i, len(r), width)
		}
	}
	return nil
}
