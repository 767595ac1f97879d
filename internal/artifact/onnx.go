package artifact

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Only the first call has
// any effect; later calls return its result.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXClassifier runs a classifier exported with the sklearn-onnx
// conventions: a single float input [N, F], an int64 "label" output [N] and
// optionally a float "probabilities" output [N, C] (ZipMap disabled).
type ONNXClassifier struct {
	session   *ort.DynamicAdvancedSession
	inputName string
	width     int64 // 0 when the model declares a dynamic feature dimension
	hasProba  bool
}

// NewONNXClassifier loads the model and creates an inference session. When
// libPath is empty the runtime library is expected alongside the model.
func NewONNXClassifier(modelPath, libPath string) (*ONNXClassifier, error) {
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input, got %d", len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat || len(in.Dimensions) != 2 {
		return nil, fmt.Errorf("onnx: expected float input [N, F], got %v %v", in.DataType, in.Dimensions)
	}

	outputNames, hasProba, err := classifierOutputs(outputs)
	if err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{in.Name}, outputNames, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	width := in.Dimensions[1]
	if width < 0 {
		width = 0
	}
	return &ONNXClassifier{
		session:   session,
		inputName: in.Name,
		width:     width,
		hasProba:  hasProba,
	}, nil
}

// classifierOutputs picks the label tensor and, when present as a plain
// tensor, the probabilities tensor. The label always comes first.
func classifierOutputs(outputs []ort.InputOutputInfo) ([]string, bool, error) {
	var label, proba string
	for _, o := range outputs {
		if o.OrtValueType != ort.ONNXTypeTensor {
			continue
		}
		switch {
		case label == "" && o.DataType == ort.TensorElementDataTypeInt64:
			label = o.Name
		case proba == "" && o.DataType == ort.TensorElementDataTypeFloat && len(o.Dimensions) == 2:
			proba = o.Name
		}
	}
	if label == "" {
		return nil, false, fmt.Errorf("onnx: model has no int64 label output")
	}
	if proba == "" {
		return []string{label}, false, nil
	}
	return []string{label, proba}, true, nil
}

// InputWidth implements Classifier.
func (c *ONNXClassifier) InputWidth() int { return int(c.width) }

// Predict implements Classifier.
func (c *ONNXClassifier) Predict(rows [][]float32) ([]int64, error) {
	labels, _, err := c.run(rows, false)
	return labels, err
}

// PredictProba implements ProbabilisticClassifier. Models exported without a
// probabilities tensor return an error.
func (c *ONNXClassifier) PredictProba(rows [][]float32) ([][]float32, error) {
	if !c.hasProba {
		return nil, fmt.Errorf("onnx: model has no probabilities output")
	}
	_, probs, err := c.run(rows, true)
	return probs, err
}

// PredictJoint implements JointClassifier with a single session run.
func (c *ONNXClassifier) PredictJoint(rows [][]float32) ([]int64, [][]float32, error) {
	return c.run(rows, c.hasProba)
}

// run executes a single inference call over the batch.
func (c *ONNXClassifier) run(rows [][]float32, wantProba bool) ([]int64, [][]float32, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}
	width := len(rows[0])
	if err := checkWidth(rows, width); err != nil {
		return nil, nil, err
	}
	if err := checkWidth(rows, int(c.width)); err != nil {
		return nil, nil, err
	}

	flat := make([]float32, 0, len(rows)*width)
	for _, r := range rows {
		flat = append(flat, r...)
	}
	in, err := ort.NewTensor(ort.NewShape(int64(len(rows)), int64(width)), flat)
	if err != nil {
		return nil, nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	// nil outputs are allocated by the runtime and must be destroyed here.
	n := 1
	if c.hasProba {
		n = 2
	}
	outs := make([]ort.Value, n)
	if err := c.session.Run([]ort.Value{in}, outs); err != nil {
		return nil, nil, fmt.Errorf("onnx: inference failed: %w", err)
	}
	defer func() {
		for _, o := range outs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	lt, ok := outs[0].(*ort.Tensor[int64])
	if !ok {
		return nil, nil, fmt.Errorf("onnx: unexpected label output type %T", outs[0])
	}
	labels := append([]int64(nil), lt.GetData()...)
	if !wantProba || !c.hasProba {
		return labels, nil, nil
	}

	pt, ok := outs[1].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("onnx: unexpected probabilities output type %T", outs[1])
	}
	shape := pt.GetShape()
	if len(shape) != 2 || shape[0] != int64(len(rows)) {
		return nil, nil, fmt.Errorf("onnx: probabilities shape %v for %d rows", shape, len(rows))
	}
	data := pt.GetData()
	cols := int(shape[1])
	probs := make([][]float32, len(rows))
	for i := range probs {
		probs[i] = append([]float32(nil), data[i*cols:(i+1)*cols]...)
	}
	return labels, probs, nil
}

// Close releases the ONNX session resources.
func (c *ONNXClassifier) Close() error {
	return c.session.Destroy()
}
