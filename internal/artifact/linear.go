package artifact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LinearClassifier is a multinomial logistic model loaded from safetensors:
// linear.weight [C, F] (F32), optional linear.bias [C] (F32) and optional
// classes [C] (I64) naming the class id of each output.
type LinearClassifier struct {
	weights []float32 // row-major [outDim, inDim]
	bias    []float32
	classes []int64
	inDim   int
	outDim  int
}

type tensorMeta struct {
	Dtype       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets [2]int `json:"data_offsets"`
}

// LoadLinearClassifier reads a safetensors model file.
func LoadLinearClassifier(path string) (*LinearClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	tensors, body, err := parseSafetensors(data)
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}

	wMeta, ok := tensors["linear.weight"]
	if !ok {
		return nil, fmt.Errorf("linear: tensor 'linear.weight' not found in header")
	}
	if len(wMeta.Shape) != 2 {
		return nil, fmt.Errorf("linear: expected 2D weight tensor, got shape %v", wMeta.Shape)
	}
	m := &LinearClassifier{outDim: wMeta.Shape[0], inDim: wMeta.Shape[1]}
	if m.weights, err = float32Tensor(body, wMeta, m.outDim*m.inDim); err != nil {
		return nil, fmt.Errorf("linear: weight: %w", err)
	}

	if bMeta, ok := tensors["linear.bias"]; ok {
		if m.bias, err = float32Tensor(body, bMeta, m.outDim); err != nil {
			return nil, fmt.Errorf("linear: bias: %w", err)
		}
	}
	if cMeta, ok := tensors["classes"]; ok {
		if m.classes, err = int64Tensor(body, cMeta, m.outDim); err != nil {
			return nil, fmt.Errorf("linear: classes: %w", err)
		}
	}
	return m, nil
}

// parseSafetensors splits the 8-byte LE header length, the JSON header and
// the tensor data section.
func parseSafetensors(data []byte) (map[string]tensorMeta, []byte, error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("file too small: %d bytes", len(data))
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if uint64(len(data))-8 < headerLen {
		return nil, nil, fmt.Errorf("header length %d exceeds file size", headerLen)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}
	tensors := make(map[string]tensorMeta, len(raw))
	for name, msg := range raw {
		if name == "__metadata__" {
			continue
		}
		var meta tensorMeta
		if err := json.Unmarshal(msg, &meta); err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w", name, err)
		}
		tensors[name] = meta
	}
	return tensors, data[8+headerLen:], nil
}

func tensorBytes(body []byte, meta tensorMeta, dtype string, n, size int) ([]byte, error) {
	if meta.Dtype != dtype {
		return nil, fmt.Errorf("expected dtype %s, got %s", dtype, meta.Dtype)
	}
	start, end := meta.DataOffsets[0], meta.DataOffsets[1]
	if start < 0 || end > len(body) || start > end {
		return nil, fmt.Errorf("data range [%d:%d] exceeds data size %d", start, end, len(body))
	}
	if end-start != n*size {
		return nil, fmt.Errorf("data size %d doesn't match shape %v", end-start, meta.Shape)
	}
	return body[start:end], nil
}

func float32Tensor(body []byte, meta tensorMeta, n int) ([]float32, error) {
	b, err := tensorBytes(body, meta, "F32", n, 4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

func int64Tensor(body []byte, meta tensorMeta, n int) ([]int64, error) {
	b, err := tensorBytes(body, meta, "I64", n, 8)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, nil
}

// InputWidth implements Classifier.
func (m *LinearClassifier) InputWidth() int { return m.inDim }

// Classes implements ClassLister. Without a classes tensor the output index
// is the class id.
func (m *LinearClassifier) Classes() []int64 {
	if m.classes != nil {
		return append([]int64(nil), m.classes...)
	}
	out := make([]int64, m.outDim)
	for i := range out {
		out[i] = int64(i)
	}
	return out
}

// PredictProba returns softmax probabilities per row.
func (m *LinearClassifier) PredictProba(rows [][]float32) ([][]float32, error) {
	if err := checkWidth(rows, m.inDim); err != nil {
		return nil, err
	}
	out := make([][]float32, len(rows))
	for r, vec := range rows {
		out[r] = softmax(m.logits(vec))
	}
	return out, nil
}

// Predict returns the arg-max class id per row.
func (m *LinearClassifier) Predict(rows [][]float32) ([]int64, error) {
	if err := checkWidth(rows, m.inDim); err != nil {
		return nil, err
	}
	classes := m.Classes()
	out := make([]int64, len(rows))
	for r, vec := range rows {
		out[r] = classes[argmax(m.logits(vec))]
	}
	return out, nil
}

// PredictJoint implements JointClassifier, computing logits once per row.
func (m *LinearClassifier) PredictJoint(rows [][]float32) ([]int64, [][]float32, error) {
	if err := checkWidth(rows, m.inDim); err != nil {
		return nil, nil, err
	}
	classes := m.Classes()
	ids := make([]int64, len(rows))
	probs := make([][]float32, len(rows))
	for r, vec := range rows {
		l := m.logits(vec)
		ids[r] = classes[argmax(l)]
		probs[r] = softmax(l)
	}
	return ids, probs, nil
}

// Close implements Classifier.
func (m *LinearClassifier) Close() error { return nil }

func (m *LinearClassifier) logits(vec []float32) []float32 {
	out := make([]float32, m.outDim)
	for i := 0; i < m.outDim; i++ {
		row := m.weights[i*m.inDim : (i+1)*m.inDim]
		var sum float32
		for j, w := range row {
			sum += w * vec[j]
		}
		if m.bias != nil {
			sum += m.bias[i]
		}
		out[i] = sum
	}
	return out
}

func softmax(z []float32) []float32 {
	if len(z) == 0 {
		return nil
	}
	peak := z[argmax(z)]
	out := make([]float32, len(z))
	var sum float64
	for i, v := range z {
		e := math.Exp(float64(v - peak))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// argmax returns the index of the largest value; ties keep the first.
func argmax(v []float32) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
