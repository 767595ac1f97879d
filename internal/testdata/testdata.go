// Package testdata materializes a small, self-consistent project tree
// (feature list, label encoder, train/valid CSVs and a linear model) for
// tests across packages.
package testdata

import (
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
)

//go:embed project
var project embed.FS

// Features is the feature order of the fixture project.
var Features = []string{"fever", "cough", "fatigue", "headache", "chest_pain", "shortness_of_breath"}

// Classes is the label encoder's class list; index = class id.
var Classes = []string{"Asthma", "Flu", "Heart Disease"}

// Weights and Bias define the fixture linear model, one row per class.
var (
	Weights = [][]float32{
		{0, 1, 0, 0, 0, 2.5},
		{1.5, 1, 1, 1, 0, 0},
		{0, 0, 0.5, 0, 3, 0.5},
	}
	Bias = []float32{-0.5, -0.5, -0.5}
)

// ModelFile is the fixture model path relative to the project root.
const ModelFile = "models/champion_model.safetensors"

// WriteProject copies the fixture tree into root and writes the linear model.
func WriteProject(root string) error {
	err := fs.WalkDir(project, "project", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel("project", path)
		dst := filepath.Join(root, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		data, err := project.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
	if err != nil {
		return fmt.Errorf("testdata: copy project: %w", err)
	}
	classes := []int64{0, 1, 2}
	return WriteLinearModel(filepath.Join(root, ModelFile), Weights, Bias, classes)
}

// WriteLinearModel encodes a safetensors file holding linear.weight [C,F],
// and, when non-nil, linear.bias [C] and classes [C].
func WriteLinearModel(path string, weights [][]float32, bias []float32, classes []int64) error {
	type entry struct {
		Dtype       string `json:"dtype"`
		Shape       []int  `json:"shape"`
		DataOffsets [2]int `json:"data_offsets"`
	}
	header := map[string]entry{}
	var body []byte

	add := func(name, dtype string, shape []int, raw []byte) {
		header[name] = entry{Dtype: dtype, Shape: shape, DataOffsets: [2]int{len(body), len(body) + len(raw)}}
		body = append(body, raw...)
	}

	var inDim int
	if len(weights) > 0 {
		inDim = len(weights[0])
	}
	var w []byte
	for _, row := range weights {
		w = appendFloat32s(w, row)
	}
	add("linear.weight", "F32", []int{len(weights), inDim}, w)
	if bias != nil {
		add("linear.bias", "F32", []int{len(bias)}, appendFloat32s(nil, bias))
	}
	if classes != nil {
		var c []byte
		for _, v := range classes {
			c = binary.LittleEndian.AppendUint64(c, uint64(v))
		}
		add("classes", "I64", []int{len(classes)}, c)
	}

	hdr, err := json.Marshal(header)
	if err != nil {
		return err
	}
	out := binary.LittleEndian.AppendUint64(nil, uint64(len(hdr)))
	out = append(out, hdr...)
	out = append(out, body...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func appendFloat32s(b []byte, vals []float32) []byte {
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}
