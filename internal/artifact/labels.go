package artifact

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LabelEncoder maps integer class ids to human-readable labels; the id is
// the index into the class list.
type LabelEncoder struct {
	classes []string
	index   map[string]int64
}

// NewLabelEncoder builds an encoder over classes.
func NewLabelEncoder(classes []string) *LabelEncoder {
	le := &LabelEncoder{classes: append([]string(nil), classes...), index: make(map[string]int64, len(classes))}
	for i, c := range le.classes {
		le.index[c] = int64(i)
	}
	return le
}

// Classes returns the class labels in id order.
func (le *LabelEncoder) Classes() []string {
	return append([]string(nil), le.classes...)
}

// InverseTransform decodes class ids into labels.
func (le *LabelEncoder) InverseTransform(ids []int64) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= int64(len(le.classes)) {
			return nil, fmt.Errorf("%w: %d", ErrUnseenLabel, id)
		}
		out[i] = le.classes[id]
	}
	return out, nil
}

// Transform encodes labels into class ids.
func (le *LabelEncoder) Transform(labels []string) ([]int64, error) {
	out := make([]int64, len(labels))
	for i, l := range labels {
		id, ok := le.index[l]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnseenLabel, l)
		}
		out[i] = id
	}
	return out, nil
}

// LoadLabelEncoder reads a gob-encoded []string, or JSON as either a bare
// array or {"classes": [...]}.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var classes []string
	switch formatOf(path) {
	case FormatGob:
		if err := gob.NewDecoder(f).Decode(&classes); err != nil {
			return nil, err
		}
	case FormatJSON:
		var raw json.RawMessage
		if err := json.NewDecoder(f).Decode(&raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &classes); err != nil {
			var obj struct {
				Classes []string `json:"classes"`
			}
			if err := json.Unmarshal(raw, &obj); err != nil {
				return nil, err
			}
			classes = obj.Classes
		}
	default:
		return nil, fmt.Errorf("unsupported label encoder format %q", filepath.Ext(path))
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("label encoder has no classes")
	}
	return NewLabelEncoder(classes), nil
}
