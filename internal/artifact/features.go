package artifact

import (
	"encoding/csv"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is the on-disk encoding of an artifact, decided once from its extension.
type Format int

const (
	FormatUnknown Format = iota
	FormatGob
	FormatJSON
	FormatCSV
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gob":
		return FormatGob
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// FeatureSource is a feature-list candidate tagged with its format.
type FeatureSource struct {
	Path   string
	Format Format
}

// NewFeatureSource tags path with the format implied by its extension.
func NewFeatureSource(path string) FeatureSource {
	return FeatureSource{Path: path, Format: formatOf(path)}
}

// Load decodes the ordered feature list.
func (s FeatureSource) Load() ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var features []string
	switch s.Format {
	case FormatGob:
		err = gob.NewDecoder(f).Decode(&features)
	case FormatJSON:
		err = json.NewDecoder(f).Decode(&features)
	case FormatCSV:
		features, err = readFeatureCSV(f)
	default:
		err = fmt.Errorf("unsupported feature list format %q", filepath.Ext(s.Path))
	}
	if err != nil {
		return nil, err
	}
	if err := checkUnique(features); err != nil {
		return nil, err
	}
	return features, nil
}

// readFeatureCSV applies the feature CSV rule: the first row is a header;
// with exactly one column every following row names a feature, otherwise
// the header cells are the features.
func readFeatureCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty feature csv")
	}

	header := records[0]
	if len(header) != 1 {
		return trimAll(header), nil
	}
	features := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		if name := strings.TrimSpace(rec[0]); name != "" {
			features = append(features, name)
		}
	}
	return features, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func checkUnique(features []string) error {
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if seen[f] {
			return fmt.Errorf("duplicate feature %q", f)
		}
		seen[f] = true
	}
	return nil
}
