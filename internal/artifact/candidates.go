package artifact

import "path/filepath"

const (
	modelBase    = "champion_model"
	featuresBase = "selected_features"
	labelsBase   = "label_encoder"
)

// Candidates holds the ordered search list for each slot.
type Candidates struct {
	Model    []string
	Features []string
	Labels   []string
}

// DefaultCandidates builds the search lists: the project root first, then
// the working directory, then the relative layout, then each legacy root.
// Feature lists prefer the serialized forms over CSV at every location.
func DefaultCandidates(root, cwd string, legacyRoots []string) Candidates {
	var c Candidates
	bases := []string{root, cwd, ""}

	models := func(dir string) []string {
		return []string{
			filepath.Join(dir, "models", modelBase+".onnx"),
			filepath.Join(dir, "models", modelBase+".safetensors"),
		}
	}
	serializedFeatures := func(dir string) []string {
		return []string{
			filepath.Join(dir, "models", featuresBase+".gob"),
			filepath.Join(dir, "models", featuresBase+".json"),
		}
	}
	csvFeatures := func(dir string) string {
		return filepath.Join(dir, "models", featuresBase+".csv")
	}
	labels := func(dir string) []string {
		return []string{
			filepath.Join(dir, "data", "processed", labelsBase+".gob"),
			filepath.Join(dir, "data", "processed", labelsBase+".json"),
		}
	}

	for _, b := range bases {
		c.Model = append(c.Model, models(b)...)
		c.Features = append(c.Features, serializedFeatures(b)...)
		c.Labels = append(c.Labels, labels(b)...)
	}
	for _, b := range bases {
		c.Features = append(c.Features, csvFeatures(b))
	}
	for _, b := range legacyRoots {
		c.Model = append(c.Model, models(b)...)
		c.Features = append(c.Features, serializedFeatures(b)...)
		c.Features = append(c.Features, csvFeatures(b))
		c.Labels = append(c.Labels, labels(b)...)
	}
	return c.dedupe()
}

// Override replaces each slot's list with the given one when non-empty.
func (c Candidates) Override(model, features, labels []string) Candidates {
	if len(model) > 0 {
		c.Model = model
	}
	if len(features) > 0 {
		c.Features = features
	}
	if len(labels) > 0 {
		c.Labels = labels
	}
	return c
}

// key identifies the candidate set for cache lookups.
func (c Candidates) key() string {
	var b []byte
	for _, list := range [][]string{c.Model, c.Features, c.Labels} {
		for _, p := range list {
			b = append(b, p...)
			b = append(b, 0)
		}
		b = append(b, 1)
	}
	return string(b)
}

// dedupe drops repeated paths (root == cwd is common) keeping first position.
func (c Candidates) dedupe() Candidates {
	uniq := func(in []string) []string {
		seen := make(map[string]bool, len(in))
		out := in[:0:0]
		for _, p := range in {
			p = filepath.Clean(p)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
		return out
	}
	return Candidates{Model: uniq(c.Model), Features: uniq(c.Features), Labels: uniq(c.Labels)}
}
