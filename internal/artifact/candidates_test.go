package artifact

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultCandidatesOrder(t *testing.T) {
	c := DefaultCandidates("/srv/app", "/work", []string{"/legacy"})

	wantModel := []string{
		"/srv/app/models/champion_model.onnx",
		"/srv/app/models/champion_model.safetensors",
		"/work/models/champion_model.onnx",
		"/work/models/champion_model.safetensors",
		"models/champion_model.onnx",
		"models/champion_model.safetensors",
		"/legacy/models/champion_model.onnx",
		"/legacy/models/champion_model.safetensors",
	}
	if diff := cmp.Diff(wantModel, c.Model); diff != "" {
		t.Errorf("model candidates mismatch (-want +got):\n%s", diff)
	}

	wantFeatures := []string{
		"/srv/app/models/selected_features.gob",
		"/srv/app/models/selected_features.json",
		"/work/models/selected_features.gob",
		"/work/models/selected_features.json",
		"models/selected_features.gob",
		"models/selected_features.json",
		"/srv/app/models/selected_features.csv",
		"/work/models/selected_features.csv",
		"models/selected_features.csv",
		"/legacy/models/selected_features.gob",
		"/legacy/models/selected_features.json",
		"/legacy/models/selected_features.csv",
	}
	if diff := cmp.Diff(wantFeatures, c.Features); diff != "" {
		t.Errorf("feature candidates mismatch (-want +got):\n%s", diff)
	}

	if c.Labels[0] != filepath.Join("/srv/app", "data", "processed", "label_encoder.gob") {
		t.Errorf("first label candidate = %q", c.Labels[0])
	}
}

func TestDefaultCandidatesDedupe(t *testing.T) {
	c := DefaultCandidates(".", ".", nil)
	seen := map[string]bool{}
	for _, p := range c.Model {
		if seen[p] {
			t.Fatalf("duplicate candidate %q", p)
		}
		seen[p] = true
	}
	if len(c.Model) != 2 {
		t.Fatalf("got %d model candidates, want 2", len(c.Model))
	}
}

func TestOverride(t *testing.T) {
	c := DefaultCandidates("/srv/app", "/work", nil).Override([]string{"/m.onnx"}, nil, nil)
	if diff := cmp.Diff([]string{"/m.onnx"}, c.Model); diff != "" {
		t.Errorf("model override mismatch (-want +got):\n%s", diff)
	}
	if len(c.Features) == 0 {
		t.Error("features should keep defaults when override is empty")
	}
}
