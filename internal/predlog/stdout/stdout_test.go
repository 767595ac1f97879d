package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Prabal729/disease-2/internal/model"
)

func TestAppendWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	o := NewWriter(&buf, false)

	rec := model.PredictionRecord{
		Timestamp:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PredictedDisease: "Asthma",
		NumSymptoms:      1,
		SelectedSymptoms: []string{"shortness_of_breath"},
	}
	if err := o.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["predicted_disease"] != "Asthma" {
		t.Errorf("predicted_disease = %v, want Asthma", got["predicted_disease"])
	}
	if got["confidence_percent"] != nil {
		t.Errorf("confidence_percent = %v, want null", got["confidence_percent"])
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected a single line, got %q", buf.String())
	}
}

func TestPrettyIndents(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, true).Append(context.Background(), model.PredictionRecord{PredictedDisease: "Flu"})
	if !strings.Contains(buf.String(), "\n  \"predicted_disease\"") {
		t.Errorf("expected indented output, got %q", buf.String())
	}
}
