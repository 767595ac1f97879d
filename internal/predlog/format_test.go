package predlog

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Prabal729/disease-2/internal/model"
)

func TestEncodeRow(t *testing.T) {
	conf := 70.0
	rec := model.PredictionRecord{
		Timestamp:         time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		PredictedDisease:  "Flu",
		ConfidencePercent: &conf,
		NumSymptoms:       2,
		SelectedSymptoms:  []string{"fever", "cough"},
	}
	want := []string{"2026-03-01T09:30:00Z", "Flu", "70", "2", "fever; cough"}
	if diff := cmp.Diff(want, EncodeRow(rec)); diff != "" {
		t.Errorf("EncodeRow mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRowWithoutConfidence(t *testing.T) {
	row := EncodeRow(model.PredictionRecord{Timestamp: time.Unix(0, 0), PredictedDisease: "2"})
	if row[2] != "" {
		t.Errorf("confidence cell = %q, want empty", row[2])
	}
	if row[4] != "" {
		t.Errorf("symptoms cell = %q, want empty", row[4])
	}
}

func TestDecodeRow(t *testing.T) {
	rec, err := DecodeRow([]string{"2026-03-01T09:30:00.5Z", "Heart Disease", "", "1", "chest_pain"})
	if err != nil {
		t.Fatalf("DecodeRow() error: %v", err)
	}
	if rec.ConfidencePercent != nil {
		t.Errorf("confidence = %v, want nil", *rec.ConfidencePercent)
	}
	if diff := cmp.Diff([]string{"chest_pain"}, rec.SelectedSymptoms); diff != "" {
		t.Errorf("symptoms mismatch (-want +got):\n%s", diff)
	}
	if rec.Timestamp.Nanosecond() != 500_000_000 {
		t.Errorf("timestamp = %v, want half-second precision", rec.Timestamp)
	}

	if _, err := DecodeRow([]string{"x"}); err == nil {
		t.Error("expected error for short row")
	}
	if _, err := DecodeRow([]string{"bad", "Flu", "", "1", ""}); err == nil {
		t.Error("expected error for bad timestamp")
	}
}
