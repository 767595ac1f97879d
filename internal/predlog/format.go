package predlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Prabal729/disease-2/internal/model"
)

// Header is the column layout of the prediction log.
var Header = []string{"timestamp", "predicted_disease", "confidence_percent", "num_symptoms", "selected_symptoms"}

// EncodeRow flattens rec into Header order. A nil confidence becomes an
// empty cell.
func EncodeRow(rec model.PredictionRecord) []string {
	conf := ""
	if rec.ConfidencePercent != nil {
		conf = strconv.FormatFloat(*rec.ConfidencePercent, 'f', -1, 64)
	}
	return []string{
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.PredictedDisease,
		conf,
		strconv.Itoa(rec.NumSymptoms),
		strings.Join(rec.SelectedSymptoms, model.SymptomDelimiter),
	}
}

// DecodeRow parses a row written by EncodeRow.
func DecodeRow(row []string) (model.PredictionRecord, error) {
	var rec model.PredictionRecord
	if len(row) != len(Header) {
		return rec, fmt.Errorf("predlog: row has %d fields, want %d", len(row), len(Header))
	}
	ts, err := time.Parse(time.RFC3339Nano, row[0])
	if err != nil {
		return rec, fmt.Errorf("predlog: timestamp: %w", err)
	}
	rec.Timestamp = ts
	rec.PredictedDisease = row[1]
	if row[2] != "" {
		c, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return rec, fmt.Errorf("predlog: confidence: %w", err)
		}
		rec.ConfidencePercent = &c
	}
	if rec.NumSymptoms, err = strconv.Atoi(row[3]); err != nil {
		return rec, fmt.Errorf("predlog: num_symptoms: %w", err)
	}
	if row[4] != "" {
		rec.SelectedSymptoms = strings.Split(row[4], model.SymptomDelimiter)
	}
	return rec, nil
}
