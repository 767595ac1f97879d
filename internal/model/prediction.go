package model

import "time"

// SymptomVector maps a feature name to 1 (selected) or 0.
type SymptomVector map[string]int

// Selected returns the selected symptom names in the order of features.
func (v SymptomVector) Selected(features []string) []string {
	var out []string
	for _, f := range features {
		if v[f] == 1 {
			out = append(out, f)
		}
	}
	return out
}

// Outcome is the user-facing result of one prediction.
type Outcome struct {
	ClassID           int64    `json:"class_id"`
	Disease           string   `json:"disease"`
	ConfidencePercent *float64 `json:"confidence_percent"` // nil when the model has no probabilities
}

// PredictionRecord is one row of the append-only prediction log.
type PredictionRecord struct {
	Timestamp         time.Time `json:"timestamp"`
	PredictedDisease  string    `json:"predicted_disease"`
	ConfidencePercent *float64  `json:"confidence_percent"`
	NumSymptoms       int       `json:"num_symptoms"`
	SelectedSymptoms  []string  `json:"selected_symptoms"`
}

// SymptomDelimiter joins SelectedSymptoms in the flat log.
const SymptomDelimiter = "; "
