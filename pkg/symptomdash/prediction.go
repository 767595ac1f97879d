package symptomdash

import (
	"time"

	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/predict"
)

// Prediction is the result of one Predict call.
type Prediction struct {
	Disease         string   `json:"disease"`
	Confidence      *float64 `json:"confidence_percent"` // nil when the model has no probabilities
	Level           string   `json:"level"`              // Low, Moderate or High
	Recommendations []string `json:"recommendations"`
}

// Record is one entry of the prediction log.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Disease    string    `json:"predicted_disease"`
	Confidence *float64  `json:"confidence_percent"`
	Symptoms   []string  `json:"selected_symptoms"`
}

func predictionFromOutcome(o model.Outcome) Prediction {
	level, recs := predict.Recommendations(o.ConfidencePercent)
	return Prediction{
		Disease:         o.Disease,
		Confidence:      o.ConfidencePercent,
		Level:           string(level),
		Recommendations: recs,
	}
}

func recordFromModel(r model.PredictionRecord) Record {
	return Record{
		Timestamp:  r.Timestamp,
		Disease:    r.PredictedDisease,
		Confidence: r.ConfidencePercent,
		Symptoms:   r.SelectedSymptoms,
	}
}
