// Package predlog defines destinations for prediction records and the flat
// row layout they share.
package predlog

import (
	"context"

	"github.com/Prabal729/disease-2/internal/model"
)

// Sink receives prediction records.
type Sink interface {
	Append(ctx context.Context, rec model.PredictionRecord) error
	Close() error
}
