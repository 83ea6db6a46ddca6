package database

import (
	"context"
)

// PredictionReader provides read-only access to the prediction log
type PredictionReader interface {
	// RecentPredictions returns up to limit records, newest first
	RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error)
	// CountByLabel returns per-label totals, most frequent first
	CountByLabel(ctx context.Context) ([]LabelCount, error)
}

// PredictionWriter provides write access to the prediction log
type PredictionWriter interface {
	PredictionReader

	// SavePrediction appends a record. ID and CreatedAt are filled when unset.
	SavePrediction(ctx context.Context, rec *PredictionRecord) error
}
