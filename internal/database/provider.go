package database

import (
	"context"
	"errors"
	"sync"
)

var (
	backendMu        sync.RWMutex
	predictionWriter func() PredictionWriter
)

// RegisterPostgresBackend registers the PostgreSQL repository constructor.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(writer func() PredictionWriter) {
	backendMu.Lock()
	defer backendMu.Unlock()
	predictionWriter = writer
}

// IsInitialized returns whether a prediction log backend has been registered.
func IsInitialized() bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return predictionWriter != nil
}

// GetPredictionWriter returns a PredictionWriter from the PostgreSQL backend
func GetPredictionWriter(ctx context.Context) (PredictionWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if predictionWriter == nil {
		return nil, errors.New("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	return predictionWriter(), nil
}

// GetPredictionReader returns a PredictionReader from the PostgreSQL backend
func GetPredictionReader(ctx context.Context) (PredictionReader, error) {
	return GetPredictionWriter(ctx)
}
