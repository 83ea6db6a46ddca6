package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/database"
	"github.com/kozaktomas/emotion-recognizer/internal/database/postgres"
)

// openPredictionLog connects to PostgreSQL, migrates it and registers the
// prediction log. Callers close the returned pool.
func openPredictionLog(ctx context.Context, cfg *config.Config) (*postgres.Pool, database.PredictionWriter, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	writer, err := database.GetPredictionWriter(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, writer, nil
}
