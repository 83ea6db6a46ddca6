package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/emotion-recognizer/internal/constants"
	"github.com/kozaktomas/emotion-recognizer/internal/database"
)

// PredictionRepository provides PostgreSQL-backed prediction log storage
type PredictionRepository struct {
	pool *Pool
}

// NewPredictionRepository creates a new PostgreSQL prediction repository
func NewPredictionRepository(pool *Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// SavePrediction inserts a record
func (r *PredictionRepository) SavePrediction(ctx context.Context, rec *database.PredictionRecord) error {
	if err := rec.Prepare(time.Now()); err != nil {
		return err
	}

	query := `
		INSERT INTO predictions (id, created_at, source, stream_id, label, stabilized, confidence, backend)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID.String(), rec.CreatedAt, string(rec.Source), nullString(rec.StreamID),
		rec.Label, nullString(rec.Stabilized), rec.Confidence, rec.Backend,
	)
	if err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

// RecentPredictions returns up to limit records, newest first
func (r *PredictionRepository) RecentPredictions(ctx context.Context, limit int) ([]database.PredictionRecord, error) {
	if limit <= 0 {
		limit = constants.DefaultPredictionLimit
	}

	query := `
		SELECT id, created_at, source, stream_id, label, stabilized, confidence, backend
		FROM predictions
		ORDER BY created_at DESC, id
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var records []database.PredictionRecord
	for rows.Next() {
		var (
			rec                  database.PredictionRecord
			id, source           string
			streamID, stabilized sql.NullString
		)
		if err := rows.Scan(&id, &rec.CreatedAt, &source, &streamID, &rec.Label, &stabilized, &rec.Confidence, &rec.Backend); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse prediction id %q: %w", id, err)
		}
		rec.Source = database.Source(source)
		rec.StreamID = streamID.String
		rec.Stabilized = stabilized.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return records, nil
}

// CountByLabel returns per-label totals, most frequent first
func (r *PredictionRepository) CountByLabel(ctx context.Context) ([]database.LabelCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT label, COUNT(*)
		FROM predictions
		GROUP BY label
		ORDER BY COUNT(*) DESC, label
	`)
	if err != nil {
		return nil, fmt.Errorf("count predictions: %w", err)
	}
	defer rows.Close()

	var counts []database.LabelCount
	for rows.Next() {
		var c database.LabelCount
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label counts: %w", err)
	}
	return counts, nil
}
