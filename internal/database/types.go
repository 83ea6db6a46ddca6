package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source identifies where a prediction was made.
type Source string

const (
	SourceAPI    Source = "api"
	SourceWebcam Source = "webcam"
	SourceCLI    Source = "cli"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceAPI, SourceWebcam, SourceCLI:
		return true
	}
	return false
}

// PredictionRecord is one logged classification.
type PredictionRecord struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Source     Source
	StreamID   string // HTTP session or webcam track, empty when unsmoothed
	Label      string // raw classifier output
	Stabilized string // majority label, empty when unavailable
	Confidence float64
	Backend    string
}

// Prepare fills ID and CreatedAt when unset and validates the record.
func (r *PredictionRecord) Prepare(now time.Time) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if !r.Source.Valid() {
		return fmt.Errorf("invalid prediction source %q", r.Source)
	}
	if r.Label == "" {
		return errors.New("prediction label is required")
	}
	return nil
}

// LabelCount is the number of logged predictions with a given raw label.
type LabelCount struct {
	Label string
	Count int
}
