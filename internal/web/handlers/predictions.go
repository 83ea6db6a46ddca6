package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/emotion-recognizer/internal/constants"
	"github.com/kozaktomas/emotion-recognizer/internal/database"
)

// PredictionsHandler serves the prediction log.
type PredictionsHandler struct {
	reader database.PredictionReader
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler() *PredictionsHandler {
	h := &PredictionsHandler{}
	if reader, err := database.GetPredictionReader(context.Background()); err == nil {
		h.reader = reader
	}
	return h
}

// PredictionResponse is one logged prediction.
type PredictionResponse struct {
	ID         string  `json:"id"`
	CreatedAt  string  `json:"created_at"`
	Source     string  `json:"source"`
	StreamID   string  `json:"stream_id,omitempty"`
	Label      string  `json:"label"`
	Stabilized string  `json:"stabilized,omitempty"`
	Confidence float64 `json:"confidence"`
	Backend    string  `json:"backend"`
}

// LabelCountResponse is the number of predictions of one label.
type LabelCountResponse struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// List returns the most recent predictions, newest first.
func (h *PredictionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondError(w, http.StatusServiceUnavailable, "prediction log not configured")
		return
	}

	limit := constants.DefaultPredictionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, constants.MaxPredictionLimit)
	}

	records, err := h.reader.RecentPredictions(r.Context(), limit)
	if err != nil {
		log.Printf("predictions: failed to list: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load predictions")
		return
	}

	out := make([]PredictionResponse, len(records))
	for i, rec := range records {
		out[i] = PredictionResponse{
			ID:         rec.ID.String(),
			CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
			Source:     string(rec.Source),
			StreamID:   rec.StreamID,
			Label:      rec.Label,
			Stabilized: rec.Stabilized,
			Confidence: rec.Confidence,
			Backend:    rec.Backend,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// Labels returns per-label totals, most frequent first.
func (h *PredictionsHandler) Labels(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondError(w, http.StatusServiceUnavailable, "prediction log not configured")
		return
	}

	counts, err := h.reader.CountByLabel(r.Context())
	if err != nil {
		log.Printf("predictions: failed to count labels: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to count predictions")
		return
	}

	out := make([]LabelCountResponse, len(counts))
	for i, c := range counts {
		out[i] = LabelCountResponse{Label: c.Label, Count: c.Count}
	}
	respondJSON(w, http.StatusOK, out)
}
