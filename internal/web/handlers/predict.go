package handlers

import (
	"context"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log"
	"net/http"

	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/kozaktomas/emotion-recognizer/internal/classifier"
	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/constants"
	"github.com/kozaktomas/emotion-recognizer/internal/database"
	"github.com/kozaktomas/emotion-recognizer/internal/web/middleware"
)

// PredictHandler classifies uploaded face images.
type PredictHandler struct {
	config         *config.Config
	classifier     classifier.Classifier
	sessionManager *middleware.SessionManager
	store          database.PredictionWriter // nil when the prediction log is disabled
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(cfg *config.Config, cls classifier.Classifier, sm *middleware.SessionManager) *PredictHandler {
	h := &PredictHandler{
		config:         cfg,
		classifier:     cls,
		sessionManager: sm,
	}
	if writer, err := database.GetPredictionWriter(context.Background()); err == nil {
		h.store = writer
	}
	return h
}

// PredictResponse is the result of one prediction.
type PredictResponse struct {
	Emotion    string             `json:"emotion"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Stabilized string             `json:"stabilized,omitempty"`
	Session    string             `json:"session,omitempty"`
}

// Predict handles a multipart upload with the face image in "file". When the
// optional "session" field names a smoothing session, the label is also fed
// into its window and the stabilized label is returned.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image")
		return
	}

	var session *middleware.Session
	if id := r.FormValue("session"); id != "" {
		if session = h.sessionManager.GetSession(id); session == nil {
			log.Printf("predict: unknown session %s", sanitizeForLog(id))
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
	}

	pred, err := h.classifier.Classify(r.Context(), img)
	if err != nil {
		log.Printf("predict: %s failed: %v", h.classifier.Name(), err)
		respondError(w, http.StatusBadGateway, "classification failed")
		return
	}

	resp := PredictResponse{
		Emotion:    pred.Label,
		Confidence: pred.Confidence,
		Scores:     pred.Scores,
	}
	if session != nil {
		resp.Stabilized = session.Observe(pred.Label)
		resp.Session = session.ID.String()
	}

	h.record(r.Context(), &resp)
	respondJSON(w, http.StatusOK, resp)
}

func (h *PredictHandler) record(ctx context.Context, resp *PredictResponse) {
	if h.store == nil {
		return
	}
	rec := &database.PredictionRecord{
		Source:     database.SourceAPI,
		StreamID:   resp.Session,
		Label:      resp.Emotion,
		Stabilized: resp.Stabilized,
		Confidence: resp.Confidence,
		Backend:    h.classifier.Name(),
	}
	if err := h.store.SavePrediction(ctx, rec); err != nil {
		log.Printf("predict: failed to log prediction: %v", err)
	}
}
