package handlers

import (
	"net/http"

	"github.com/kozaktomas/emotion-recognizer/internal/classifier"
	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/database"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config     *config.Config
	classifier classifier.Classifier
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, cls classifier.Classifier) *ConfigHandler {
	return &ConfigHandler{
		config:     cfg,
		classifier: cls,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Backend       string         `json:"backend"`
	Model         string         `json:"model"`
	Classes       []string       `json:"classes"`
	Window        int            `json:"window"`
	SessionTTL    string         `json:"session_ttl"`
	Providers     []ProviderInfo `json:"providers"`
	PredictionLog bool           `json:"prediction_log"`
}

// ProviderInfo represents information about a classifier backend
type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Get returns the active classifier and smoothing defaults
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	providers := []ProviderInfo{
		{
			Name:      config.BackendRemote,
			Available: true,
		},
		{
			Name:      config.BackendOpenAI,
			Available: h.config.OpenAI.Token != "",
		},
		{
			Name:      config.BackendGemini,
			Available: h.config.Gemini.APIKey != "",
		},
		{
			Name:      config.BackendOllama,
			Available: true, // Always available (local)
		},
	}

	response := ConfigResponse{
		Backend:       h.config.Model.Backend,
		Model:         h.classifier.Name(),
		Classes:       h.classifier.Classes(),
		Window:        h.config.Smoothing.Window,
		SessionTTL:    h.config.Smoothing.SessionTTL.String(),
		Providers:     providers,
		PredictionLog: database.IsInitialized(),
	}

	respondJSON(w, http.StatusOK, response)
}
