// Package classifier turns a face crop into an emotion label. The model itself
// runs elsewhere: on an inference server or behind a vision LLM API.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/emotion-recognizer/internal/ai"
	"github.com/kozaktomas/emotion-recognizer/internal/config"
)

// Classifier labels a single face image with one of its Classes.
// Implementations are safe for concurrent use.
type Classifier interface {
	Name() string
	Classes() []string
	Classify(ctx context.Context, img image.Image) (*Prediction, error)
}

// Prediction is the result of classifying one image.
type Prediction struct {
	Label      string             `json:"label"`
	Index      int                `json:"index"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// New builds the classifier selected by cfg.Model.Backend.
func New(ctx context.Context, cfg *config.Config) (Classifier, error) {
	ckpt, err := LoadCheckpoint(cfg.Model.Checkpoint)
	if err != nil {
		return nil, err
	}

	switch cfg.Model.Backend {
	case config.BackendRemote:
		return NewRemoteClassifier(ckpt, RemoteOptions{
			URL:     cfg.Inference.URL,
			Model:   cfg.Inference.Model,
			Timeout: cfg.Inference.Timeout,
		}), nil
	case config.BackendOpenAI:
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN environment variable is required")
		}
		pricing := cfg.GetModelPricing("gpt-4.1-mini").Standard
		provider := ai.NewOpenAIProvider(cfg.OpenAI.Token, ai.RequestPricing{Input: pricing.Input, Output: pricing.Output})
		return NewProviderClassifier(provider, ckpt.Classes), nil
	case config.BackendGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		pricing := cfg.GetModelPricing("gemini-2.5-flash").Standard
		provider, err := ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey, ai.RequestPricing{Input: pricing.Input, Output: pricing.Output})
		if err != nil {
			return nil, err
		}
		return NewProviderClassifier(provider, ckpt.Classes), nil
	case config.BackendOllama:
		return NewProviderClassifier(ai.NewOllamaProvider(cfg.Ollama.URL, cfg.Ollama.Model), ckpt.Classes), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (use remote, openai, gemini or ollama)", cfg.Model.Backend)
	}
}
