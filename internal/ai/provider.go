package ai

import (
	"context"
	"sync"
)

// Provider defines the interface for vision-model backends that label a face crop.
type Provider interface {
	Name() string

	// ClassifyEmotion asks the model to pick exactly one of classes for the
	// face in imageData. The returned Emotion is always one of classes.
	ClassifyEmotion(ctx context.Context, imageData []byte, classes []string) (*EmotionAnalysis, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalCost    float64 // in USD
}

// EmotionAnalysis is the JSON document requested from the model.
type EmotionAnalysis struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"` // 0-1, self-reported by the model
}

// RequestPricing holds input/output prices per 1M tokens
type RequestPricing struct {
	Input  float64
	Output float64
}

// usageMeter accumulates Usage for a provider shared between request goroutines.
type usageMeter struct {
	mu      sync.Mutex
	usage   Usage
	pricing RequestPricing // per 1M tokens
}

func (m *usageMeter) track(inputTokens, outputTokens int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage.InputTokens += inputTokens
	m.usage.OutputTokens += outputTokens
	m.usage.TotalCost += float64(inputTokens) / 1_000_000 * m.pricing.Input
	m.usage.TotalCost += float64(outputTokens) / 1_000_000 * m.pricing.Output
}

// GetUsage returns a snapshot of the accumulated usage.
func (m *usageMeter) GetUsage() *Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.usage
	return &u
}

func (m *usageMeter) ResetUsage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = Usage{}
}
