package config

import (
	"os"
	"testing"
	"time"
)

func TestGetModelPricing_KnownModel(t *testing.T) {
	cfg := Load() // Load actual config with embedded prices

	pricing := cfg.GetModelPricing("gpt-4.1-mini")

	if pricing.Standard.Input != 0.40 {
		t.Errorf("expected standard input price 0.40, got %f", pricing.Standard.Input)
	}

	if pricing.Standard.Output != 1.60 {
		t.Errorf("expected standard output price 1.60, got %f", pricing.Standard.Output)
	}

	// Batch pricing should be 50% of standard
	if pricing.Batch.Input != 0.20 {
		t.Errorf("expected batch input price 0.20, got %f", pricing.Batch.Input)
	}
}

func TestGetModelPricing_GeminiModel(t *testing.T) {
	cfg := Load()

	pricing := cfg.GetModelPricing("gemini-2.5-flash")

	if pricing.Standard.Input != 0.30 {
		t.Errorf("expected gemini standard input 0.30, got %f", pricing.Standard.Input)
	}

	if pricing.Standard.Output != 2.50 {
		t.Errorf("expected gemini standard output 2.50, got %f", pricing.Standard.Output)
	}
}

func TestGetModelPricing_UnknownModel(t *testing.T) {
	cfg := Load()

	pricing := cfg.GetModelPricing("unknown-model-xyz")

	if pricing.Standard.Input != 0 || pricing.Standard.Output != 0 {
		t.Errorf("expected zero pricing for unknown model, got input=%f output=%f",
			pricing.Standard.Input, pricing.Standard.Output)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"EMOTION_BACKEND", "EMOTION_CHECKPOINT", "SMOOTHING_WINDOW", "SESSION_TTL",
		"INFERENCE_TIMEOUT", "WEB_HOST", "WEB_PORT", "WEB_ALLOWED_ORIGINS", "DATABASE_URL",
	} {
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.Model.Backend != BackendRemote {
		t.Errorf("expected default backend %q, got %q", BackendRemote, cfg.Model.Backend)
	}
	if cfg.Model.Checkpoint != "" {
		t.Errorf("expected empty checkpoint path, got %q", cfg.Model.Checkpoint)
	}
	if cfg.Smoothing.Window != 7 {
		t.Errorf("expected default window 7, got %d", cfg.Smoothing.Window)
	}
	if cfg.Smoothing.SessionTTL != 30*time.Minute {
		t.Errorf("expected default session TTL 30m, got %s", cfg.Smoothing.SessionTTL)
	}
	if cfg.Inference.Timeout != 30*time.Second {
		t.Errorf("expected default inference timeout 30s, got %s", cfg.Inference.Timeout)
	}
	if cfg.Web.Host != "0.0.0.0" || cfg.Web.Port != 8000 {
		t.Errorf("expected 0.0.0.0:8000, got %s:%d", cfg.Web.Host, cfg.Web.Port)
	}
	if len(cfg.Web.AllowedOrigins) != 1 || cfg.Web.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origin by default, got %v", cfg.Web.AllowedOrigins)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected empty database URL, got %q", cfg.Database.URL)
	}
	if cfg.Database.MaxOpenConns != 25 || cfg.Database.MaxIdleConns != 5 {
		t.Errorf("unexpected pool defaults: open=%d idle=%d", cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	}
}

func TestLoad_Backend(t *testing.T) {
	t.Setenv("EMOTION_BACKEND", "OpenAI")
	t.Setenv("OPENAI_TOKEN", "sk-test-token-123")

	cfg := Load()

	if cfg.Model.Backend != BackendOpenAI {
		t.Errorf("expected backend %q, got %q", BackendOpenAI, cfg.Model.Backend)
	}
	if cfg.OpenAI.Token != "sk-test-token-123" {
		t.Errorf("expected OpenAI token 'sk-test-token-123', got '%s'", cfg.OpenAI.Token)
	}
}

func TestLoad_SmoothingWindow(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"5", 5},
		{"1", 1},
		{"0", 7},
		{"-3", 7},
		{"invalid", 7},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("SMOOTHING_WINDOW", tt.value)

			cfg := Load()

			if cfg.Smoothing.Window != tt.expected {
				t.Errorf("SMOOTHING_WINDOW=%q: expected %d, got %d", tt.value, tt.expected, cfg.Smoothing.Window)
			}
		})
	}
}

func TestLoad_Durations(t *testing.T) {
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("INFERENCE_TIMEOUT", "bogus")

	cfg := Load()

	if cfg.Smoothing.SessionTTL != 5*time.Minute {
		t.Errorf("expected session TTL 5m, got %s", cfg.Smoothing.SessionTTL)
	}
	if cfg.Inference.Timeout != 30*time.Second {
		t.Errorf("expected fallback timeout 30s for invalid input, got %s", cfg.Inference.Timeout)
	}
}

func TestLoad_InferenceConfig(t *testing.T) {
	t.Setenv("INFERENCE_URL", "http://torchserve:8080")
	t.Setenv("INFERENCE_MODEL", "mobilenet-emotion")
	t.Setenv("EMBEDDING_URL", "http://faces:8000")

	cfg := Load()

	if cfg.Inference.URL != "http://torchserve:8080" {
		t.Errorf("expected inference URL 'http://torchserve:8080', got '%s'", cfg.Inference.URL)
	}
	if cfg.Inference.Model != "mobilenet-emotion" {
		t.Errorf("expected inference model 'mobilenet-emotion', got '%s'", cfg.Inference.Model)
	}
	if cfg.Embedding.URL != "http://faces:8000" {
		t.Errorf("expected embedding URL 'http://faces:8000', got '%s'", cfg.Embedding.URL)
	}
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg := Load()

	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Web.AllowedOrigins) != len(want) {
		t.Fatalf("expected %d origins, got %v", len(want), cfg.Web.AllowedOrigins)
	}
	for i, o := range want {
		if cfg.Web.AllowedOrigins[i] != o {
			t.Errorf("origin %d: expected %q, got %q", i, o, cfg.Web.AllowedOrigins[i])
		}
	}
}

func TestLoad_OllamaConfig(t *testing.T) {
	t.Setenv("OLLAMA_URL", "http://localhost:11434")
	t.Setenv("OLLAMA_MODEL", "llava:13b")

	cfg := Load()

	if cfg.Ollama.URL != "http://localhost:11434" {
		t.Errorf("expected Ollama URL 'http://localhost:11434', got '%s'", cfg.Ollama.URL)
	}

	if cfg.Ollama.Model != "llava:13b" {
		t.Errorf("expected Ollama model 'llava:13b', got '%s'", cfg.Ollama.Model)
	}
}

func TestLoad_PricesLoaded(t *testing.T) {
	cfg := Load()

	expectedModels := []string{"gpt-4.1-mini", "gemini-2.5-flash", "llama3.2-vision"}
	for _, model := range expectedModels {
		if _, ok := cfg.Prices.Models[model]; !ok {
			t.Errorf("expected model '%s' to be in prices", model)
		}
	}
}
