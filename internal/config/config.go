package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed prices.yaml
var pricesYAML []byte

// Backend names accepted by EMOTION_BACKEND.
const (
	BackendRemote = "remote"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendOllama = "ollama"
)

type Config struct {
	Model     ModelConfig
	Inference InferenceConfig
	Embedding EmbeddingConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Ollama    OllamaConfig
	Smoothing SmoothingConfig
	Database  DatabaseConfig
	Web       WebConfig
	Prices    PricesConfig
}

type ModelConfig struct {
	Backend    string // one of the Backend* constants, defaults to remote
	Checkpoint string // path to the checkpoint manifest, empty uses the embedded default
}

type InferenceConfig struct {
	URL     string        // inference server base URL, defaults to http://localhost:8080
	Model   string        // model name on the inference server
	Timeout time.Duration // per-request timeout
}

type EmbeddingConfig struct {
	URL string // embedding server used for remote face detection, defaults to http://localhost:8000
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type OllamaConfig struct {
	URL   string // defaults to http://localhost:11434
	Model string // defaults to llama3.2-vision:11b
}

type SmoothingConfig struct {
	Window     int           // majority-vote window size
	SessionTTL time.Duration // idle lifetime of an HTTP smoothing session
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, empty disables the prediction log
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS origins, "*" allows any origin
}

type PricesConfig struct {
	Models map[string]ModelPricing `yaml:"models"`
}

type ModelPricing struct {
	Standard RequestPricing `yaml:"standard"`
	Batch    RequestPricing `yaml:"batch"`
}

type RequestPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable as a positive time.Duration ("30s", "5m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envString returns the env var or the default when it is unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// parseOrigins splits a comma-separated origin list, dropping empty entries.
func parseOrigins(s string) []string {
	var origins []string
	for o := range strings.SplitSeq(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func Load() *Config {
	var prices PricesConfig
	if err := yaml.Unmarshal(pricesYAML, &prices); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded prices.yaml: " + err.Error())
	}

	origins := parseOrigins(os.Getenv("WEB_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Config{
		Model: ModelConfig{
			Backend:    strings.ToLower(envString("EMOTION_BACKEND", BackendRemote)),
			Checkpoint: os.Getenv("EMOTION_CHECKPOINT"),
		},
		Inference: InferenceConfig{
			URL:     os.Getenv("INFERENCE_URL"),
			Model:   os.Getenv("INFERENCE_MODEL"),
			Timeout: envDuration("INFERENCE_TIMEOUT", 30*time.Second),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Ollama: OllamaConfig{
			URL:   os.Getenv("OLLAMA_URL"),
			Model: os.Getenv("OLLAMA_MODEL"),
		},
		Smoothing: SmoothingConfig{
			Window:     envInt("SMOOTHING_WINDOW", 7),
			SessionTTL: envDuration("SESSION_TTL", 30*time.Minute),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8000),
			AllowedOrigins: origins,
		},
		Prices: prices,
	}
}

// GetModelPricing returns pricing for a specific model, with fallback defaults
func (c *Config) GetModelPricing(modelName string) ModelPricing {
	if pricing, ok := c.Prices.Models[modelName]; ok {
		return pricing
	}
	// Return zero pricing if model not found
	return ModelPricing{}
}
