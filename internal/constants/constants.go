// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Smoothing constants
const (
	// DefaultWindowSize is the default number of recent labels in the majority vote
	DefaultWindowSize = 7

	// MaxWindowSize caps client-requested window sizes for HTTP sessions
	MaxWindowSize = 256
)

// Face region constants
const (
	// FacePadRatio is the fraction of the face width added on every side of a detected box
	FacePadRatio = 0.2

	// DefaultIoUThreshold is the minimum Intersection over Union required to continue a track
	DefaultIoUThreshold = 0.3

	// DefaultMaxMissedFrames is the number of consecutive frames a track may go undetected
	DefaultMaxMissedFrames = 15
)

// Model input constants
const (
	// DefaultInputSize is the square input resolution of the classifier
	DefaultInputSize = 224

	// MaxLLMImageSize is the maximum dimension for crops sent to vision LLM backends
	MaxLLMImageSize = 512
)

// Haar cascade constants
const (
	// CascadeScaleFactor is the image pyramid scale step for Haar detection
	CascadeScaleFactor = 1.3

	// CascadeMinNeighbors is the number of neighbouring hits required to keep a detection
	CascadeMinNeighbors = 5
)

// Handler constants
const (
	// MaxUploadSize is the maximum file upload size in bytes (20MB)
	MaxUploadSize = 20 << 20

	// DefaultPredictionLimit is the default number of log entries returned by the predictions endpoint
	DefaultPredictionLimit = 50

	// MaxPredictionLimit caps the predictions endpoint limit parameter
	MaxPredictionLimit = 1000

	// DefaultConcurrency is the default number of parallel classification workers
	DefaultConcurrency = 4
)
