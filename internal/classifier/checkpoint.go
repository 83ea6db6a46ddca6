package classifier

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/emotion-recognizer/internal/constants"
)

//go:embed default_checkpoint.yaml
var defaultCheckpointYAML []byte

// ImageNet statistics used by torchvision's Normalize.
var (
	imageNetMean = []float32{0.485, 0.456, 0.406}
	imageNetStd  = []float32{0.229, 0.224, 0.225}
)

// Checkpoint describes a trained model: its output classes and the
// preprocessing its inputs expect.
type Checkpoint struct {
	Name      string    `yaml:"name"`
	Classes   []string  `yaml:"classes"`
	InputSize int       `yaml:"input_size"`
	Mean      []float32 `yaml:"mean"`
	Std       []float32 `yaml:"std"`

	// Optional serving location, overridden by INFERENCE_URL / INFERENCE_MODEL.
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// LoadCheckpoint reads a manifest from path. An empty path returns the
// embedded default manifest.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	if path == "" {
		return ParseCheckpoint(defaultCheckpointYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint manifest: %w", err)
	}
	ckpt, err := ParseCheckpoint(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ckpt, nil
}

// ParseCheckpoint decodes and validates a manifest, filling preprocessing defaults.
func ParseCheckpoint(data []byte) (*Checkpoint, error) {
	var ckpt Checkpoint
	if err := yaml.Unmarshal(data, &ckpt); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint manifest: %w", err)
	}

	if ckpt.InputSize == 0 {
		ckpt.InputSize = constants.DefaultInputSize
	}
	if ckpt.Mean == nil {
		ckpt.Mean = slices.Clone(imageNetMean)
	}
	if ckpt.Std == nil {
		ckpt.Std = slices.Clone(imageNetStd)
	}

	if err := ckpt.validate(); err != nil {
		return nil, err
	}
	return &ckpt, nil
}

func (c *Checkpoint) validate() error {
	if len(c.Classes) == 0 {
		return errors.New("checkpoint has no classes")
	}
	seen := make(map[string]bool, len(c.Classes))
	for _, class := range c.Classes {
		if class == "" {
			return errors.New("checkpoint has an empty class name")
		}
		if seen[class] {
			return fmt.Errorf("checkpoint lists class %q twice", class)
		}
		seen[class] = true
	}
	if c.InputSize < 0 {
		return fmt.Errorf("invalid input_size %d", c.InputSize)
	}
	if len(c.Mean) != 3 || len(c.Std) != 3 {
		return fmt.Errorf("mean and std need 3 channels, got %d and %d", len(c.Mean), len(c.Std))
	}
	for _, s := range c.Std {
		if s <= 0 {
			return fmt.Errorf("invalid std %v", c.Std)
		}
	}
	return nil
}
