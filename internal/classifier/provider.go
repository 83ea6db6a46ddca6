package classifier

import (
	"context"
	"fmt"
	"image"
	"slices"

	"github.com/kozaktomas/emotion-recognizer/internal/ai"
	"github.com/kozaktomas/emotion-recognizer/internal/constants"
)

// ProviderClassifier asks a vision LLM to pick one of the checkpoint classes.
type ProviderClassifier struct {
	provider ai.Provider
	classes  []string
}

func NewProviderClassifier(provider ai.Provider, classes []string) *ProviderClassifier {
	return &ProviderClassifier{
		provider: provider,
		classes:  slices.Clone(classes),
	}
}

func (c *ProviderClassifier) Name() string {
	return c.provider.Name()
}

func (c *ProviderClassifier) Classes() []string {
	return slices.Clone(c.classes)
}

// Usage reports the tokens and cost spent so far.
func (c *ProviderClassifier) Usage() *ai.Usage {
	return c.provider.GetUsage()
}

func (c *ProviderClassifier) Classify(ctx context.Context, img image.Image) (*Prediction, error) {
	data, err := ai.EncodeJPEG(img, constants.MaxLLMImageSize)
	if err != nil {
		return nil, err
	}

	analysis, err := c.provider.ClassifyEmotion(ctx, data, c.classes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.provider.Name(), err)
	}

	label, idx, ok := ai.MatchLabel(analysis.Emotion, c.classes)
	if !ok {
		return nil, fmt.Errorf("%s answered %q, which is not a known class", c.provider.Name(), analysis.Emotion)
	}

	return &Prediction{
		Label:      label,
		Index:      idx,
		Confidence: analysis.Confidence,
	}, nil
}
