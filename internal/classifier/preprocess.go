package classifier

import (
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Preprocess turns img into the CHW float tensor a torchvision model expects:
// resize to size x size, scale to [0,1], normalise each RGB channel with
// mean and std.
func Preprocess(img image.Image, size int, mean, std []float32) []float32 {
	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Src, nil)

	plane := size * size
	out := make([]float32, 3*plane)
	for y := range size {
		for x := range size {
			i := resized.PixOffset(x, y)
			p := y*size + x
			for c := range 3 {
				v := float32(resized.Pix[i+c]) / 255
				out[c*plane+p] = (v - mean[c]) / std[c]
			}
		}
	}
	return out
}

// Argmax returns the index of the largest value, the first one on ties, or -1 for no values.
func Argmax(values []float32) int {
	best := -1
	for i, v := range values {
		if best == -1 || v > values[best] {
			best = i
		}
	}
	return best
}

// Softmax converts logits into probabilities.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		maxLogit = math.Max(maxLogit, float64(l))
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(float64(l) - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func predictionFromLogits(classes []string, logits []float32) (*Prediction, error) {
	if len(logits) == 0 {
		return nil, errors.New("model returned no scores")
	}
	if len(logits) != len(classes) {
		return nil, fmt.Errorf("model returned %d scores for %d classes", len(logits), len(classes))
	}

	idx := Argmax(logits)
	probs := Softmax(logits)
	scores := make(map[string]float64, len(classes))
	for i, class := range classes {
		scores[class] = probs[i]
	}

	return &Prediction{
		Label:      classes[idx],
		Index:      idx,
		Confidence: probs[idx],
		Scores:     scores,
	}, nil
}
