// Package detector finds face regions in a frame.
package detector

import (
	"context"
	"image"
)

// Detector returns the bounding boxes of faces in img, in img's coordinates.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error)
}

// PadBox grows box by int(ratio*width) on every side and clamps the result
// to bounds. The same margin is used vertically, so tall boxes keep their
// aspect.
func PadBox(box, bounds image.Rectangle, ratio float64) image.Rectangle {
	pad := int(ratio * float64(box.Dx()))
	padded := image.Rect(box.Min.X-pad, box.Min.Y-pad, box.Max.X+pad, box.Max.Y+pad)
	return padded.Intersect(bounds)
}

// FullFrame treats the whole image as a single face. It is used for uploads
// that are already face crops.
type FullFrame struct{}

func (FullFrame) Detect(_ context.Context, img image.Image) ([]image.Rectangle, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}
	return []image.Rectangle{b}, nil
}
