//go:build gocv

package detector

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/emotion-recognizer/internal/constants"
)

// Haar detects frontal faces with an OpenCV Haar cascade
// (haarcascade_frontalface_default.xml).
type Haar struct {
	mu      sync.Mutex
	cascade gocv.CascadeClassifier
}

// NewHaar loads the cascade file. Call Close when done.
func NewHaar(cascadePath string) (*Haar, error) {
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(cascadePath) {
		cascade.Close()
		return nil, fmt.Errorf("error reading cascade file: %s", cascadePath)
	}
	return &Haar{cascade: cascade}, nil
}

func (d *Haar) Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ImageToMatRGB yields BGR channel order.
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	faces := d.cascade.DetectMultiScaleWithParams(
		gray,
		constants.CascadeScaleFactor,
		constants.CascadeMinNeighbors,
		0,
		image.Point{},
		image.Point{},
	)
	d.mu.Unlock()

	// Mat coordinates start at 0,0.
	offset := img.Bounds().Min
	for i := range faces {
		faces[i] = faces[i].Add(offset)
	}
	return faces, nil
}

func (d *Haar) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cascade.Close()
}
