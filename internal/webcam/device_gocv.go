//go:build gocv

package webcam

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/emotion-recognizer/internal/detector"
)

var boxColor = color.RGBA{0, 255, 0, 0}

type camera struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// OpenCamera opens capture device n (0 is the default webcam).
func OpenCamera(device int) (Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("error opening video capture device %d: %w", device, err)
	}
	return &camera{capture: capture, mat: gocv.NewMat()}, nil
}

func (c *camera) Read(ctx context.Context) (image.Image, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ok := c.capture.Read(&c.mat); !ok {
			return nil, io.EOF
		}
		if c.mat.Empty() {
			continue
		}
		return c.mat.ToImage()
	}
}

func (c *camera) Close() error {
	c.mat.Close()
	return c.capture.Close()
}

type display struct {
	window *gocv.Window
}

// OpenDisplay opens a window titled title.
func OpenDisplay(title string) (Display, error) {
	return &display{window: gocv.NewWindow(title)}, nil
}

func (d *display) Render(frame image.Image, annotations []Annotation) (bool, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return false, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	offset := frame.Bounds().Min
	for _, a := range annotations {
		box := a.Box.Sub(offset)
		gocv.Rectangle(&mat, box, boxColor, 2)
		if text := a.Text(); text != "" {
			gocv.PutText(&mat, text, image.Pt(box.Min.X, box.Min.Y-10), gocv.FontHersheySimplex, 0.9, boxColor, 2)
		}
	}

	d.window.IMShow(mat)
	return d.window.WaitKey(1) == 'q', nil
}

func (d *display) Close() error {
	return d.window.Close()
}

// NewHaarDetector loads an OpenCV Haar cascade face detector.
func NewHaarDetector(cascadePath string) (detector.Detector, io.Closer, error) {
	d, err := detector.NewHaar(cascadePath)
	if err != nil {
		return nil, nil, err
	}
	return d, d, nil
}
