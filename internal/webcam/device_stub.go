//go:build !gocv

package webcam

import (
	"io"

	"github.com/kozaktomas/emotion-recognizer/internal/detector"
)

func OpenCamera(int) (Camera, error) {
	return nil, ErrNoOpenCV
}

func OpenDisplay(string) (Display, error) {
	return nil, ErrNoOpenCV
}

func NewHaarDetector(string) (detector.Detector, io.Closer, error) {
	return nil, nil, ErrNoOpenCV
}
