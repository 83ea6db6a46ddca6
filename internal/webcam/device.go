package webcam

import (
	"errors"
	"io"
)

// ErrNoOpenCV is returned by the device constructors in builds without the gocv tag.
var ErrNoOpenCV = errors.New("webcam support is not compiled in (rebuild with -tags gocv)")

// Camera is a closable FrameSource backed by a capture device.
type Camera interface {
	FrameSource
	io.Closer
}

// Display is a closable Renderer backed by a window.
type Display interface {
	Renderer
	io.Closer
}
