// Package webcam runs the live demo: capture a frame, find faces, classify
// each face and overlay the smoothed label.
package webcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/kozaktomas/emotion-recognizer/internal/classifier"
	"github.com/kozaktomas/emotion-recognizer/internal/constants"
	"github.com/kozaktomas/emotion-recognizer/internal/database"
	"github.com/kozaktomas/emotion-recognizer/internal/detector"
	"github.com/kozaktomas/emotion-recognizer/internal/tracking"
)

// FrameSource yields frames until it returns io.EOF.
type FrameSource interface {
	Read(ctx context.Context) (image.Image, error)
}

// Renderer shows a frame with its annotations. It returns quit=true when the
// user asked to stop.
type Renderer interface {
	Render(frame image.Image, annotations []Annotation) (quit bool, err error)
}

// Annotation is one labelled face on a frame.
type Annotation struct {
	TrackID    uuid.UUID
	Box        image.Rectangle // detector box, without padding
	Label      string          // raw label of this frame, empty when classification failed
	Stabilized string          // smoothed label shown to the user
}

// Text returns the label to draw: the smoothed one when available.
func (a Annotation) Text() string {
	if a.Stabilized != "" {
		return a.Stabilized
	}
	return a.Label
}

// Options configures a Loop.
type Options struct {
	PadRatio float64 // face box padding, defaults to constants.FacePadRatio
	Tracking tracking.Options

	// Log, when set, receives one record per classified face.
	Log database.PredictionWriter
}

// Stats summarises a run.
type Stats struct {
	Frames         int
	Faces          int
	Classified     int
	DetectorErrors int
	ClassifyErrors int
	LogErrors      int
	Tracks         int // live tracks when the run ended
}

// Loop wires the webcam pipeline together. It is not safe for concurrent use.
type Loop struct {
	source     FrameSource
	detector   detector.Detector
	classifier classifier.Classifier
	renderer   Renderer
	tracker    *tracking.Tracker
	padRatio   float64
	log        database.PredictionWriter
	stats      Stats
}

func New(source FrameSource, det detector.Detector, cls classifier.Classifier, renderer Renderer, opts Options) (*Loop, error) {
	tracker, err := tracking.New(opts.Tracking)
	if err != nil {
		return nil, fmt.Errorf("invalid tracking options: %w", err)
	}
	padRatio := opts.PadRatio
	if padRatio == 0 {
		padRatio = constants.FacePadRatio
	}
	if padRatio < 0 {
		return nil, fmt.Errorf("invalid pad ratio %v", padRatio)
	}

	return &Loop{
		source:     source,
		detector:   det,
		classifier: cls,
		renderer:   renderer,
		tracker:    tracker,
		padRatio:   padRatio,
		log:        opts.Log,
	}, nil
}

// Run processes frames until the source is exhausted, the renderer asks to
// quit or ctx is cancelled. Per-frame detector and classifier failures are
// logged and skipped.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return l.finish(), err
		}

		frame, err := l.source.Read(ctx)
		if errors.Is(err, io.EOF) {
			return l.finish(), nil
		}
		if err != nil {
			return l.finish(), fmt.Errorf("failed to read frame: %w", err)
		}

		annotations := l.ProcessFrame(ctx, frame)

		quit, err := l.renderer.Render(frame, annotations)
		if err != nil {
			return l.finish(), fmt.Errorf("failed to render frame: %w", err)
		}
		if quit {
			return l.finish(), nil
		}
	}
}

func (l *Loop) finish() Stats {
	l.stats.Tracks = l.tracker.Len()
	return l.stats
}

// ProcessFrame detects, classifies and smooths every face of one frame.
func (l *Loop) ProcessFrame(ctx context.Context, frame image.Image) []Annotation {
	l.stats.Frames++

	boxes, err := l.detector.Detect(ctx, frame)
	if err != nil {
		l.stats.DetectorErrors++
		log.Printf("webcam: frame %d: face detection failed: %v", l.stats.Frames, err)
		// Keep tracks aging so stale faces disappear.
		l.tracker.Update(nil)
		return nil
	}

	detections := make([]tracking.Detection, len(boxes))
	predictions := make([]*classifier.Prediction, len(boxes))
	for i, box := range boxes {
		l.stats.Faces++
		detections[i].Box = box

		crop := FaceCrop(frame, box, l.padRatio)
		pred, err := l.classifier.Classify(ctx, crop)
		if err != nil {
			l.stats.ClassifyErrors++
			log.Printf("webcam: frame %d: classification failed: %v", l.stats.Frames, err)
			continue
		}
		l.stats.Classified++
		detections[i].Label = pred.Label
		predictions[i] = pred
	}

	assignments := l.tracker.Update(detections)

	annotations := make([]Annotation, len(assignments))
	for i, a := range assignments {
		annotations[i] = Annotation{
			TrackID:    a.TrackID,
			Box:        a.Box,
			Label:      a.Label,
			Stabilized: a.Stabilized,
		}
		if predictions[i] != nil {
			l.record(ctx, a, predictions[i])
		}
	}
	return annotations
}

func (l *Loop) record(ctx context.Context, a tracking.Assignment, pred *classifier.Prediction) {
	if l.log == nil {
		return
	}
	rec := &database.PredictionRecord{
		Source:     database.SourceWebcam,
		StreamID:   a.TrackID.String(),
		Label:      a.Label,
		Stabilized: a.Stabilized,
		Confidence: pred.Confidence,
		Backend:    l.classifier.Name(),
	}
	if err := l.log.SavePrediction(ctx, rec); err != nil {
		l.stats.LogErrors++
		log.Printf("webcam: failed to log prediction: %v", err)
	}
}

// FaceCrop pads box within the frame, crops it and converts it to grayscale
// replicated across three RGB channels, which is what the model was trained on.
func FaceCrop(frame image.Image, box image.Rectangle, padRatio float64) *image.RGBA {
	region := detector.PadBox(box, frame.Bounds(), padRatio)
	out := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			g := color.GrayModel.Convert(frame.At(x, y)).(color.Gray)
			out.SetRGBA(x-region.Min.X, y-region.Min.Y, color.RGBA{R: g.Y, G: g.Y, B: g.Y, A: 0xff})
		}
	}
	return out
}
