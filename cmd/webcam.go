package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/emotion-recognizer/internal/classifier"
	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/constants"
	"github.com/kozaktomas/emotion-recognizer/internal/detector"
	"github.com/kozaktomas/emotion-recognizer/internal/tracking"
	"github.com/kozaktomas/emotion-recognizer/internal/webcam"
)

var webcamCmd = &cobra.Command{
	Use:   "webcam",
	Short: "Run the live webcam demo",
	Long: `Capture frames from a camera, detect faces, classify each face and draw
the smoothed emotion label over it. Press q in the window to quit.

Face detection uses OpenCV's Haar cascade (build with -tags gocv) or the
remote face endpoint at EMBEDDING_URL with --detector remote.`,
	RunE: runWebcam,
}

func init() {
	rootCmd.AddCommand(webcamCmd)

	webcamCmd.Flags().Int("device", 0, "Camera device index")
	webcamCmd.Flags().Int("window", 0, "Smoothing window size (default SMOOTHING_WINDOW or 7)")
	webcamCmd.Flags().Bool("global-window", false, "Share one smoothing window between all faces")
	webcamCmd.Flags().String("detector", "haar", "Face detector: haar, remote, full")
	webcamCmd.Flags().String("cascade", "haarcascade_frontalface_default.xml", "Haar cascade file for the haar detector")
	webcamCmd.Flags().Float64("min-score", 0.5, "Minimum detection score for the remote detector")
	webcamCmd.Flags().Float64("pad", constants.FacePadRatio, "Face box padding as a fraction of its width")
	webcamCmd.Flags().Bool("log", false, "Log predictions to PostgreSQL (requires DATABASE_URL)")
}

// newFaceDetector builds the detector named by --detector. The closer is nil
// for detectors without native resources.
func newFaceDetector(cmd *cobra.Command, cfg *config.Config) (detector.Detector, io.Closer, error) {
	switch name := mustGetString(cmd, "detector"); name {
	case "haar":
		return webcam.NewHaarDetector(mustGetString(cmd, "cascade"))
	case "remote":
		return detector.NewRemote(cfg.Embedding.URL, mustGetFloat64(cmd, "min-score")), nil, nil
	case "full":
		return detector.FullFrame{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown detector: %s (supported: haar, remote, full)", name)
	}
}

func runWebcam(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	window := mustGetInt(cmd, "window")
	if window == 0 {
		window = cfg.Smoothing.Window
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal...")
		cancel()
	}()

	cls, err := classifier.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}

	det, detCloser, err := newFaceDetector(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face detector: %w", err)
	}
	if detCloser != nil {
		defer detCloser.Close()
	}

	camera, err := webcam.OpenCamera(mustGetInt(cmd, "device"))
	if err != nil {
		return err
	}
	defer camera.Close()

	display, err := webcam.OpenDisplay("Emotion Recognition")
	if err != nil {
		return err
	}
	defer display.Close()

	opts := webcam.Options{
		PadRatio: mustGetFloat64(cmd, "pad"),
		Tracking: tracking.Options{
			Window: window,
			Global: mustGetBool(cmd, "global-window"),
		},
	}
	if mustGetBool(cmd, "log") {
		pool, writer, err := openPredictionLog(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		opts.Log = writer
	}

	loop, err := webcam.New(camera, det, cls, display, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Classifier: %s, window: %d\n", cls.Name(), window)
	fmt.Println("Press q in the video window to stop")

	stats, err := loop.Run(ctx)
	fmt.Printf("\nFrames: %d, faces: %d, classified: %d\n", stats.Frames, stats.Faces, stats.Classified)
	if stats.DetectorErrors+stats.ClassifyErrors+stats.LogErrors > 0 {
		fmt.Printf("Errors: detector %d, classifier %d, log %d\n", stats.DetectorErrors, stats.ClassifyErrors, stats.LogErrors)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
