package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/kozaktomas/emotion-recognizer/internal/classifier"
	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/constants"
	"github.com/kozaktomas/emotion-recognizer/internal/database"
	"github.com/kozaktomas/emotion-recognizer/internal/smoother"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [files...]",
	Short: "Classify face images",
	Long: `Classify the emotion of one or more face images.

With --window the labels are also smoothed in file order, replaying a
sequence of frames the way the webcam demo does.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Int("window", 0, "Smooth labels over this many files in order (0 = off)")
	classifyCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of parallel classifications")
	classifyCmd.Flags().Bool("log", false, "Log predictions to PostgreSQL (requires DATABASE_URL)")
}

type classifyResult struct {
	path       string
	prediction *classifier.Prediction
	err        error
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// classifyFiles runs cls over paths with bounded concurrency. Results keep the
// order of paths.
func classifyFiles(ctx context.Context, cls classifier.Classifier, paths []string, concurrency int, bar *progressbar.ProgressBar) []classifyResult {
	results := make([]classifyResult, len(paths))
	sem := make(chan struct{}, max(concurrency, 1))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			results[i].path = path
			if ctx.Err() != nil {
				results[i].err = ctx.Err()
				return
			}
			img, err := decodeImageFile(path)
			if err != nil {
				results[i].err = err
				return
			}
			results[i].prediction, results[i].err = cls.Classify(ctx, img)
		}(i, path)
	}

	wg.Wait()
	return results
}

// smoothResults replays successful predictions through one window in file
// order. Failed files get an empty label.
func smoothResults(results []classifyResult, window int) ([]string, error) {
	s, err := smoother.New[string](window)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(results))
	for i, r := range results {
		if r.err != nil {
			continue
		}
		out[i] = s.Observe(r.prediction.Label)
	}
	return out, nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	window := mustGetInt(cmd, "window")
	concurrency := mustGetInt(cmd, "concurrency")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store database.PredictionWriter
	if mustGetBool(cmd, "log") {
		pool, writer, err := openPredictionLog(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = writer
	}

	cls, err := classifier.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("Classifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	results := classifyFiles(ctx, cls, args, concurrency, bar)
	fmt.Println()

	var stabilized []string
	if window > 0 {
		if stabilized, err = smoothResults(results, window); err != nil {
			return err
		}
	}

	var errorCount int
	for i, r := range results {
		if r.err != nil {
			errorCount++
			fmt.Printf("%s: error: %v\n", r.path, r.err)
			continue
		}
		line := fmt.Sprintf("%s: %s (%.2f)", r.path, r.prediction.Label, r.prediction.Confidence)
		if stabilized != nil {
			line += " -> " + stabilized[i]
		}
		fmt.Println(line)

		if store != nil {
			rec := &database.PredictionRecord{
				Source:     database.SourceCLI,
				Label:      r.prediction.Label,
				Confidence: r.prediction.Confidence,
				Backend:    cls.Name(),
			}
			if stabilized != nil {
				rec.Stabilized = stabilized[i]
			}
			if err := store.SavePrediction(ctx, rec); err != nil {
				fmt.Printf("Warning: failed to log prediction: %v\n", err)
			}
		}
	}

	if pc, ok := cls.(*classifier.ProviderClassifier); ok {
		usage := pc.Usage()
		fmt.Printf("\nTokens: %d input, %d output, cost $%.4f\n", usage.InputTokens, usage.OutputTokens, usage.TotalCost)
	}

	if errorCount == len(results) {
		return errors.New("no image could be classified")
	}
	if errorCount > 0 {
		fmt.Printf("\nCompleted with %d errors\n", errorCount)
	}
	return nil
}
