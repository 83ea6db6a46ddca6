package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/emotion-recognizer/internal/classifier"
	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Emotion Recognizer web server.
The server exposes POST /api/predict for face images, server-side smoothing
sessions, and a browser demo that streams webcam frames to the API.
Predictions are logged to PostgreSQL when DATABASE_URL is set.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 8000)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 0.0.0.0)")
}

// resolveServeHostPort prefers flags over the environment-backed config.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	if port == 0 {
		port = cfg.Web.Port
	}
	if host == "" {
		host = cfg.Web.Host
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.URL != "" {
		pool, _, err := openPredictionLog(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		fmt.Printf("Prediction log enabled (PostgreSQL)\n")
	} else {
		fmt.Printf("DATABASE_URL not set, prediction log disabled\n")
	}

	cls, err := classifier.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}
	fmt.Printf("Using classifier %s (%d classes)\n", cls.Name(), len(cls.Classes()))

	port, host := resolveServeHostPort(cmd, cfg)
	server := web.NewServer(cfg, cls, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Emotion Recognizer on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
