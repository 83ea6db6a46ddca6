package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "emotion-recognizer",
	Short: "Recognize facial emotions in images, over HTTP or from a webcam",
	Long: `Emotion Recognizer classifies the emotion of a face with a pretrained model
served by an inference server or a vision LLM (OpenAI, Gemini, Ollama).
Labels are smoothed over recent frames by a majority vote so the live
webcam demo and browser clients show a stable result.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
