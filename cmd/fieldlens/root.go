package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/config"
	"github.com/fieldlens/fieldlens/providers/observability/slogobs"
)

var (
	cfg      *config.Config
	observer *slogobs.Observer
)

var rootCmd = &cobra.Command{
	Use:   "fieldlens",
	Short: "Structured data extraction from unstructured text via LLMs",
	Long: "Compiles extraction tasks (few-shot examples, declared field schemas, or the\n" +
		"built-in clinical notes template) into provider prompts, streams the model\n" +
		"output, and repairs it into structured JSON.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is a convenience for local API keys; absence is fine.
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		opts := []slogobs.Option{slogobs.WithLevel(logLevel(cfg.Log.Level))}
		if cfg.Log.JSON {
			opts = append(opts, slogobs.WithJSON())
		}
		observer = slogobs.New(opts...)

		return nil
	},
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
