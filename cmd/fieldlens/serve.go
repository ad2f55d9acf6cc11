package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/core/extractor"
	"github.com/fieldlens/fieldlens/core/usage"
	"github.com/fieldlens/fieldlens/internal/httpapi"
	"github.com/fieldlens/fieldlens/providers/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP API",
	Long: `Serves the extraction API:

  GET  /api/providers        provider and model catalogue
  GET  /api/usage            accumulated token usage and estimated spend
  POST /api/extract          one extraction, JSON response
  POST /api/extract/stream   one extraction, model output relayed as SSE
  POST /api/extract/batch    one task applied to many texts

Provider credentials arrive per request (api_key field) or from the
provider environment variables (OPENAI_API_KEY, GEMINI_API_KEY, ...).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	tracker := usage.NewTracker()
	ext := extractor.New(extractor.WithObserver(observer), extractor.WithUsageTracker(tracker))
	api := httpapi.NewServer(ext, *cfg, tracker)

	server := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	observer.Info(ctx, "listening", observability.String("addr", addr))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	observer.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
