package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/stickerlabel/internal/classifier"
	"github.com/lehigh-university-libraries/stickerlabel/internal/handlers"
	"github.com/lehigh-university-libraries/stickerlabel/internal/selector"
	"github.com/lehigh-university-libraries/stickerlabel/internal/storage"
	"github.com/spf13/cobra"
)

// Sessions idle longer than this are dropped along with their history.
const sessionIdleTimeout = 2 * time.Hour

func newServeCmd() *cobra.Command {
	var (
		port  string
		flags classifierFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sticker upload widget web server",
		Long: `Starts the sticker upload widget on the specified port.

Each browser session gets its own widget: pick a PNG or JPEG sticker,
preview it, send it to the classifier, and copy or save the labels.
Upload history lives in memory and is lost when the server stops.`,
		Example: `  # Start server on default port 8888
  stickerlabel serve

  # Use a different classification endpoint
  stickerlabel serve --endpoint http://classifier:8000/classify --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			c, err := classifier.New(cfg)
			if err != nil {
				return err
			}
			store := storage.New(c)
			defer store.CloseAll()

			handler, err := handlers.New(store, selector.New(cfg.MaxUploadBytes), c)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			handler.Routes(mux)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			go pruneSessions(cmd.Context(), store)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Sticker widget available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"provider", cfg.Provider,
					"endpoint", cfg.Endpoint,
					"label_source", cfg.LabelSource)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on (env: PORT)")
	flags.bind(cmd)

	return cmd
}

func pruneSessions(ctx context.Context, store *storage.SessionStore) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Prune(sessionIdleTimeout, now); n > 0 {
				slog.Info("Pruned idle sessions", "count", n, "remaining", store.Len())
			}
		}
	}
}
