package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/bibliotek-ia/bibliotek/internal/auth"
	"github.com/bibliotek-ia/bibliotek/internal/catalog"
	"github.com/bibliotek-ia/bibliotek/internal/handlers"
	"github.com/bibliotek-ia/bibliotek/internal/stats"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
)

// cachePruneInterval is how often stale analysis cache rows are dropped
const cachePruneInterval = time.Hour

func newServeCmd(a *app) *cobra.Command {
	var (
		port      int
		staticDir string
		provider  string
		model     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bibliotek API server",
		Long: `Starts the Bibliotek JSON API on the configured port.

Readers register, keep their library and send bookshelf photos to the
configured vision provider (an OpenAI-compatible server such as LM Studio,
Ollama, Gemini, or a remote analysis backend). A pre-built web app can be
served from --static.`,
		Example: `  # Start server on default port 8888
  bibliotek serve

  # Use Ollama and serve the web app
  bibliotek serve --provider ollama --model qwen2.5vl --static ./dist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if staticDir != "" {
				cfg.Server.StaticDir = staticDir
			}
			if err := overrideAnalysis(cfg, provider, model); err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			secret, err := jwtSecret(cfg)
			if err != nil {
				return err
			}
			tokens, err := auth.NewJWTManager(secret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}

			analyzer, err := newAnalyzer(cfg, store)
			if err != nil {
				return err
			}
			books, err := catalog.New(cmd.Context(), catalog.Options{APIKey: cfg.GoogleBooks.APIKey})
			if err != nil {
				return err
			}

			h := handlers.New(handlers.Deps{
				Auth:           auth.NewService(store, tokens),
				Store:          store,
				Analyzer:       analyzer,
				Catalog:        books,
				Stats:          stats.NewService(store),
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
			})
			router := h.Router(auth.NewMiddleware(tokens, store), handlers.RouterOptions{
				CORSOrigins:    cfg.Server.CORSOrigins,
				RateLimit:      cfg.Server.RateLimit,
				LoginRateLimit: cfg.Server.LoginRateLimit,
				StaticDir:      cfg.Server.StaticDir,
			})

			addr := cfg.Addr()
			server := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			go pruneCache(cmd.Context(), store, cfg.Analysis.CacheTTL)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Bibliotek API available",
					"addr", addr,
					"provider", cfg.Analysis.Provider,
					"model", cfg.Analysis.Model,
					"environment", cfg.Environment)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
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

	cmd.Flags().IntVarP(&port, "port", "p", 8888, "Port to listen on")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory holding a pre-built web app to serve")
	cmd.Flags().StringVar(&provider, "provider", "", "Analysis provider: openai, ollama, gemini or remote")
	cmd.Flags().StringVar(&model, "model", "", "Vision model name")

	return cmd
}

func pruneCache(ctx context.Context, store *storage.Store, maxAge time.Duration) {
	ticker := time.NewTicker(cachePruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PruneAnalysisCache(ctx, maxAge)
			if err != nil {
				slog.Warn("Failed to prune analysis cache", "err", err)
				continue
			}
			if n > 0 {
				slog.Debug("Pruned analysis cache", "rows", n)
			}
		}
	}
}
