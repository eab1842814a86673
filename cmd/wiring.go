package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/bibliotek-ia/bibliotek/internal/analysis"
	"github.com/bibliotek-ia/bibliotek/internal/config"
	"github.com/bibliotek-ia/bibliotek/internal/gemini"
	"github.com/bibliotek-ia/bibliotek/internal/ollama"
	"github.com/bibliotek-ia/bibliotek/internal/openai"
	"github.com/bibliotek-ia/bibliotek/internal/providers"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
)

func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Opened database", "path", cfg.Database.Path)
	return store, nil
}

// newProvider builds the vision provider named in the config
func newProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.Analysis.Provider {
	case config.ProviderOpenAI:
		return openai.New(openai.Options{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  cfg.OpenAI.APIKey,
			Timeout: cfg.Analysis.Timeout,
		}), nil
	case config.ProviderOllama:
		return ollama.New(cfg.Ollama.URL, cfg.Analysis.Timeout), nil
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return gemini.New(cfg.Gemini.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Analysis.Provider)
	}
}

// newAnalyzer returns the analysis pipeline for the configured provider.
// cache may be nil.
func newAnalyzer(cfg *config.Config, cache analysis.Cache) (analysis.Analyzer, error) {
	if cfg.Analysis.Provider == config.ProviderRemote {
		slog.Info("Proxying analysis to remote backend", "url", cfg.Analysis.RemoteURL)
		return analysis.NewRemoteAnalyzer(cfg.Analysis.RemoteURL, cfg.Analysis.Timeout), nil
	}

	p, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return analysis.NewService(p, cache, analysis.Options{
		Provider:      cfg.Analysis.Provider,
		Model:         cfg.Analysis.Model,
		Temperature:   cfg.Analysis.Temperature,
		Timeout:       cfg.Analysis.Timeout,
		MaxImageBytes: int(cfg.Server.MaxUploadBytes),
		CacheTTL:      cfg.Analysis.CacheTTL,
	}), nil
}

// jwtSecret returns the configured secret, or a random one outside production
func jwtSecret(cfg *config.Config) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	slog.Warn("No JWT secret configured; sessions will not survive a restart", "env", "JWT_SECRET")
	return hex.EncodeToString(buf), nil
}

// overrideAnalysis applies --provider and --model and re-validates
func overrideAnalysis(cfg *config.Config, provider, model string) error {
	if provider != "" {
		cfg.Analysis.Provider = provider
	}
	if model != "" {
		cfg.Analysis.Model = model
	}
	return cfg.Validate()
}
