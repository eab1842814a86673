// Package config loads bibliotek settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location
const PathEnvVar = "BIBLIOTEK_CONFIG"

// envPrefix marks variables that map straight onto config keys,
// e.g. BIBLIOTEK_SERVER_PORT -> server.port
const envPrefix = "BIBLIOTEK_"

// DefaultPaths are searched in order when no path is given
var DefaultPaths = []string{
	"bibliotek.yaml",
	"bibliotek.yml",
	"/etc/bibliotek/config.yaml",
}

// Supported analysis providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderRemote = "remote"
)

// Config is the full application configuration
type Config struct {
	Environment string            `koanf:"environment"`
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Auth        AuthConfig        `koanf:"auth"`
	Analysis    AnalysisConfig    `koanf:"analysis"`
	OpenAI      OpenAIConfig      `koanf:"openai"`
	Ollama      OllamaConfig      `koanf:"ollama"`
	Gemini      GeminiConfig      `koanf:"gemini"`
	GoogleBooks GoogleBooksConfig `koanf:"google_books"`
	Logging     LoggingConfig     `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	StaticDir       string        `koanf:"static_dir"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// Requests per minute per client IP
	RateLimit      int   `koanf:"rate_limit"`
	LoginRateLimit int   `koanf:"login_rate_limit"`
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type AnalysisConfig struct {
	Provider    string        `koanf:"provider"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
	// RemoteURL is the analysis backend used by the remote provider
	RemoteURL string `koanf:"remote_url"`
}

type OpenAIConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
}

type OllamaConfig struct {
	URL string `koanf:"url"`
}

type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
}

type GoogleBooksConfig struct {
	APIKey string `koanf:"api_key"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the configuration used when nothing else is set.
// The analysis defaults point at a local LM Studio server.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "",
			Port:            8888,
			ShutdownTimeout: 5 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       120,
			LoginRateLimit:  10,
			MaxUploadBytes:  10 << 20,
		},
		Database: DatabaseConfig{
			Path: "bibliotek.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Analysis: AnalysisConfig{
			Provider:    ProviderOpenAI,
			Model:       "qwen/qwen3-vl-4b",
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
			CacheTTL:    24 * time.Hour,
			RemoteURL:   "http://localhost:8000",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "http://localhost:1234/v1",
			APIKey:  "lm-studio",
		},
		Ollama: OllamaConfig{
			URL: "http://localhost:11434",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration. An empty path falls back to BIBLIOTEK_CONFIG
// and then to DefaultPaths; a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether production checks apply
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	switch c.Analysis.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderGemini, ProviderRemote:
	default:
		return fmt.Errorf("unsupported analysis provider: %s", c.Analysis.Provider)
	}
	if c.Analysis.Provider == ProviderRemote && c.Analysis.RemoteURL == "" {
		return fmt.Errorf("remote provider requires analysis.remote_url")
	}
	if c.Analysis.Temperature < 0 || c.Analysis.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Analysis.Temperature)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 bytes in production")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}

	return nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// legacyEnv keeps the variable names the provider packages have always read
var legacyEnv = map[string]string{
	"openai_api_key":       "openai.api_key",
	"openai_base_url":      "openai.base_url",
	"ollama_url":           "ollama.url",
	"ollama_host":          "ollama.url",
	"gemini_api_key":       "gemini.api_key",
	"google_books_api_key": "google_books.api_key",
	"jwt_secret":           "auth.jwt_secret",
	"environment":          "environment",
}

// envTransformFunc maps environment variable names onto config keys.
// Returning "" tells koanf to skip the variable.
func envTransformFunc(key string) string {
	if strings.HasPrefix(key, envPrefix) {
		rest := strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if rest == "config" {
			return ""
		}
		return envKey(rest)
	}
	if mapped, ok := legacyEnv[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// sections lists the top-level keys whose names contain an underscore
// or whose fields do, so BIBLIOTEK_GOOGLE_BOOKS_API_KEY resolves correctly.
var sections = []string{
	"google_books",
	"database",
	"analysis",
	"logging",
	"server",
	"openai",
	"ollama",
	"gemini",
	"auth",
}

func envKey(rest string) string {
	for _, s := range sections {
		if strings.HasPrefix(rest, s+"_") {
			return s + "." + strings.TrimPrefix(rest, s+"_")
		}
	}
	return rest
}

func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok || s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}
