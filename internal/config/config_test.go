package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, ProviderOpenAI, cfg.Analysis.Provider)
	assert.Equal(t, "qwen/qwen3-vl-4b", cfg.Analysis.Model)
	assert.Equal(t, 0.7, cfg.Analysis.Temperature)
	assert.Equal(t, "http://localhost:1234/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := chdirTemp(t)

	path := filepath.Join(dir, "custom.yaml")
	yaml := `
server:
  port: 9000
  cors_origins: ["https://a.example"]
analysis:
  provider: ollama
  model: llava
database:
  path: /tmp/from-file.db
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("BIBLIOTEK_SERVER_PORT", "9100")
	t.Setenv("BIBLIOTEK_AUTH_TOKEN_TTL", "2h")
	t.Setenv("BIBLIOTEK_GOOGLE_BOOKS_API_KEY", "books-key")
	t.Setenv("OLLAMA_HOST", "http://ollama:11434")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env beats file")
	assert.Equal(t, []string{"https://a.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, ProviderOllama, cfg.Analysis.Provider)
	assert.Equal(t, "llava", cfg.Analysis.Model)
	assert.Equal(t, "/tmp/from-file.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "books-key", cfg.GoogleBooks.APIKey)
	assert.Equal(t, "http://ollama:11434", cfg.Ollama.URL)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	dir := chdirTemp(t)

	path := filepath.Join(dir, "elsewhere.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))
	t.Setenv(PathEnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestCORSOriginsFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BIBLIOTEK_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"unknown provider", func(c *Config) { c.Analysis.Provider = "llamafile" }, "unsupported analysis provider"},
		{"remote without url", func(c *Config) {
			c.Analysis.Provider = ProviderRemote
			c.Analysis.RemoteURL = ""
		}, "remote_url"},
		{"short secret in production", func(c *Config) {
			c.Environment = "production"
			c.Auth.JWTSecret = "short"
		}, "jwt secret"},
		{"long secret in production", func(c *Config) {
			c.Environment = "production"
			c.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
		}, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "unsupported log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "server.max_upload_bytes", envTransformFunc("BIBLIOTEK_SERVER_MAX_UPLOAD_BYTES"))
	assert.Equal(t, "google_books.api_key", envTransformFunc("BIBLIOTEK_GOOGLE_BOOKS_API_KEY"))
	assert.Equal(t, "environment", envTransformFunc("BIBLIOTEK_ENVIRONMENT"))
	assert.Equal(t, "openai.api_key", envTransformFunc("OPENAI_API_KEY"))
	assert.Equal(t, "", envTransformFunc("BIBLIOTEK_CONFIG"))
	assert.Equal(t, "", envTransformFunc("HOME"))
}
