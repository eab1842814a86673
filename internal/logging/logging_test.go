package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
	return m
}

func TestHandlerWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(zerolog.New(&buf)))

	logger.Info("book added",
		"title", "Duna",
		"rating", 5,
		"lucky", true,
		"elapsed", 1500*time.Millisecond,
		"err", errors.New("boom"),
	)

	m := decodeLine(t, &buf)
	assert.Equal(t, "book added", m["message"])
	assert.Equal(t, "info", m["level"])
	assert.Equal(t, "Duna", m["title"])
	assert.Equal(t, float64(5), m["rating"])
	assert.Equal(t, true, m["lucky"])
	assert.Equal(t, "boom", m["err"])
}

func TestHandlerGroupsAndWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(zerolog.New(&buf))).
		With("request_id", "abc").
		WithGroup("analysis")

	logger.Warn("slow provider", "provider", "ollama", slog.Group("image", "width", 800))

	m := decodeLine(t, &buf)
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "ollama", m["analysis.provider"])
	assert.Equal(t, float64(800), m["analysis.image.width"])
	assert.Equal(t, "abc", m["request_id"])
}

func TestHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(zerolog.New(&buf).Level(zerolog.WarnLevel)))

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Error("shown")
	assert.NotEmpty(t, buf.String())
}

func TestSetupJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup("debug", "json", &buf)
	slog.Debug("debug enabled", "k", "v")

	m := decodeLine(t, &buf)
	assert.Equal(t, "debug", m["level"])
	assert.Equal(t, "v", m["k"])
	assert.Contains(t, m, "time")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}
