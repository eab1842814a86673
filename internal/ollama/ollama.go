package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/bibliotek-ia/bibliotek/internal/providers"
)

// DefaultURL is a local Ollama server
const DefaultURL = "http://localhost:11434"

// Ollama is a provider for Ollama
type Ollama struct {
	client *resty.Client
}

// New returns a new Ollama provider talking to baseURL
func New(baseURL string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Ollama{client: client}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

// ExtractText extracts text from the given prompt using Ollama
func (o *Ollama) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	body := generateRequest{
		Model:  config.Model,
		Prompt: config.Prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": config.Temperature,
		},
	}
	for _, img := range config.Images {
		body.Images = append(body.Images, img.Base64())
	}

	var response struct {
		Response string `json:"response"`
	}
	res, err := o.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&response).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("received non-200 status code: %d - %s", res.StatusCode(), res.String())
	}

	return response.Response, nil
}
