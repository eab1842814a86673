package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/bibliotek-ia/bibliotek/internal/providers"
)

// DefaultBaseURL is a local LM Studio server
const DefaultBaseURL = "http://localhost:1234/v1"

// Options configure the OpenAI-compatible endpoint
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// OpenAI is a provider for OpenAI-compatible chat completion APIs
type OpenAI struct {
	client *resty.Client
}

// New returns a new OpenAI provider
func New(opts Options) *OpenAI {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &OpenAI{client: client}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractText sends the prompt, and any images, as a single user message
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	var content any = config.Prompt
	if len(config.Images) > 0 {
		parts := []contentPart{{Type: "text", Text: config.Prompt}}
		for _, img := range config.Images {
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: img.DataURL()}})
		}
		content = parts
	}

	var response chatResponse
	res, err := o.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       config.Model,
			Messages:    []message{{Role: "user", Content: content}},
			Temperature: config.Temperature,
		}).
		SetResult(&response).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("received non-200 status code: %d - %s", res.StatusCode(), res.String())
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}
