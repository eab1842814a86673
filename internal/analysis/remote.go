package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/bibliotek-ia/bibliotek/internal/genres"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

// UpstreamError is a non-2xx reply from the remote analysis backend
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("analysis backend returned status %d: %s", e.Status, e.Body)
}

// RemoteAnalyzer forwards requests to an external analysis backend
type RemoteAnalyzer struct {
	client *resty.Client
}

// NewRemoteAnalyzer returns an analyzer that proxies to baseURL
func NewRemoteAnalyzer(baseURL string, timeout time.Duration) *RemoteAnalyzer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &RemoteAnalyzer{client: client}
}

// Analyze posts the request to {url}/analyze and refines the answer like a local analysis
func (r *RemoteAnalyzer) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.RecommendationResponse, error) {
	selected, err := genres.Validate(req.Genres)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	var result models.RecommendationResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/analyze")
	if err != nil {
		return nil, fmt.Errorf("failed to reach analysis backend: %w", err)
	}
	if resp.IsError() {
		return nil, &UpstreamError{Status: resp.StatusCode(), Body: resp.String()}
	}

	// Diagnostic replies pass through untouched
	if result.Failed() {
		slog.Warn("Analysis backend reported an error", "error", result.Error)
		return &result, nil
	}

	refine(&result, selected)
	if req.FeelingLucky {
		pickOne(&result, randomPick)
	}
	return &result, nil
}

type compareResponse struct {
	Comparison string `json:"comparison"`
}

// Compare posts both books to {url}/compare
func (r *RemoteAnalyzer) Compare(ctx context.Context, a, b models.Book) (string, error) {
	var result compareResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(models.CompareRequest{BookA: a, BookB: b}).
		SetResult(&result).
		Post("/compare")
	if err != nil {
		return "", fmt.Errorf("failed to reach analysis backend: %w", err)
	}
	if resp.IsError() {
		return "", &UpstreamError{Status: resp.StatusCode(), Body: resp.String()}
	}
	return result.Comparison, nil
}
