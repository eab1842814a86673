package analysis

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bibliotek-ia/bibliotek/internal/models"
)

// stripFences removes markdown code fences models like to wrap JSON in
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// extractJSONObject returns the outermost {...} in text
func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}

// parseResponse decodes a model reply into a RecommendationResponse,
// tolerating fences and chatter around the JSON object
func parseResponse(text string) (*models.RecommendationResponse, error) {
	clean := stripFences(text)

	var resp models.RecommendationResponse
	if err := json.Unmarshal([]byte(clean), &resp); err == nil {
		return &resp, nil
	}

	obj, err := extractJSONObject(clean)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return &resp, nil
}
