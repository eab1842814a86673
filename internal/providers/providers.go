package providers

import (
	"context"
	"encoding/base64"
	"strings"
)

// Image is a picture sent alongside the prompt
type Image struct {
	Data     []byte
	MIMEType string
}

// Base64 returns the image encoded with standard base64
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data: URL
func (i Image) DataURL() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + i.Base64()
}

// Format is the MIME subtype, e.g. "png" for image/png
func (i Image) Format() string {
	if _, sub, ok := strings.Cut(i.MIMEType, "/"); ok && sub != "" {
		return sub
	}
	return "jpeg"
}

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Images      []Image
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
