package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher loads photos from local files or http(s) URLs
type Fetcher struct {
	client   *resty.Client
	maxBytes int
}

// NewFetcher creates a new image fetcher
func NewFetcher(maxBytes int) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = MaxBytes
	}
	return &Fetcher{
		client:   resty.New().SetTimeout(30 * time.Second),
		maxBytes: maxBytes,
	}
}

// Load reads the photo at source, a file path or URL
func (f *Fetcher) Load(ctx context.Context, source string) (*Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err := f.download(ctx, source)
		if err != nil {
			return nil, err
		}
		return FromBytes(data, f.maxBytes)
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(f.maxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return FromBytes(data, f.maxBytes)
}

// download streams the body so that at most maxBytes+1 bytes are ever held
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	res, err := f.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("failed to download image: HTTP %d", res.StatusCode())
	}
	if res.RawResponse.ContentLength > int64(f.maxBytes) {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(body, int64(f.maxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
