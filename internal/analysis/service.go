// Package analysis turns a bookshelf photo and a genre filter into book recommendations.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/bibliotek-ia/bibliotek/internal/genres"
	"github.com/bibliotek-ia/bibliotek/internal/images"
	"github.com/bibliotek-ia/bibliotek/internal/metrics"
	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/providers"
)

// Analyzer is implemented by the in-process service and the remote backend proxy
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.RecommendationResponse, error)
	Compare(ctx context.Context, a, b models.Book) (string, error)
}

// Cache stores refined responses keyed by photo and filter
type Cache interface {
	CachedAnalysis(ctx context.Context, key string, maxAge time.Duration) ([]byte, error)
	CacheAnalysis(ctx context.Context, key string, response []byte) error
}

// RequestError marks a problem with the caller's input rather than the provider
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// ErrUnavailable is returned when the provider has failed repeatedly and calls are paused
var ErrUnavailable = errors.New("analysis provider temporarily unavailable")

// Options tune the service
type Options struct {
	Provider      string
	Model         string
	Temperature   float64
	Timeout       time.Duration
	MaxImageBytes int
	CacheTTL      time.Duration
}

// Service runs bookshelf analysis against a vision provider
type Service struct {
	provider providers.Provider
	cache    Cache
	opts     Options
	breaker  *gobreaker.CircuitBreaker[string]
	pick     func(n int) int
}

// NewService returns a Service. cache may be nil.
func NewService(provider providers.Provider, cache Cache, opts Options) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		opts:     opts,
		breaker:  newBreaker(opts.Provider),
		pick:     randomPick,
	}
}

// Analyze identifies the books in the photo and recommends those matching the filter.
// Provider and parse failures are reported inside the response, not as errors.
// While the breaker is open it returns ErrUnavailable instead.
func (s *Service) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.RecommendationResponse, error) {
	img, err := images.DecodeBase64(req.Image, s.opts.MaxImageBytes)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	selected, err := genres.Validate(req.Genres)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	log := slog.With("provider", s.opts.Provider, "model", s.opts.Model, "image_hash", img.Hash[:12])
	key := s.cacheKey(img.Hash, selected)

	if resp := s.cached(ctx, key); resp != nil {
		log.Info("Analysis served from cache")
		metrics.RecordCacheHit()
		return s.finish(resp, req.FeelingLucky), nil
	}

	log.Info("Sending bookshelf to provider", "width", img.Width, "height", img.Height, "genres", selected)
	start := time.Now()
	text, err := s.call(ctx, providers.Config{
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		Prompt:      curatorPrompt(selected),
		Images:      []providers.Image{{Data: img.Data, MIMEType: img.MIMEType}},
	})
	elapsed := time.Since(start)
	if errors.Is(err, ErrUnavailable) {
		log.Warn("Provider paused after repeated failures")
		metrics.RecordAnalysis(s.opts.Provider, metrics.OutcomeError, elapsed)
		return nil, ErrUnavailable
	}
	if err != nil {
		log.Error("Provider call failed", "err", err, "elapsed", elapsed)
		metrics.RecordAnalysis(s.opts.Provider, metrics.OutcomeError, elapsed)
		return &models.RecommendationResponse{
			IdentifiedBooks: []models.Book{},
			Recommendations: []models.Book{},
			NoMatchesFound:  true,
			Error:           fmt.Sprintf("Failed to connect to AI server: %v", err),
		}, nil
	}
	log.Debug("Received provider response", "length", len(text), "elapsed", elapsed)

	resp, err := parseResponse(text)
	if err != nil {
		log.Warn("Failed to parse provider response", "err", err)
		metrics.RecordAnalysis(s.opts.Provider, metrics.OutcomeParseError, elapsed)
		return &models.RecommendationResponse{
			IdentifiedBooks: []models.Book{},
			Recommendations: []models.Book{},
			NoMatchesFound:  true,
			Error:           "Failed to parse AI response",
			RawContent:      text,
		}, nil
	}

	refine(resp, selected)
	resp.Error, resp.RawContent = "", ""

	outcome := metrics.OutcomeSuccess
	if resp.NoMatchesFound {
		outcome = metrics.OutcomeNoMatches
	}
	metrics.RecordAnalysis(s.opts.Provider, outcome, elapsed)
	log.Info("Analysis complete", "identified", len(resp.IdentifiedBooks), "recommended", len(resp.Recommendations))

	s.store(ctx, key, resp)
	return s.finish(resp, req.FeelingLucky), nil
}

// Compare explains the thematic links between two books
func (s *Service) Compare(ctx context.Context, a, b models.Book) (string, error) {
	text, err := s.call(ctx, providers.Config{
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		Prompt:      comparePrompt(a, b),
	})
	if err != nil {
		return "", fmt.Errorf("failed to compare books: %w", err)
	}
	return text, nil
}

func (s *Service) call(ctx context.Context, cfg providers.Config) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	text, err := s.breaker.Execute(func() (string, error) {
		return s.provider.ExtractText(ctx, cfg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrUnavailable
	}
	return text, err
}

func (s *Service) finish(resp *models.RecommendationResponse, lucky bool) *models.RecommendationResponse {
	if lucky {
		pickOne(resp, s.pick)
	}
	return resp
}

func (s *Service) cacheKey(hash string, selected []string) string {
	return fmt.Sprintf("%s|%s|%s|%s", s.opts.Provider, s.opts.Model, hash, genres.Key(selected))
}

func (s *Service) cached(ctx context.Context, key string) *models.RecommendationResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.CachedAnalysis(ctx, key, s.opts.CacheTTL)
	if err != nil {
		slog.Warn("Analysis cache lookup failed", "err", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	var resp models.RecommendationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		slog.Warn("Discarding unreadable cache entry", "err", err)
		return nil
	}
	return &resp
}

func (s *Service) store(ctx context.Context, key string, resp *models.RecommendationResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		slog.Warn("Failed to encode analysis for cache", "err", err)
		return
	}
	if err := s.cache.CacheAnalysis(ctx, key, raw); err != nil {
		slog.Warn("Failed to cache analysis", "err", err)
	}
}

func randomPick(n int) int { return rand.IntN(n) }
