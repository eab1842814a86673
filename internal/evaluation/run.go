package evaluation

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bibliotek-ia/bibliotek/internal/genres"
	"github.com/bibliotek-ia/bibliotek/internal/images"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

// Analyzer identifies the books in a shelf photo
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.RecommendationResponse, error)
}

// ImageLoader reads a photo from a path or URL
type ImageLoader interface {
	Load(ctx context.Context, source string) (*images.Image, error)
}

// Result is the outcome for one sample
type Result struct {
	ID       string        `yaml:"id"`
	Image    string        `yaml:"image"`
	Duration time.Duration `yaml:"duration"`
	Error    string        `yaml:"error,omitempty"`
	Score    *ShelfScore   `yaml:"score,omitempty"`
}

// Runner evaluates samples against an analyzer
type Runner struct {
	analyzer    Analyzer
	images      ImageLoader
	concurrency int
}

// NewRunner returns a Runner. concurrency below one runs samples one at a time.
func NewRunner(analyzer Analyzer, loader ImageLoader, concurrency int) *Runner {
	return &Runner{analyzer: analyzer, images: loader, concurrency: max(concurrency, 1)}
}

// Run evaluates every sample. A failing sample is recorded in its Result and
// does not stop the run; only cancellation does.
func (r *Runner) Run(ctx context.Context, samples []Sample) ([]Result, error) {
	results := make([]Result, len(samples))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, sample := range samples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slog.Info("Evaluating sample", "id", sample.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(samples)))
			results[i] = r.evaluate(ctx, sample)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) evaluate(ctx context.Context, sample Sample) (res Result) {
	res = Result{ID: sample.ID, Image: sample.Image}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	img, err := r.images.Load(ctx, sample.Image)
	if err != nil {
		res.Error = fmt.Sprintf("failed to load image: %v", err)
		return res
	}

	resp, err := r.analyzer.Analyze(ctx, models.AnalyzeRequest{
		Image:  base64.StdEncoding.EncodeToString(img.Data),
		Genres: []string{genres.All},
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if resp.Failed() {
		res.Error = resp.Error
		return res
	}

	score := Score(sample.Books, resp.IdentifiedBooks)
	res.Score = &score
	return res
}
