package cmd

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/bibliotek-ia/bibliotek/internal/analysis"
	"github.com/bibliotek-ia/bibliotek/internal/genres"
	"github.com/bibliotek-ia/bibliotek/internal/images"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		selected []string
		lucky    bool
		asJSON   bool
		provider string
		model    string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <image path or URL>",
		Short: "Identify the books in a shelf photo and suggest what to read next",
		Long: fmt.Sprintf(`Sends a bookshelf photo to the configured vision model, prints the
books it identified and recommendations filtered by genre.

Genres: %s`, strings.Join(genres.List(), ", ")),
		Example: `  bibliotek analyze shelf.jpg --genre "Ficção Científica" --genre Fantasia
  bibliotek analyze https://example.com/shelf.png --lucky --json
  bibliotek analyze shelf.jpg --provider ollama --model llava`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := overrideAnalysis(a.cfg, provider, model); err != nil {
				return err
			}

			img, err := images.NewFetcher(int(a.cfg.Server.MaxUploadBytes)).Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load image: %w", err)
			}

			var cache analysis.Cache
			if !noCache {
				store, err := openStore(a.cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				cache = store
			}

			analyzer, err := newAnalyzer(a.cfg, cache)
			if err != nil {
				return err
			}

			resp, err := analyzer.Analyze(cmd.Context(), models.AnalyzeRequest{
				Image:        base64.StdEncoding.EncodeToString(img.Data),
				Genres:       selected,
				FeelingLucky: lucky,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printRecommendations(out, resp)
			if resp.Failed() {
				return fmt.Errorf("analysis failed: %s", resp.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&selected, "genre", "g", []string{genres.All}, "Genre to recommend from (repeatable)")
	cmd.Flags().BoolVar(&lucky, "lucky", false, "Keep a single random recommendation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw response as JSON")
	cmd.Flags().StringVar(&provider, "provider", "", "Override the analysis provider (openai, ollama, gemini, remote)")
	cmd.Flags().StringVar(&model, "model", "", "Override the model")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the analysis cache")
	return cmd
}

func printRecommendations(w io.Writer, resp *models.RecommendationResponse) {
	if resp.Failed() {
		fmt.Fprintf(w, "Error: %s\n", resp.Error)
		if resp.RawContent != "" {
			fmt.Fprintf(w, "\nModel output:\n%s\n", resp.RawContent)
		}
		return
	}

	if len(resp.IdentifiedBooks) > 0 {
		rows := make([][]string, 0, len(resp.IdentifiedBooks))
		for _, b := range resp.IdentifiedBooks {
			rows = append(rows, []string{b.Title, b.Author, b.Genre})
		}
		fmt.Fprintln(w, renderTable("On the shelf", []string{"Title", "Author", "Genre"}, rows, nil))
	}

	if resp.UserProfileSummary != "" {
		fmt.Fprintf(w, "\n%s\n\n", resp.UserProfileSummary)
	}

	if resp.NoMatchesFound || len(resp.Recommendations) == 0 {
		fmt.Fprintln(w, "No recommendations matched the selected genres.")
		return
	}

	rows := make([][]string, 0, len(resp.Recommendations))
	for _, b := range resp.Recommendations {
		rows = append(rows, []string{b.Title, b.Author, b.Genre, b.RecommendationReason})
	}
	fmt.Fprintln(w, renderTable("Recommended", []string{"Title", "Author", "Genre", "Why"}, rows, nil))
}
