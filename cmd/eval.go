package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bibliotek-ia/bibliotek/internal/evaluation"
	"github.com/bibliotek-ia/bibliotek/internal/images"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		provider    string
		model       string
		concurrency int
		outDir      string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "eval <dataset>",
		Short: "Measure how accurately the model identifies books on labelled shelf photos",
		Long: `Runs every photo in a JSONL or Parquet dataset through the analysis
pipeline and compares the identified books with the labels.

Each sample has an id, an image (path relative to the dataset, or a URL) and
the books on the shelf:

  {"id": "sala-1", "image": "photos/sala-1.jpg", "books": [{"title": "Duna", "author": "Frank Herbert"}]}

Results are written as YAML to the output directory. The analysis cache is
not used, so every sample reaches the model.`,
		Example: `  bibliotek eval shelves.jsonl
  bibliotek eval shelves.parquet --provider ollama --model llava --concurrency 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := overrideAnalysis(a.cfg, provider, model); err != nil {
				return err
			}

			samples, err := evaluation.LoadDataset(args[0])
			if err != nil {
				return err
			}
			if limit > 0 && limit < len(samples) {
				samples = samples[:limit]
			}

			analyzer, err := newAnalyzer(a.cfg, nil)
			if err != nil {
				return err
			}

			started := time.Now()
			runner := evaluation.NewRunner(analyzer, images.NewFetcher(int(a.cfg.Server.MaxUploadBytes)), concurrency)
			results, err := runner.Run(cmd.Context(), samples)
			if err != nil {
				return err
			}

			report := &evaluation.Report{
				Config: evaluation.RunConfig{
					Provider:    a.cfg.Analysis.Provider,
					Model:       a.cfg.Analysis.Model,
					Temperature: a.cfg.Analysis.Temperature,
					Dataset:     args[0],
					Timestamp:   started.Format(time.RFC3339),
				},
				Summary: evaluation.Summarize(results),
				Results: results,
			}

			path := filepath.Join(outDir, evaluation.ReportName(a.cfg.Analysis.Model, started))
			if err := evaluation.SaveReport(path, report); err != nil {
				return err
			}

			printSummary(cmd, report.Summary)
			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Override the analysis provider")
	cmd.Flags().StringVar(&model, "model", "", "Override the model")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "Samples evaluated in parallel")
	cmd.Flags().StringVarP(&outDir, "out", "o", "evals", "Directory for the YAML report")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Only evaluate the first n samples")
	return cmd
}

func printSummary(cmd *cobra.Command, s evaluation.Summary) {
	pct := func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }
	rows := [][]string{
		{"Samples", strconv.Itoa(s.Samples)},
		{"Succeeded", strconv.Itoa(s.Succeeded)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Precision", pct(s.Precision)},
		{"Recall", pct(s.Recall)},
		{"F1", pct(s.F1)},
		{"Mean F1", pct(s.MeanF1)},
		{"Median F1", pct(s.MedianF1)},
		{"Author accuracy", pct(s.AuthorAccuracy)},
		{"Average time", s.AverageDuration.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable("Evaluation Summary", []string{"Metric", "Value"}, rows,
		[]columnAlignment{alignLeft, alignRight}))
}
