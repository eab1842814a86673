package evaluation

import (
	"sort"
	"time"
)

// Summary aggregates a run
type Summary struct {
	Samples   int `yaml:"samples"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`

	// Micro-averaged over every book in every successful sample
	Precision float64 `yaml:"precision"`
	Recall    float64 `yaml:"recall"`
	F1        float64 `yaml:"f1"`

	MeanF1         float64 `yaml:"mean_f1"`
	MedianF1       float64 `yaml:"median_f1"`
	AuthorAccuracy float64 `yaml:"author_accuracy"`

	AverageDuration time.Duration `yaml:"average_duration"`
	TotalDuration   time.Duration `yaml:"total_duration"`
}

// Summarize aggregates per-sample results
func Summarize(results []Result) Summary {
	sum := Summary{Samples: len(results)}

	var expected, identified, matched, authorsOK int
	var scores []float64
	for _, r := range results {
		sum.TotalDuration += r.Duration
		if r.Error != "" || r.Score == nil {
			sum.Failed++
			continue
		}
		sum.Succeeded++
		expected += r.Score.Expected
		identified += r.Score.Identified
		matched += r.Score.Matched
		authorsOK += r.Score.AuthorsOK
		scores = append(scores, r.Score.F1)
	}

	sum.Precision = ratio(matched, identified)
	sum.Recall = ratio(matched, expected)
	sum.F1 = f1(sum.Precision, sum.Recall)
	sum.AuthorAccuracy = ratio(authorsOK, matched)

	if len(scores) > 0 {
		var total float64
		for _, s := range scores {
			total += s
		}
		sum.MeanF1 = total / float64(len(scores))

		sort.Float64s(scores)
		mid := len(scores) / 2
		if len(scores)%2 == 0 {
			sum.MedianF1 = (scores[mid-1] + scores[mid]) / 2
		} else {
			sum.MedianF1 = scores[mid]
		}
	}
	if len(results) > 0 {
		sum.AverageDuration = sum.TotalDuration / time.Duration(len(results))
	}
	return sum
}
