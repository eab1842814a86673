package evaluation

import (
	"github.com/bibliotek-ia/bibliotek/internal/match"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

// titleThreshold is the least title similarity that counts as the same book
const titleThreshold = 0.8

// Pair links a labelled book to what the model called it
type Pair struct {
	Expected    string  `yaml:"expected"`
	Identified  string  `yaml:"identified"`
	Method      string  `yaml:"method"`
	TitleScore  float64 `yaml:"title_score"`
	AuthorMatch bool    `yaml:"author_match"`
}

// ShelfScore compares one photo's labels with the model's identifications
type ShelfScore struct {
	Expected   int      `yaml:"expected"`
	Identified int      `yaml:"identified"`
	Matched    int      `yaml:"matched"`
	AuthorsOK  int      `yaml:"authors_ok"`
	Precision  float64  `yaml:"precision"`
	Recall     float64  `yaml:"recall"`
	F1         float64  `yaml:"f1"`
	Pairs      []Pair   `yaml:"pairs,omitempty"`
	Missed     []string `yaml:"missed,omitempty"`
	Extra      []string `yaml:"extra,omitempty"`
}

// Score pairs each label with its closest unused identification, in label order.
// Each identified book can satisfy at most one label.
func Score(expected []ExpectedBook, identified []models.Book) ShelfScore {
	s := ShelfScore{Expected: len(expected), Identified: len(identified)}

	used := make([]bool, len(identified))
	for _, want := range expected {
		best, bestResult := -1, match.Result{}
		for i, got := range identified {
			if used[i] {
				continue
			}
			r := match.Compare(want.Title, got.Title)
			if r.Score >= titleThreshold && r.Score > bestResult.Score {
				best, bestResult = i, r
			}
		}
		if best < 0 {
			s.Missed = append(s.Missed, want.Title)
			continue
		}

		used[best] = true
		got := identified[best]
		authorOK := want.Author == "" || match.Compare(want.Author, got.Author).Score >= titleThreshold
		if authorOK {
			s.AuthorsOK++
		}
		s.Matched++
		s.Pairs = append(s.Pairs, Pair{
			Expected:    want.Title,
			Identified:  got.Title,
			Method:      bestResult.Method,
			TitleScore:  bestResult.Score,
			AuthorMatch: authorOK,
		})
	}

	for i, got := range identified {
		if !used[i] {
			s.Extra = append(s.Extra, got.Title)
		}
	}

	s.Precision = ratio(s.Matched, s.Identified)
	s.Recall = ratio(s.Matched, s.Expected)
	s.F1 = f1(s.Precision, s.Recall)
	return s
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
