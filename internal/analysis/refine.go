package analysis

import (
	"strings"

	"github.com/bibliotek-ia/bibliotek/internal/genres"
	"github.com/bibliotek-ia/bibliotek/internal/match"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

// refine cross-references the model's answer against the photo and the genre filter.
// Recommendations must name a book identified in the photo and, unless
// everything is selected, fall inside the filter.
func refine(resp *models.RecommendationResponse, selected []string) {
	resp.IdentifiedBooks = dedupe(resp.IdentifiedBooks)

	all := genres.IsAll(selected)
	kept := make([]models.Book, 0, len(resp.Recommendations))
	for _, rec := range dedupe(resp.Recommendations) {
		seen, ok := visible(rec, resp.IdentifiedBooks)
		if !ok {
			continue
		}
		if !all && !genres.Matches(rec.Genre, selected) {
			continue
		}
		if rec.Author == "" {
			rec.Author = seen.Author
		}
		kept = append(kept, rec)
	}
	resp.Recommendations = kept

	resp.NoMatchesFound = len(resp.IdentifiedBooks) == 0 || len(resp.Recommendations) == 0
}

// visible returns the identified book a recommendation refers to
func visible(rec models.Book, identified []models.Book) (models.Book, bool) {
	for _, b := range identified {
		if match.SameTitle(b.Title, rec.Title) {
			return b, true
		}
	}
	return models.Book{}, false
}

// dedupe drops untitled books and repeats of the same title and author
func dedupe(books []models.Book) []models.Book {
	out := make([]models.Book, 0, len(books))
	seen := make(map[string]bool, len(books))
	for _, b := range books {
		b.Title = strings.TrimSpace(b.Title)
		b.Author = strings.TrimSpace(b.Author)
		if b.Title == "" {
			continue
		}
		key := match.Key(b.Title, b.Author)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}

// pickOne keeps a single recommendation chosen by pick
func pickOne(resp *models.RecommendationResponse, pick func(n int) int) {
	if len(resp.Recommendations) <= 1 {
		return
	}
	chosen := resp.Recommendations[pick(len(resp.Recommendations))]
	resp.Recommendations = []models.Book{chosen}
}
