// Package genres holds the fixed genre taxonomy readers filter recommendations by.
package genres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bibliotek-ia/bibliotek/internal/match"
)

// All is the pseudo-genre that disables filtering
const All = "Todos"

var taxonomy = []string{
	All,
	"Ciência",
	"Computação",
	"Mangá/Anime",
	"Ficção Científica",
	"Fantasia",
	"Mistério/Suspense",
	"Terror",
	"Romance",
	"Histórico",
	"Biografia",
	"Autoajuda",
	"Filosofia",
	"Clássicos",
	"Poesia",
	"Não-ficção",
	"Distopia",
	"Infantojuvenil",
	"Negócios",
	"Aventura",
}

// aliases maps normalized free-text genres a model may return onto the taxonomy
var aliases = map[string]string{
	"science":                 "Ciência",
	"popular science":         "Ciência",
	"divulgacao cientifica":   "Ciência",
	"computer science":        "Computação",
	"computers":               "Computação",
	"programming":             "Computação",
	"programacao":             "Computação",
	"tecnologia":              "Computação",
	"technology":              "Computação",
	"manga":                   "Mangá/Anime",
	"anime":                   "Mangá/Anime",
	"comics":                  "Mangá/Anime",
	"graphic novel":           "Mangá/Anime",
	"quadrinhos":              "Mangá/Anime",
	"science fiction":         "Ficção Científica",
	"sci fi":                  "Ficção Científica",
	"scifi":                   "Ficção Científica",
	"sf":                      "Ficção Científica",
	"fantasy":                 "Fantasia",
	"mystery":                 "Mistério/Suspense",
	"thriller":                "Mistério/Suspense",
	"suspense":                "Mistério/Suspense",
	"crime":                   "Mistério/Suspense",
	"policial":                "Mistério/Suspense",
	"horror":                  "Terror",
	"romance":                 "Romance",
	"love story":              "Romance",
	"history":                 "Histórico",
	"historical fiction":      "Histórico",
	"historia":                "Histórico",
	"ficcao historica":        "Histórico",
	"biography":               "Biografia",
	"memoir":                  "Biografia",
	"autobiography":           "Biografia",
	"autobiografia":           "Biografia",
	"self help":               "Autoajuda",
	"desenvolvimento pessoal": "Autoajuda",
	"philosophy":              "Filosofia",
	"classics":                "Clássicos",
	"classic":                 "Clássicos",
	"classico":                "Clássicos",
	"literatura classica":     "Clássicos",
	"poetry":                  "Poesia",
	"poemas":                  "Poesia",
	"nonfiction":              "Não-ficção",
	"non fiction":             "Não-ficção",
	"dystopia":                "Distopia",
	"dystopian":               "Distopia",
	"distopico":               "Distopia",
	"young adult":             "Infantojuvenil",
	"children":                "Infantojuvenil",
	"juvenile fiction":        "Infantojuvenil",
	"infantil":                "Infantojuvenil",
	"juvenil":                 "Infantojuvenil",
	"business":                "Negócios",
	"economics":               "Negócios",
	"economia":                "Negócios",
	"administracao":           "Negócios",
	"adventure":               "Aventura",
}

var canonical = func() map[string]string {
	m := make(map[string]string, len(taxonomy))
	for _, g := range taxonomy {
		m[match.Normalize(g)] = g
	}
	return m
}()

type phrase struct {
	text  string
	genre string
}

// lexicon holds every normalized phrase that identifies a taxonomy entry,
// longest first so "science fiction" wins over "science".
var lexicon = func() []phrase {
	var out []phrase
	for _, g := range taxonomy {
		if g == All {
			continue
		}
		out = append(out, phrase{match.Normalize(g), g})
		if halves := strings.Split(g, "/"); len(halves) > 1 {
			for _, h := range halves {
				out = append(out, phrase{match.Normalize(h), g})
			}
		}
	}
	for alias, g := range aliases {
		out = append(out, phrase{alias, g})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].text) != len(out[j].text) {
			return len(out[i].text) > len(out[j].text)
		}
		return out[i].text < out[j].text
	})
	return out
}()

// List returns a copy of the taxonomy in display order
func List() []string {
	out := make([]string, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Lookup resolves a genre name, in any case or accenting, to its taxonomy entry
func Lookup(name string) (string, bool) {
	g, ok := canonical[match.Normalize(name)]
	return g, ok
}

// IsAll reports whether the selection disables filtering
func IsAll(selected []string) bool {
	for _, s := range selected {
		if g, ok := Lookup(s); ok && g == All {
			return true
		}
	}
	return false
}

// Validate checks a selection against the taxonomy and returns it canonicalized and de-duplicated
func Validate(selected []string) ([]string, error) {
	if len(selected) == 0 {
		return nil, fmt.Errorf("select at least one genre")
	}

	seen := make(map[string]bool, len(selected))
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		g, ok := Lookup(s)
		if !ok {
			return nil, fmt.Errorf("unknown genre: %q", s)
		}
		if seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out, nil
}

// Key is a stable string for a selection, independent of order and spelling
func Key(selected []string) string {
	keys := make([]string, 0, len(selected))
	for _, s := range selected {
		keys = append(keys, match.Normalize(s))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// Resolve maps a free-text genre onto the taxonomy entries it belongs to.
// Compound values such as "Fantasy / Adventure" may resolve to several.
func Resolve(bookGenre string) []string {
	norm := match.Normalize(bookGenre)
	if norm == "" {
		return nil
	}

	found := make(map[string]bool)
	rest := " " + norm + " "
	for _, p := range lexicon {
		needle := " " + p.text + " "
		if strings.Contains(rest, needle) {
			found[p.genre] = true
			rest = strings.ReplaceAll(rest, needle, "  ")
		}
	}

	out := make([]string, 0, len(found))
	for _, g := range taxonomy {
		if found[g] {
			out = append(out, g)
		}
	}
	return out
}

// Matches reports whether a book's free-text genre falls inside the selection
func Matches(bookGenre string, selected []string) bool {
	if IsAll(selected) {
		return true
	}

	resolved := Resolve(bookGenre)
	for _, s := range selected {
		want, ok := Lookup(s)
		if !ok {
			continue
		}
		for _, g := range resolved {
			if g == want {
				return true
			}
		}
	}
	return false
}
