// Package match compares book titles and authors the way a reader would:
// ignoring case, accents, punctuation and spacing.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Match methods, strongest first
const (
	MethodExact     = "exact"
	MethodSubstring = "substring"
	MethodFuzzy     = "fuzzy"
	MethodNone      = "no_match"
	MethodMissing   = "missing"
)

// Result is the outcome of comparing two strings
type Result struct {
	Score  float64 // 0.0 to 1.0
	Method string
}

// minSubstringLen keeps one-letter titles from matching everything
const minSubstringLen = 4

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Normalize lowercases text, folds accents, drops punctuation and collapses whitespace
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)
	folded = punctuation.ReplaceAllString(folded, " ")
	return strings.Join(strings.Fields(folded), " ")
}

// Key returns the identity used to detect the same book twice
func Key(title, author string) string {
	return Normalize(title) + "|" + Normalize(author)
}

// Compare scores how alike two strings are after normalization
func Compare(expected, actual string) Result {
	exp := Normalize(expected)
	act := Normalize(actual)

	if exp == "" || act == "" {
		return Result{Score: 0, Method: MethodMissing}
	}

	if exp == act {
		return Result{Score: 1.0, Method: MethodExact}
	}

	// Subtitles are often dropped on a spine
	shortest := min(len([]rune(exp)), len([]rune(act)))
	if shortest >= minSubstringLen && (strings.Contains(act, exp) || strings.Contains(exp, act)) {
		return Result{Score: 0.85, Method: MethodSubstring}
	}

	similarity := Similarity(exp, act)
	if similarity > 0.7 {
		return Result{Score: similarity, Method: MethodFuzzy}
	}
	return Result{Score: similarity, Method: MethodNone}
}

// sameTitleRatio is the least Levenshtein ratio at which two titles name the same book
const sameTitleRatio = 0.8

// subtitleSeparators split a main title from its subtitle or edition note
var subtitleSeparators = []string{":", " - ", " \u2013 ", " \u2014 "}

// SameTitle reports whether two titles refer to the same book.
// Plain substrings do not count, so "Duna Messias" is not "Duna";
// a subtitle after a separator is ignored, so "Duna: edição de luxo" is.
func SameTitle(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if Similarity(na, nb) >= sameTitleRatio {
		return true
	}
	ma, mb := MainTitle(a), MainTitle(b)
	if ma == na && mb == nb {
		return false
	}
	return ma != "" && mb != "" && Similarity(ma, mb) >= sameTitleRatio
}

// MainTitle returns the normalized title before the first subtitle separator
func MainTitle(title string) string {
	cut := len(title)
	for _, sep := range subtitleSeparators {
		if i := strings.Index(title, sep); i > 0 && i < cut {
			cut = i
		}
	}
	return Normalize(title[:cut])
}

// Similarity calculates a 0.0 to 1.0 ratio from the Levenshtein distance
func Similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	distance := levenshtein(r1, r2)
	maxLen := max(len(r1), len(r2))

	return 1.0 - (float64(distance) / float64(maxLen))
}

// levenshtein keeps two rows instead of the full matrix
func levenshtein(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
