package search

import (
	"strings"
	"unicode"

	"github.com/kalambet/kvault/internal/storage"
)

// Score weights.
const (
	titleExact   = 100.0
	contentExact = 50.0
	tagsExact    = 75.0

	titleSimilarity   = 30.0
	contentSimilarity = 20.0

	titleWord   = 10.0
	contentWord = 5.0
	tagsWord    = 15.0

	// Query words this short or shorter are ignored for word bonuses.
	minWordRunes = 2
)

// Score rates rec against query. Substring bonuses for the whole query are
// combined with fuzzy similarity of title and content and with per-word
// bonuses. Comparison is case-insensitive.
func Score(rec storage.Record, query string) float64 {
	q := lower(query)
	title := lower(rec.Title)
	content := lower(rec.Content)
	tags := lower(strings.Join(rec.Tags, " "))

	var score float64
	if strings.Contains(title, q) {
		score += titleExact
	}
	if strings.Contains(content, q) {
		score += contentExact
	}
	if strings.Contains(tags, q) {
		score += tagsExact
	}

	score += Ratio(q, title) * titleSimilarity
	score += Ratio(q, content) * contentSimilarity

	for _, w := range queryWords(q) {
		if strings.Contains(title, w) {
			score += titleWord
		}
		if strings.Contains(content, w) {
			score += contentWord
		}
		if strings.Contains(tags, w) {
			score += tagsWord
		}
	}
	return score
}

// queryWords returns the whitespace-separated words of q long enough to
// count toward word bonuses.
func queryWords(q string) []string {
	var words []string
	for _, w := range strings.Fields(q) {
		if len([]rune(w)) > minWordRunes {
			words = append(words, w)
		}
	}
	return words
}

// lowerRunes lower-cases rune by rune so offsets line up with the original.
func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

func lower(s string) string {
	return string(lowerRunes(s))
}
