package search

import (
	"strings"
	"unicode/utf8"
)

// DefaultSnippetLength is the snippet window size in runes.
const DefaultSnippetLength = 150

const ellipsis = "..."

// Snippet returns a window of content of maxLength runes placed near the
// first match of query, or of its first matching word, and at the start of
// content when nothing matches. The match sits a third of the way into the
// window. Ellipses mark truncation at either end.
func Snippet(content, query string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSnippetLength
	}
	runes := []rune(content)
	hay := lowerRunes(content)
	q := lower(strings.TrimSpace(query))

	pos := -1
	if q != "" {
		pos = indexRunes(hay, []rune(q))
	}
	if pos < 0 {
		for _, w := range queryWords(q) {
			if p := indexRunes(hay, []rune(w)); p >= 0 {
				pos = p
				break
			}
		}
	}
	if pos < 0 {
		pos = 0
	}

	start := max(0, pos-maxLength/3)
	end := min(len(runes), start+maxLength)

	var sb strings.Builder
	if start > 0 {
		sb.WriteString(ellipsis)
	}
	sb.WriteString(string(runes[start:end]))
	if end < len(runes) {
		sb.WriteString(ellipsis)
	}
	return strings.TrimSpace(sb.String())
}

// Preview returns the first maxLength runes of content with an ellipsis when
// content is longer.
func Preview(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSnippetLength
	}
	if utf8.RuneCountInString(content) <= maxLength {
		return content
	}
	return string([]rune(content)[:maxLength]) + ellipsis
}

func indexRunes(hay, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for k, r := range needle {
			if hay[i+k] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
