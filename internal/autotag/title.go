package autotag

import "strings"

const (
	titleMaxRunes = 50
	// A delimiter at or before this rune offset would leave a near-empty title.
	titleMinBreak = 10
	ellipsis      = "..."
)

var sentenceDelimiters = []rune{'。', '.', '?', '？', '!', '！'}

// GenerateTitle derives a short title from content. The title is the first
// 50 runes, cut after the first sentence delimiter when one appears past
// rune 10, with an ellipsis when content continues beyond it.
func GenerateTitle(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) == 0 {
		return ""
	}

	n := min(len(runes), titleMaxRunes)
	candidate := []rune(strings.TrimRight(string(runes[:n]), " \t\r\n"))
	title := candidate

	for _, d := range sentenceDelimiters {
		pos := indexRune(candidate, d)
		if pos > titleMinBreak {
			title = runes[:pos+1]
			break
		}
	}

	if len(runes) > len(title) {
		return string(title) + ellipsis
	}
	return string(title)
}

func indexRune(rs []rune, r rune) int {
	for i, c := range rs {
		if c == r {
			return i
		}
	}
	return -1
}
