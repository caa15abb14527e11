package tui

import (
	"strings"
	"unicode"
)

const ellipsis = "…"

// truncateEnd cuts s to at most limit runes, ellipsis included.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return ellipsis
	}
	return string(r[:limit-1]) + ellipsis
}

// truncateWords is truncateEnd that backs up to the last word boundary when
// one is close enough, so summaries don't end mid-word.
func truncateWords(s string, limit int) string {
	cut := truncateEnd(s, limit)
	if cut == s || limit < 8 {
		return cut
	}
	r := []rune(strings.TrimSuffix(cut, ellipsis))
	for i := len(r) - 1; i >= len(r)*2/3; i-- {
		if unicode.IsSpace(r[i]) {
			return strings.TrimRightFunc(string(r[:i]), unicode.IsPunct) + ellipsis
		}
	}
	return cut
}

// truncateMiddle keeps both ends of s, which suits links.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return ellipsis
	}
	left := (limit - 1) / 2
	right := limit - 1 - left
	return string(r[:left]) + ellipsis + string(r[len(r)-right:])
}
