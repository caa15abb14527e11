package search

import (
	"unicode"
	"unicode/utf8"
)

// Segment is a slice of text tagged as matched or not.
type Segment struct {
	Text  string
	Match bool
}

// Highlight splits text into alternating matched and unmatched segments.
// Every case-insensitive occurrence of any token is matched; overlapping
// occurrences collapse into a single matched run. Joining the segments
// always gives back text.
func Highlight(text string, tokens []string) []Segment {
	tokens = nonEmpty(tokens)
	if len(tokens) == 0 || text == "" {
		return []Segment{{Text: text}}
	}

	matched := make([]bool, len(text))
	for i := 0; i < len(text); {
		for _, tok := range tokens {
			if end := matchAt(text, i, tok); end > i {
				for j := i; j < end; j++ {
					matched[j] = true
				}
			}
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}

	var segments []Segment
	start := 0
	for i := 1; i <= len(text); i++ {
		if i == len(text) || matched[i] != matched[start] {
			segments = append(segments, Segment{Text: text[start:i], Match: matched[start]})
			start = i
		}
	}
	return segments
}

// ContainsAny reports whether any token occurs in text, ignoring case.
func ContainsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		for i := 0; i < len(text); {
			if matchAt(text, i, tok) > i {
				return true
			}
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
		}
	}
	return false
}

// matchAt returns the byte offset just past tok if text matches tok at
// byte offset i (case-insensitively, rune by rune), or -1.
func matchAt(text string, i int, tok string) int {
	j := i
	for _, tr := range tok {
		if j >= len(text) {
			return -1
		}
		r, size := utf8.DecodeRuneInString(text[j:])
		if !foldEqual(r, tr) {
			return -1
		}
		j += size
	}
	return j
}

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	return unicode.ToLower(a) == unicode.ToLower(b) || unicode.ToUpper(a) == unicode.ToUpper(b)
}

func nonEmpty(tokens []string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
