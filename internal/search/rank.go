package search

import (
	"sort"

	"github.com/pders01/spacedeck/internal/spaceflight"
)

// Order is the outcome of comparing two articles for relevance.
type Order int

const (
	Unordered Order = iota
	Before
	After
)

func (o Order) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "unordered"
	}
}

// Compare prefers an article whose title matches a token over one whose
// title does not. Everything else is left unordered.
func Compare(a, b spaceflight.Article, tokens []string) Order {
	if len(tokens) == 0 {
		return Unordered
	}
	aTitle := ContainsAny(a.Title, tokens)
	bTitle := ContainsAny(b.Title, tokens)
	switch {
	case aTitle && !bTitle:
		return Before
	case !aTitle && bTitle:
		return After
	default:
		return Unordered
	}
}

// Matches is the inclusion predicate: with no tokens everything matches,
// otherwise one token in the title or summary is enough.
func Matches(a spaceflight.Article, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	return ContainsAny(a.Title, tokens) || ContainsAny(a.Summary, tokens)
}

// Rank returns a stably sorted copy of articles, title matches first.
func Rank(articles []spaceflight.Article, tokens []string) []spaceflight.Article {
	out := make([]spaceflight.Article, len(articles))
	copy(out, articles)
	if len(tokens) == 0 {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Compare(out[i], out[j], tokens) == Before
	})
	return out
}
