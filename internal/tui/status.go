package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading articles…"
	MsgLoadingMore    = "Loading more…"
	MsgReloading      = "Reloading…"
	MsgLoadingArticle = "Loading article…"
	MsgNoResults      = "No results"
	MsgNoLink         = "No link for this article"
	MsgNoImage        = "No image for this article"
	MsgMoreFailedMark = "(more failed)"
)

func MsgResultsCount(n int) string {
	return fmt.Sprintf("Results: %d", n)
}

func MsgLoadedCount(loaded, total int) string {
	return fmt.Sprintf("%d of %d loaded", loaded, total)
}

func MsgAllLoaded(total int) string {
	if total == 1 {
		return "All 1 article loaded"
	}
	return fmt.Sprintf("All %d articles loaded", total)
}

func MsgLoadMoreFailed(key string) string {
	return fmt.Sprintf("Could not load more • press %s to retry", key)
}

func MsgOpened(what, link string) string {
	return fmt.Sprintf("Opened %s %s", strings.TrimSpace(what), truncateMiddle(link, 48))
}
