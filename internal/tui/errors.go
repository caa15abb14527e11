package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/spacedeck/internal/spaceflight"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeErr turns a load failure into a short line for the status bar.
func describeErr(err error) string {
	switch {
	case errors.Is(err, spaceflight.ErrNotFound):
		return "Article not found"
	case errors.Is(err, spaceflight.ErrMalformedResponse):
		return "The server sent something unexpected"
	case errors.Is(err, spaceflight.ErrNetwork):
		return "Network error, check your connection"
	default:
		return err.Error()
	}
}
