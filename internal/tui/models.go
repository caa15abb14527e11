package tui

import (
	"github.com/pders01/spacedeck/internal/feed"
)

type View int

const (
	ViewList View = iota
	ViewDetail
)

func (v View) String() string {
	if v == ViewDetail {
		return "detail"
	}
	return "list"
}

type pageLoadedMsg struct {
	kind feed.Kind
}

type pageFailedMsg struct {
	kind feed.Kind
	err  error
}

type articleRenderedMsg struct {
	id      int64
	content string
}

type searchDebounceFireMsg struct {
	seq int
}

type statusMsg struct {
	text string
	kind StatusKind
}

type errorMsg struct {
	err error
}

type pageSkippedMsg struct {
	kind feed.Kind
}

type clearStatusMsg struct {
	seq int
}
