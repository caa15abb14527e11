package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/spacedeck/internal/feed"
	"github.com/pders01/spacedeck/internal/spaceflight"
)

func (a *App) loadFirstPage() tea.Cmd {
	return a.load(feed.KindInitial)
}

func (a *App) loadNextPage() tea.Cmd {
	return a.load(feed.KindNext)
}

func (a *App) load(kind feed.Kind) tea.Cmd {
	ctx := a.ctx
	pageSize := a.config.API.PageSize
	return func() tea.Msg {
		var err error
		if kind == feed.KindInitial {
			err = a.loader.LoadFirstPage(ctx, pageSize)
		} else {
			err = a.loader.LoadNextPage(ctx, pageSize)
		}

		switch {
		case err == nil:
			return pageLoadedMsg{kind: kind}
		case errors.Is(err, feed.ErrInFlight), errors.Is(err, feed.ErrDiscarded):
			return pageSkippedMsg{kind: kind}
		default:
			return pageFailedMsg{kind: kind, err: err}
		}
	}
}

func (a *App) renderArticle(article spaceflight.Article) tea.Cmd {
	return func() tea.Msg {
		r, err := a.getRenderer()
		if err != nil {
			return articleRenderedMsg{id: article.ID, content: "Error initializing renderer: " + err.Error()}
		}

		rendered, err := r.Render(ArticleMarkdown(article))
		if err != nil {
			// still answer with a rendered message so the loading flag clears
			return articleRenderedMsg{id: article.ID, content: fmt.Sprintf("Failed to render article: %s\n\nPress Escape to go back.", err)}
		}

		return articleRenderedMsg{id: article.ID, content: rendered}
	}
}

// ArticleMarkdown is the markdown document shown for an article in the
// reader and by the show command.
func ArticleMarkdown(article spaceflight.Article) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", article.Title))

	meta := nonEmpty(article.NewsSite, formatDate(article))
	if article.Featured {
		meta = append(meta, "featured")
	}
	if len(meta) > 0 {
		content.WriteString(fmt.Sprintf("*%s*\n\n", strings.Join(meta, " • ")))
	}

	if len(article.Authors) > 0 {
		names := make([]string, 0, len(article.Authors))
		for _, author := range article.Authors {
			names = append(names, author.Name)
		}
		if names = nonEmpty(names...); len(names) > 0 {
			content.WriteString(fmt.Sprintf("By %s\n\n", strings.Join(names, ", ")))
		}
	}

	if article.URL != "" {
		content.WriteString(fmt.Sprintf("[Read online](%s)\n\n", article.URL))
	}
	if article.ImageURL != "" {
		content.WriteString(fmt.Sprintf("[Image](%s)\n\n", article.ImageURL))
	}

	content.WriteString("---\n\n")
	if summary := plainText(article.Summary); summary != "" {
		content.WriteString(summary)
	} else {
		content.WriteString("*No summary available.*")
	}
	content.WriteString("\n")

	return content.String()
}

// openLink opens link with the launcher and reports the outcome in the status bar.
func (a *App) openLink(what, link string) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Open(link); err != nil {
			return errorMsg{err: wrapErr("open "+what, err)}
		}
		return statusMsg{text: MsgOpened(what, link), kind: StatusSuccess}
	}
}
