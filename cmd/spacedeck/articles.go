package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pders01/spacedeck/internal/debuglog"
	"github.com/pders01/spacedeck/internal/spaceflight"
	"github.com/pders01/spacedeck/internal/tui"
)

type listOptions struct {
	query  string
	pages  int
	limit  int
	asJSON bool
}

func newListCmd(opts *options) *cobra.Command {
	lo := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load articles and print them, ranked by the query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lo.pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}
			if lo.limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return runList(cmd.Context(), cmd.OutOrStdout(), opts, lo)
		},
	}

	cmd.Flags().StringVarP(&lo.query, "query", "q", "", "keywords to rank and filter by")
	cmd.Flags().IntVar(&lo.pages, "pages", 1, "number of pages to load")
	cmd.Flags().IntVar(&lo.limit, "limit", 0, "page size (0 uses the configured size)")
	cmd.Flags().BoolVar(&lo.asJSON, "json", false, "print articles as JSON")
	return cmd
}

func runList(ctx context.Context, out io.Writer, opts *options, lo *listOptions) error {
	cfg, err := setup(opts)
	if err != nil {
		return err
	}
	defer debuglog.Close()
	tui.ApplyTheme(cfg.UI.Colors)

	loader := newLoader(cfg)
	defer loader.Close()

	if err := loader.LoadFirstPage(ctx, lo.limit); err != nil {
		return err
	}
	for i := 1; i < lo.pages && loader.HasMore(); i++ {
		if err := loader.LoadNextPage(ctx, lo.limit); err != nil {
			return err
		}
	}

	store := loader.Store()
	store.SetSearchQuery(lo.query)
	articles := store.FilteredView()

	if lo.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	}

	tokens := store.Tokens()
	for _, art := range articles {
		fmt.Fprintf(out, "%6d  %s\n", art.ID, tui.HighlightMatches(art.Title, tokens))
		meta := []string{}
		if art.NewsSite != "" {
			meta = append(meta, art.NewsSite)
		}
		if t := art.Published(); !t.IsZero() {
			meta = append(meta, t.Format(time.DateOnly))
		}
		if len(meta) > 0 {
			fmt.Fprintf(out, "        %s\n", tui.TimeStyle.Render(strings.Join(meta, " • ")))
		}
	}

	footer := fmt.Sprintf("%d of %d loaded", store.Len(), store.Total())
	if lo.query != "" {
		footer = fmt.Sprintf("%d matching %q • %s", len(articles), lo.query, footer)
	}
	fmt.Fprintln(out, tui.HelpStyle.Render(footer))
	return nil
}

func newShowCmd(opts *options) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			return runShow(cmd.Context(), cmd.OutOrStdout(), opts, id, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	return cmd
}

func runShow(ctx context.Context, out io.Writer, opts *options, id int64, raw bool) error {
	cfg, err := setup(opts)
	if err != nil {
		return err
	}
	defer debuglog.Close()

	loader := newLoader(cfg)
	defer loader.Close()

	art, err := loader.Article(ctx, id)
	if err != nil {
		if errors.Is(err, spaceflight.ErrNotFound) {
			return fmt.Errorf("article %d not found", id)
		}
		return err
	}

	md := tui.ArticleMarkdown(*art)
	if raw {
		_, err = io.WriteString(out, md)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(cfg.UI.Article.WordWrapMaxWidth),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("rendering article: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}
