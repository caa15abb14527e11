package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/spacedeck/internal/config"
	"github.com/pders01/spacedeck/internal/feed"
	"github.com/pders01/spacedeck/internal/media"
	"github.com/pders01/spacedeck/internal/spaceflight"
)

const statusTTL = 4 * time.Second

// opener starts an external program for a link.
type opener interface {
	Open(link string) error
}

type App struct {
	config      *config.Config
	loader      *feed.Loader
	store       *feed.Store
	launcher    opener
	keyHandler  *KeyHandler
	articleList list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	view        View
	current     *spaceflight.Article
	width       int
	height      int
	err         error

	status     string
	statusKind StatusKind
	statusSeq  int
	spinning   bool
	showHelp   bool

	pendingSearchQuery string
	searchSeq          int
	searchDebounce     time.Duration

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	loadingArticle  bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(loader *feed.Loader, cfg *config.Config) *App {
	ApplyTheme(cfg.UI.Colors)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(PrimaryColor).
		BorderForeground(PrimaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		BorderForeground(PrimaryColor)

	articleList := list.New([]list.Item{}, delegate, 0, 0)
	articleList.Title = "› spaceflight news"
	articleList.SetShowStatusBar(false)
	articleList.SetFilteringEnabled(false)
	articleList.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search loaded articles..."
	si.Prompt = "/ "
	si.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:         cfg,
		loader:         loader,
		store:          loader.Store(),
		launcher:       media.NewLauncher(cfg),
		articleList:    articleList,
		searchInput:    si,
		viewport:       viewport.New(0, 0),
		spinner:        sp,
		view:           ViewList,
		searchDebounce: cfg.UI.SearchDebounce,
		ctx:            ctx,
		cancel:         cancel,
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Article.WordWrapMaxWidth
	minWidth := a.config.UI.Article.WordWrapMinWidth

	wordWrapWidth := (a.width * 9) / 10
	if maxWidth > 0 && wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.setStatus(MsgLoading, StatusInfo, 0),
		a.startSpinner(),
		a.loadFirstPage(),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.spinning {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case pageLoadedMsg:
		a.err = nil
		a.refreshList()
		a.settle()
		kind := StatusSuccess
		if msg.kind == feed.KindNext && !a.store.HasMore() {
			kind = StatusInfo
		}
		return a, a.setStatus(a.loadedStatus(), kind, statusTTL)

	case pageFailedMsg:
		a.settle()
		return a, a.handleLoadFailure(msg)

	case pageSkippedMsg:
		a.settle()
		return a, nil

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq {
			return a, a.applySearch(a.pendingSearchQuery)
		}
		return a, nil

	case articleRenderedMsg:
		if a.current != nil && a.current.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
			a.settle()
			if a.status == MsgLoadingArticle {
				a.status = ""
			}
		}
		return a, nil

	case clearStatusMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case statusMsg:
		return a, a.setStatus(msg.text, msg.kind, statusTTL)

	case errorMsg:
		a.err = msg.err
		return a, a.setStatus(describeErr(msg.err), StatusError, 0)

	case tea.MouseMsg:
		var cmd tea.Cmd
		if a.view == ViewDetail {
			a.viewport, cmd = a.viewport.Update(msg)
		} else {
			a.articleList, cmd = a.articleList.Update(msg)
		}
		return a, cmd
	}

	return a, nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	listHeight := height - 6
	if listHeight < 3 {
		listHeight = 3
	}
	a.articleList.SetSize(width, listHeight)

	a.viewport.Width = width
	a.viewport.Height = height - 5
	if a.viewport.Height < 1 {
		a.viewport.Height = 1
	}

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = width - 4
	}
	if inputWidth < 1 {
		inputWidth = 1
	}
	a.searchInput.Width = inputWidth
}

// refreshList rebuilds the list items from the store's filtered view,
// keeping the cursor where it was when possible.
func (a *App) refreshList() {
	articles := a.store.FilteredView()
	tokens := a.store.Tokens()

	items := make([]list.Item, len(articles))
	for i, art := range articles {
		items[i] = articleItem{
			article: art,
			tokens:  tokens,
			maxDesc: a.config.UI.Article.MaxDescriptionLength,
		}
	}

	index := a.articleList.Index()
	a.articleList.SetItems(items)
	if index >= len(items) {
		index = len(items) - 1
	}
	if index >= 0 {
		a.articleList.Select(index)
	}
}

// applySearch makes query the store's search query and redraws the list.
func (a *App) applySearch(query string) tea.Cmd {
	a.pendingSearchQuery = query
	a.store.SetSearchQuery(query)
	a.refreshList()
	if len(a.articleList.Items()) > 0 {
		a.articleList.Select(0)
	}
	if strings.TrimSpace(query) != "" && len(a.articleList.Items()) == 0 {
		return a.setStatus(MsgNoResults, StatusWarn, statusTTL)
	}
	return nil
}

func (a *App) handleLoadFailure(msg pageFailedMsg) tea.Cmd {
	if msg.kind == feed.KindNext {
		return a.setStatus(MsgLoadMoreFailed(a.keyHandler.bound(a.config.Keys.Bindings.LoadMore)), StatusWarn, 0)
	}
	a.err = msg.err
	if a.store.Len() > 0 {
		return a.setStatus("Reload failed: "+describeErr(msg.err), StatusError, 0)
	}
	return a.setStatus(describeErr(msg.err), StatusError, 0)
}

func (a *App) loadedStatus() string {
	if a.store.HasMore() {
		return MsgLoadedCount(a.store.Len(), a.store.Total())
	}
	return MsgAllLoaded(a.store.Total())
}

// setStatus shows text in the status bar. With a positive ttl the message
// clears itself unless replaced first.
func (a *App) setStatus(text string, kind StatusKind, ttl time.Duration) tea.Cmd {
	a.status = text
	a.statusKind = kind
	a.statusSeq++
	if ttl <= 0 {
		return nil
	}
	seq := a.statusSeq
	return tea.Tick(ttl, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

func (a *App) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

// settle stops the spinner once nothing is loading anymore.
func (a *App) settle() {
	if !a.loader.Loading() && !a.loadingArticle {
		a.spinning = false
	}
}

// quit cancels outstanding requests and ends the session.
func (a *App) quit() (tea.Model, tea.Cmd) {
	a.cancel()
	a.loader.Close()
	return a, tea.Quit
}

func (a *App) selectedArticle() (spaceflight.Article, bool) {
	if i, ok := a.articleList.SelectedItem().(articleItem); ok {
		return i.article, true
	}
	return spaceflight.Article{}, false
}

func (a *App) counterText() string {
	if strings.TrimSpace(a.store.Query()) != "" {
		return MsgResultsCount(len(a.articleList.Items()))
	}
	if a.store.Total() == 0 {
		return ""
	}
	counter := MsgLoadedCount(a.store.Len(), a.store.Total())
	if a.loader.LastError(feed.KindNext) != nil {
		counter += " " + MsgMoreFailedMark
	}
	return counter
}

func (a *App) View() string {
	contentHeight := a.height - 3
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch a.view {
	case ViewList:
		content = a.listView(contentHeight)
	case ViewDetail:
		content = a.detailView(contentHeight)
	}

	separatorWidth := a.width - 2
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := SeparatorStyle.Render("─" + strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) listView(height int) string {
	searchBox := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width)

	if a.store.Len() == 0 {
		var body string
		if err := a.loader.LastError(feed.KindInitial); err != nil {
			body = lipgloss.JoinVertical(lipgloss.Center,
				GetWelcomeMessage(a.keyHandler.bound(a.config.Keys.Bindings.Reload)),
				"",
				ErrorMessageStyle.Render("✗ "+describeErr(err)),
			)
		} else {
			body = GetCompactBanner(MsgLoading)
		}
		return lipgloss.JoinVertical(lipgloss.Top, searchBox, renderCentered(a.width, height-3, body))
	}

	var body string
	if len(a.articleList.Items()) == 0 {
		body = renderCentered(a.width, height-3, renderMuted(MsgNoResults))
	} else {
		body = a.articleList.View()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Top, searchBox, body))
}

func (a *App) detailView(height int) string {
	if a.current == nil {
		return renderCentered(a.width, height, renderMuted("No article selected"))
	}
	if a.loadingArticle {
		return renderCentered(a.width, height, renderMuted(MsgLoadingArticle))
	}

	subtitle := strings.Join(nonEmpty(a.current.NewsSite, formatDate(*a.current)), " • ")
	header := renderHeader("› "+a.current.Title, subtitle, a.width)
	return lipgloss.JoinVertical(lipgloss.Top, header, a.viewport.View())
}

func (a *App) statusBar() string {
	var left string
	switch {
	case a.showHelp:
		left = renderHelp(strings.Join(a.keyHandler.GetFullHelp(), " • "))
	case a.status != "":
		left = statusStyle(a.statusKind).Render(a.status)
	case a.err != nil:
		left = ErrorMessageStyle.Render("✗ " + describeErr(a.err))
	default:
		left = strings.Join(a.keyHandler.GetHelpForCurrentView(), " • ")
	}
	if a.spinning {
		left = a.spinner.View() + " " + left
	}

	right := CounterStyle.Render(a.counterText())

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return StatusBarStyle.
		Width(a.width).
		Render(left + strings.Repeat(" ", gap) + right)
}

type articleItem struct {
	article spaceflight.Article
	tokens  []string
	maxDesc int
}

func (i articleItem) Title() string {
	prefix := ""
	if i.article.Featured {
		prefix = "★ "
	}
	return prefix + HighlightMatches(i.article.Title, i.tokens)
}

func (i articleItem) Description() string {
	desc := plainText(i.article.Summary)
	if i.maxDesc > 0 {
		desc = truncateWords(desc, i.maxDesc)
	}

	meta := nonEmpty(i.article.NewsSite, formatDate(i.article))
	if len(meta) == 0 {
		return HighlightMatches(desc, i.tokens)
	}
	return HighlightMatches(desc, i.tokens) + TimeStyle.Render(" • "+strings.Join(meta, " • "))
}

func (i articleItem) FilterValue() string { return i.article.Title }

func formatDate(a spaceflight.Article) string {
	t := a.Published()
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
