package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/spacedeck/internal/config"
	"github.com/pders01/spacedeck/internal/feed"
	"github.com/pders01/spacedeck/internal/spaceflight"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, modifierKey: modifierKey}
}

// bound returns the full key string for a binding that takes the modifier.
func (kh *KeyHandler) bound(binding string) string {
	return kh.modifierKey + binding
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return kh.app.quit()
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewList && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// leaving the box with esc drops the query
		kh.app.searchInput.Reset()
		kh.app.searchInput.Blur()
		kh.app.searchSeq++
		return kh.app, kh.app.applySearch("")
	case "enter", "tab", "down":
		kh.app.searchInput.Blur()
		kh.app.searchSeq++
		return kh.app, kh.app.applySearch(kh.sanitizeSearchInput(kh.app.searchInput.Value()))
	default:
		return kh.delegateToTextInput(msg)
	}
}

// delegateToTextInput passes the key to the search box and schedules the
// debounced query update when the text changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := kh.sanitizeSearchInput(kh.app.searchInput.Value())
	newSearchInput, cmd := kh.app.searchInput.Update(msg)
	kh.app.searchInput = newSearchInput

	newVal := kh.sanitizeSearchInput(kh.app.searchInput.Value())
	if newVal == prev {
		return kh.app, cmd
	}

	kh.app.pendingSearchQuery = newVal
	kh.app.searchSeq++
	if kh.app.searchDebounce <= 0 {
		return kh.app, tea.Batch(cmd, kh.app.applySearch(newVal))
	}
	seq := kh.app.searchSeq
	return kh.app, tea.Batch(cmd, tea.Tick(kh.app.searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceFireMsg{seq: seq}
	}))
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	bindings := kh.config.Keys.Bindings

	switch key {
	case bindings.Quit:
		model, cmd := kh.app.quit()
		return model, cmd, true
	case bindings.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case bindings.Help:
		kh.app.showHelp = !kh.app.showHelp
		return kh.app, nil, true
	case kh.bound(bindings.Search), "/":
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case kh.bound(bindings.Reload):
		return kh.app, kh.reload(), true
	}

	switch kh.app.view {
	case ViewList:
		return kh.handleListCustomKeys(key)
	case ViewDetail:
		return kh.handleDetailCustomKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleListCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	bindings := kh.config.Keys.Bindings

	switch key {
	case kh.bound(bindings.LoadMore):
		return kh.app, kh.loadMore(), true
	case kh.bound(bindings.OpenURL):
		if art, ok := kh.app.selectedArticle(); ok {
			return kh.app, kh.openArticleURL(art), true
		}
		return kh.app, nil, true
	case kh.bound(bindings.OpenImage):
		if art, ok := kh.app.selectedArticle(); ok {
			return kh.app, kh.openArticleImage(art), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleDetailCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	bindings := kh.config.Keys.Bindings
	if kh.app.current == nil {
		return kh.app, nil, false
	}

	switch key {
	case kh.bound(bindings.OpenURL):
		return kh.app, kh.openArticleURL(*kh.app.current), true
	case kh.bound(bindings.OpenImage):
		return kh.app, kh.openArticleImage(*kh.app.current), true
	}
	return kh.app, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewList:
		if msg.String() == "enter" {
			if art, ok := kh.app.selectedArticle(); ok {
				return kh.openDetail(art)
			}
			return kh.app, nil
		}
		kh.app.articleList, cmd = kh.app.articleList.Update(msg)
		return kh.app, cmd

	case ViewDetail:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

func (kh *KeyHandler) openDetail(art spaceflight.Article) (tea.Model, tea.Cmd) {
	kh.app.current = &art
	kh.app.view = ViewDetail
	kh.app.loadingArticle = true
	kh.app.viewport.SetContent("")
	return kh.app, tea.Batch(
		kh.app.setStatus(MsgLoadingArticle, StatusInfo, 0),
		kh.app.startSpinner(),
		kh.app.renderArticle(art),
	)
}

func (kh *KeyHandler) reload() tea.Cmd {
	if kh.app.loader.State(feed.KindInitial) == feed.StateLoading {
		return nil
	}
	kh.app.err = nil
	return tea.Batch(
		kh.app.setStatus(MsgReloading, StatusInfo, 0),
		kh.app.startSpinner(),
		kh.app.loadFirstPage(),
	)
}

func (kh *KeyHandler) loadMore() tea.Cmd {
	if kh.app.loader.Loading() {
		return nil
	}
	if !kh.app.store.HasMore() {
		if kh.app.store.Len() == 0 {
			return nil
		}
		return kh.app.setStatus(MsgAllLoaded(kh.app.store.Total()), StatusInfo, statusTTL)
	}
	return tea.Batch(
		kh.app.setStatus(MsgLoadingMore, StatusInfo, 0),
		kh.app.startSpinner(),
		kh.app.loadNextPage(),
	)
}

// navigateBack leaves the reader, or clears an active search in the list.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewDetail:
		kh.app.view = ViewList
		kh.app.loadingArticle = false
		kh.app.settle()
		if kh.app.status == MsgLoadingArticle {
			kh.app.status = ""
		}
		return kh.app, nil

	case ViewList:
		kh.app.showHelp = false
		if kh.app.store.Query() != "" || kh.app.searchInput.Value() != "" {
			kh.app.searchInput.Reset()
			kh.app.searchSeq++
			return kh.app, kh.app.applySearch("")
		}
		return kh.app, nil

	default:
		return kh.app, nil
	}
}

// enterSearchMode focuses the search box, switching to the list first.
func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.view == ViewDetail {
		kh.app.view = ViewList
		kh.app.loadingArticle = false
	}
	kh.app.showHelp = false
	return kh.app, kh.app.searchInput.Focus()
}

// sanitizeSearchInput sanitizes and limits search input length
func (kh *KeyHandler) sanitizeSearchInput(input string) string {
	input = strings.TrimSpace(input)

	if r := []rune(input); len(r) > 256 {
		input = string(r[:256])
	}

	return strings.Join(strings.Fields(input), " ")
}

func (kh *KeyHandler) openArticleURL(art spaceflight.Article) tea.Cmd {
	if art.URL == "" {
		return kh.app.setStatus(MsgNoLink, StatusWarn, statusTTL)
	}
	return kh.app.openLink("article", art.URL)
}

func (kh *KeyHandler) openArticleImage(art spaceflight.Article) tea.Cmd {
	if art.ImageURL == "" {
		return kh.app.setStatus(MsgNoImage, StatusWarn, statusTTL)
	}
	return kh.app.openLink("image", art.ImageURL)
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.config.Keys.Bindings

	switch kh.app.view {
	case ViewList:
		if kh.app.searchInput.Focused() {
			return []string{"enter: apply", "tab: results", "esc: clear"}
		}
		help := []string{"/: search", "enter: read"}
		if kh.app.store.HasMore() {
			help = append(help, kh.bound(b.LoadMore)+": more")
		}
		return append(help, b.Help+": help", b.Quit+": quit")

	case ViewDetail:
		return []string{kh.bound(b.OpenURL) + ": open", kh.bound(b.OpenImage) + ": image", b.Back + ": back"}

	default:
		return []string{}
	}
}

// GetFullHelp lists every binding.
func (kh *KeyHandler) GetFullHelp() []string {
	b := kh.config.Keys.Bindings
	return []string{
		kh.bound(b.Search) + " or /: search",
		kh.bound(b.LoadMore) + ": load more",
		kh.bound(b.Reload) + ": reload",
		kh.bound(b.OpenURL) + ": open article",
		kh.bound(b.OpenImage) + ": open image",
		b.Back + ": back",
		b.Quit + ": quit",
	}
}
