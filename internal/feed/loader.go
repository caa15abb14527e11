package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pders01/spacedeck/internal/debuglog"
	"github.com/pders01/spacedeck/internal/spaceflight"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 12

// ArticleSource is the remote, read-only article API.
type ArticleSource interface {
	ListArticles(ctx context.Context, limit, offset int) (*spaceflight.Page, error)
	GetArticle(ctx context.Context, id int64) (*spaceflight.Article, error)
}

// Kind distinguishes the first-page load from "load more".
type Kind int

const (
	KindInitial Kind = iota
	KindNext
)

func (k Kind) String() string {
	if k == KindNext {
		return "next"
	}
	return "initial"
}

// State is the per-kind request state.
type State int

const (
	StateIdle State = iota
	StateLoading
)

var (
	// ErrInFlight is returned when an equivalent load is already running.
	// No request is issued.
	ErrInFlight = errors.New("load already in flight")
	// ErrDiscarded is returned when a response arrived after the loader was
	// closed or after the collection it was meant for was replaced.
	ErrDiscarded = errors.New("stale page discarded")
)

// LoadError wraps a failed page load with the kind of load that failed.
type LoadError struct {
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Kind == KindNext {
		return fmt.Sprintf("loading more articles: %v", e.Err)
	}
	return fmt.Sprintf("loading articles: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches pages from an ArticleSource into a Store.
type Loader struct {
	source          ArticleSource
	store           *Store
	defaultPageSize int

	mu         sync.Mutex
	states     [2]State
	lastErrs   [2]error
	generation uint64
	closed     bool
}

func NewLoader(source ArticleSource, store *Store, defaultPageSize int) *Loader {
	if defaultPageSize < 1 {
		defaultPageSize = DefaultPageSize
	}
	return &Loader{source: source, store: store, defaultPageSize: defaultPageSize}
}

func (l *Loader) Store() *Store { return l.store }

// LoadFirstPage replaces the collection with the first pageSize articles.
func (l *Loader) LoadFirstPage(ctx context.Context, pageSize int) error {
	pageSize = l.pageSize(pageSize)

	gen, err := l.begin(KindInitial)
	if err != nil {
		return err
	}

	page, err := l.source.ListArticles(ctx, pageSize, 0)
	return l.finish(KindInitial, gen, 0, page, err)
}

// LoadNextPage appends the next pageSize articles. The offset is the number
// of articles loaded when the call starts.
func (l *Loader) LoadNextPage(ctx context.Context, pageSize int) error {
	pageSize = l.pageSize(pageSize)

	gen, err := l.begin(KindNext)
	if err != nil {
		return err
	}

	offset := l.store.Len()
	page, err := l.source.ListArticles(ctx, pageSize, offset)
	return l.finish(KindNext, gen, offset, page, err)
}

func (l *Loader) begin(kind Kind) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrDiscarded
	}
	if l.states[kind] == StateLoading {
		debuglog.Debugf("%s load suppressed: already in flight", kind)
		return 0, ErrInFlight
	}
	if kind == KindNext && l.states[KindInitial] == StateLoading {
		debuglog.Debugf("next load suppressed: initial load in flight")
		return 0, ErrInFlight
	}
	l.states[kind] = StateLoading
	return l.generation, nil
}

func (l *Loader) finish(kind Kind, gen uint64, offset int, page *spaceflight.Page, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.states[kind] = StateIdle
	log := debuglog.WithFields(map[string]interface{}{"kind": kind.String(), "offset": offset})

	if l.closed {
		log.Debugf("loader closed, dropping response")
		return ErrDiscarded
	}

	if err == nil && page == nil {
		err = fmt.Errorf("%w: source returned no page", spaceflight.ErrMalformedResponse)
	}
	if err != nil {
		loadErr := &LoadError{Kind: kind, Err: err}
		l.lastErrs[kind] = loadErr
		log.Errorf("page load failed: %v", err)
		return loadErr
	}

	switch kind {
	case KindInitial:
		l.store.ReplaceAll(page)
		l.generation++
		// a load-more failure no longer applies to the new collection
		l.lastErrs[KindNext] = nil
	case KindNext:
		if gen != l.generation {
			log.Debugf("collection replaced while loading, dropping page")
			return ErrDiscarded
		}
		l.store.Append(page)
	}
	l.lastErrs[kind] = nil
	log.Infof("loaded %d articles (total %d)", len(page.Results), page.Count)
	return nil
}

// HasMore reports whether the last reported total exceeds what is loaded.
func (l *Loader) HasMore() bool {
	return l.store.HasMore()
}

// State returns the request state for kind.
func (l *Loader) State(kind Kind) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[kind]
}

// Loading reports whether any load is in flight.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[KindInitial] == StateLoading || l.states[KindNext] == StateLoading
}

// LastError is the error of the most recent load of kind, or nil after a success.
func (l *Loader) LastError(kind Kind) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErrs[kind]
}

// Close ends the session. Responses still in flight are dropped on arrival.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// Article resolves a single article, preferring the loaded collection.
func (l *Loader) Article(ctx context.Context, id int64) (*spaceflight.Article, error) {
	if a, ok := l.store.Find(id); ok {
		return &a, nil
	}
	a, err := l.source.GetArticle(ctx, id)
	if err != nil {
		debuglog.WithFields(map[string]interface{}{"id": id}).Warnf("article lookup failed: %v", err)
		return nil, fmt.Errorf("article %d: %w", id, err)
	}
	return a, nil
}

func (l *Loader) pageSize(n int) int {
	if n < 1 {
		return l.defaultPageSize
	}
	return n
}
