package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/spacedeck/internal/search"
	"github.com/pders01/spacedeck/internal/spaceflight"
)

type listCall struct {
	limit, offset int
}

// fakeSource serves slices of a fixed article set. When gate is set, every
// ListArticles call blocks until a value is received on it.
type fakeSource struct {
	mu       sync.Mutex
	articles []spaceflight.Article
	calls    []listCall
	listErr  error
	getErr   error
	gate     chan struct{}
	entered  chan struct{}
	getCalls int
}

func newFakeSource(n int) *fakeSource {
	src := &fakeSource{}
	for i := 0; i < n; i++ {
		src.articles = append(src.articles, article(int64(i+1), fmt.Sprintf("Story %d", i+1), "summary"))
	}
	return src
}

func (f *fakeSource) ListArticles(ctx context.Context, limit, offset int) (*spaceflight.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, listCall{limit, offset})
	gate, entered, err := f.gate, f.entered, f.listErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", spaceflight.ErrNetwork, ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	end := offset + limit
	if end > len(f.articles) {
		end = len(f.articles)
	}
	page := &spaceflight.Page{Count: len(f.articles)}
	if offset < end {
		page.Results = append(page.Results, f.articles[offset:end]...)
	}
	return page, nil
}

func (f *fakeSource) GetArticle(_ context.Context, id int64) (*spaceflight.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.articles {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: article %d", spaceflight.ErrNotFound, id)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 4)
}

func (f *fakeSource) release() {
	f.mu.Lock()
	gate := f.gate
	f.gate, f.entered = nil, nil
	f.mu.Unlock()
	close(gate)
}

func TestLoader_EndToEndLaunchScenario(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 40; i++ {
		title := fmt.Sprintf("Story %d", i+1)
		summary := "routine update"
		switch {
		case i%7 == 0:
			title = fmt.Sprintf("Launch window %d", i+1)
		case i%5 == 0:
			summary = "after the launch the crew rested"
		}
		src.articles = append(src.articles, article(int64(i+1), title, summary))
	}

	store := NewStore()
	loader := NewLoader(src, store, 12)
	ctx := context.Background()

	require.NoError(t, loader.LoadFirstPage(ctx, 12))
	assert.Equal(t, 12, store.Len())
	assert.Equal(t, 40, store.Total())
	assert.True(t, loader.HasMore())

	require.NoError(t, loader.LoadNextPage(ctx, 12))
	assert.Equal(t, 24, store.Len())
	assert.True(t, loader.HasMore())
	assert.Equal(t, []listCall{{12, 0}, {12, 12}}, src.calls)

	store.SetSearchQuery("launch")
	view := store.FilteredView()
	require.NotEmpty(t, view)

	tokens := []string{"launch"}
	seenSummaryOnly := false
	for _, a := range view {
		require.True(t, search.Matches(a, tokens), "article %d should not be included", a.ID)
		titleMatch := strings.Contains(strings.ToLower(a.Title), "launch")
		if !titleMatch {
			seenSummaryOnly = true
		} else {
			assert.False(t, seenSummaryOnly, "title match %d ranked after a summary-only match", a.ID)
		}
	}

	var want int
	for _, a := range store.Articles() {
		if search.Matches(a, tokens) {
			want++
		}
	}
	assert.Len(t, view, want)
}

func TestLoader_DefaultPageSize(t *testing.T) {
	src := newFakeSource(30)
	loader := NewLoader(src, NewStore(), 0)

	require.NoError(t, loader.LoadFirstPage(context.Background(), 0))
	require.NoError(t, loader.LoadNextPage(context.Background(), -3))

	assert.Equal(t, []listCall{{DefaultPageSize, 0}, {DefaultPageSize, DefaultPageSize}}, src.calls)
}

func TestLoader_ReloadReplaces(t *testing.T) {
	src := newFakeSource(30)
	store := NewStore()
	loader := NewLoader(src, store, 10)
	ctx := context.Background()

	require.NoError(t, loader.LoadFirstPage(ctx, 10))
	require.NoError(t, loader.LoadNextPage(ctx, 10))
	require.Equal(t, 20, store.Len())

	require.NoError(t, loader.LoadFirstPage(ctx, 5))
	assert.Equal(t, 5, store.Len())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(store.Articles()))
}

func TestLoader_FailureLeavesStoreUntouched(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		err  error
	}{
		{"initial network", KindInitial, fmt.Errorf("%w: connection refused", spaceflight.ErrNetwork)},
		{"next network", KindNext, fmt.Errorf("%w: timeout", spaceflight.ErrNetwork)},
		{"next malformed", KindNext, fmt.Errorf("%w: missing count", spaceflight.ErrMalformedResponse)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource(20)
			store := NewStore()
			loader := NewLoader(src, store, 5)
			ctx := context.Background()
			require.NoError(t, loader.LoadFirstPage(ctx, 5))
			before := store.Articles()

			src.listErr = tt.err
			var err error
			if tt.kind == KindInitial {
				err = loader.LoadFirstPage(ctx, 5)
			} else {
				err = loader.LoadNextPage(ctx, 5)
			}

			require.Error(t, err)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.kind, loadErr.Kind)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, before, store.Articles())
			assert.Equal(t, 20, store.Total())
			assert.Equal(t, err, loader.LastError(tt.kind))
			assert.Equal(t, StateIdle, loader.State(tt.kind))

			src.listErr = nil
			if tt.kind == KindInitial {
				require.NoError(t, loader.LoadFirstPage(ctx, 5))
			} else {
				require.NoError(t, loader.LoadNextPage(ctx, 5))
			}
			assert.NoError(t, loader.LastError(tt.kind), "success clears the last error")
		})
	}
}

func TestLoader_ReloadClearsNextPageError(t *testing.T) {
	src := newFakeSource(20)
	loader := NewLoader(src, NewStore(), 5)
	ctx := context.Background()
	require.NoError(t, loader.LoadFirstPage(ctx, 5))

	src.listErr = spaceflight.ErrNetwork
	require.Error(t, loader.LoadNextPage(ctx, 5))
	require.Error(t, loader.LastError(KindNext))

	src.listErr = nil
	require.NoError(t, loader.LoadFirstPage(ctx, 5))
	assert.NoError(t, loader.LastError(KindNext))
	assert.NoError(t, loader.LastError(KindInitial))
}

type nilPageSource struct{}

func (nilPageSource) ListArticles(context.Context, int, int) (*spaceflight.Page, error) {
	return nil, nil
}

func (nilPageSource) GetArticle(context.Context, int64) (*spaceflight.Article, error) {
	return nil, spaceflight.ErrNotFound
}

func TestLoader_NilPageIsMalformed(t *testing.T) {
	store := NewStore()
	loader := NewLoader(nilPageSource{}, store, 5)

	for _, kind := range []Kind{KindInitial, KindNext} {
		var err error
		if kind == KindInitial {
			err = loader.LoadFirstPage(context.Background(), 5)
		} else {
			err = loader.LoadNextPage(context.Background(), 5)
		}
		require.Error(t, err, kind.String())

		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, kind, loadErr.Kind)
		assert.ErrorIs(t, err, spaceflight.ErrMalformedResponse)
		assert.Equal(t, 0, store.Len())
	}
}

func TestLoader_InFlightGuard(t *testing.T) {
	src := newFakeSource(40)
	store := NewStore()
	loader := NewLoader(src, store, 12)
	ctx := context.Background()
	require.NoError(t, loader.LoadFirstPage(ctx, 12))

	src.block()
	entered := src.entered
	done := make(chan error, 1)
	go func() { done <- loader.LoadNextPage(ctx, 12) }()
	<-entered

	assert.Equal(t, StateLoading, loader.State(KindNext))
	assert.True(t, loader.Loading())

	err := loader.LoadNextPage(ctx, 12)
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, 2, src.callCount(), "suppressed call must not reach the source")

	src.release()
	require.NoError(t, <-done)
	assert.Equal(t, 24, store.Len())
	assert.Equal(t, StateIdle, loader.State(KindNext))
	assert.False(t, loader.Loading())
}

func TestLoader_NextSuppressedDuringInitial(t *testing.T) {
	src := newFakeSource(40)
	loader := NewLoader(src, NewStore(), 12)
	ctx := context.Background()

	src.block()
	entered := src.entered
	done := make(chan error, 1)
	go func() { done <- loader.LoadFirstPage(ctx, 12) }()
	<-entered

	assert.ErrorIs(t, loader.LoadNextPage(ctx, 12), ErrInFlight)
	assert.ErrorIs(t, loader.LoadFirstPage(ctx, 12), ErrInFlight)
	assert.Equal(t, 1, src.callCount())

	src.release()
	require.NoError(t, <-done)
	assert.Equal(t, 12, loader.Store().Len())
}

func TestLoader_StaleNextPageDiscarded(t *testing.T) {
	src := newFakeSource(40)
	store := NewStore()
	loader := NewLoader(src, store, 12)
	ctx := context.Background()
	require.NoError(t, loader.LoadFirstPage(ctx, 12))

	src.block()
	entered := src.entered
	gate := src.gate
	done := make(chan error, 1)
	go func() { done <- loader.LoadNextPage(ctx, 12) }()
	<-entered

	// reload while the next page is still pending
	src.mu.Lock()
	src.gate, src.entered = nil, nil
	src.mu.Unlock()
	require.NoError(t, loader.LoadFirstPage(ctx, 6))

	close(gate)
	assert.ErrorIs(t, <-done, ErrDiscarded)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(store.Articles()))
}

func TestLoader_CloseDiscardsLateResponse(t *testing.T) {
	src := newFakeSource(40)
	store := NewStore()
	loader := NewLoader(src, store, 12)
	ctx := context.Background()

	src.block()
	entered := src.entered
	done := make(chan error, 1)
	go func() { done <- loader.LoadFirstPage(ctx, 12) }()
	<-entered

	loader.Close()
	src.release()

	assert.ErrorIs(t, <-done, ErrDiscarded)
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, loader.LoadFirstPage(ctx, 12), ErrDiscarded)
	assert.Equal(t, 1, src.callCount())
}

func TestLoader_ContextCancel(t *testing.T) {
	src := newFakeSource(40)
	loader := NewLoader(src, NewStore(), 12)

	src.block()
	entered := src.entered
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loader.LoadFirstPage(ctx, 12) }()
	<-entered
	cancel()

	err := <-done
	assert.ErrorIs(t, err, spaceflight.ErrNetwork)
	assert.Equal(t, StateIdle, loader.State(KindInitial))
}

func TestLoader_Article(t *testing.T) {
	src := newFakeSource(30)
	loader := NewLoader(src, NewStore(), 10)
	ctx := context.Background()
	require.NoError(t, loader.LoadFirstPage(ctx, 10))

	a, err := loader.Article(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Story 3", a.Title)
	assert.Equal(t, 0, src.getCalls, "loaded articles are served from the store")

	a, err = loader.Article(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, "Story 25", a.Title)
	assert.Equal(t, 1, src.getCalls)

	_, err = loader.Article(ctx, 999)
	assert.ErrorIs(t, err, spaceflight.ErrNotFound)
}

func TestLoadError(t *testing.T) {
	inner := fmt.Errorf("%w: boom", spaceflight.ErrNetwork)

	initial := &LoadError{Kind: KindInitial, Err: inner}
	next := &LoadError{Kind: KindNext, Err: inner}

	assert.Contains(t, initial.Error(), "loading articles")
	assert.Contains(t, next.Error(), "loading more articles")
	assert.ErrorIs(t, next, spaceflight.ErrNetwork)
	assert.Equal(t, "initial", KindInitial.String())
	assert.Equal(t, "next", KindNext.String())
}
