package feed

import (
	"sync"

	"github.com/pders01/spacedeck/internal/debuglog"
	"github.com/pders01/spacedeck/internal/search"
	"github.com/pders01/spacedeck/internal/spaceflight"
)

// Store holds the articles loaded during one browsing session together with
// the current search query and the total the server reported. Create one per
// session and hand it to the Loader and the views.
type Store struct {
	mu       sync.RWMutex
	articles []spaceflight.Article
	index    map[int64]int
	query    string
	total    int

	// version changes on every collection mutation; the filtered view is
	// cached against (version, query).
	version     uint64
	cached      []spaceflight.Article
	cachedValid bool
	cachedFor   uint64
	cachedQuery string
}

func NewStore() *Store {
	return &Store{index: make(map[int64]int)}
}

// ReplaceAll discards everything loaded so far and keeps only page's articles.
func (s *Store) ReplaceAll(page *spaceflight.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.articles = make([]spaceflight.Article, 0, len(page.Results))
	s.index = make(map[int64]int, len(page.Results))
	s.appendLocked(page.Results)
	s.total = page.Count
	s.version++
}

// Append adds page's articles after the ones already loaded and takes over
// the page's total. Articles whose id is already present are skipped.
func (s *Store) Append(page *spaceflight.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(page.Results)
	s.total = page.Count
	s.version++
}

func (s *Store) appendLocked(results []spaceflight.Article) {
	for _, a := range results {
		if _, dup := s.index[a.ID]; dup {
			debuglog.WithFields(map[string]interface{}{"id": a.ID}).Debugf("skipping duplicate article")
			continue
		}
		s.index[a.ID] = len(s.articles)
		s.articles = append(s.articles, a)
	}
}

// SetSearchQuery replaces the query. The article collection is not touched.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Tokens returns the keywords of the current query.
func (s *Store) Tokens() []string {
	return search.Tokenize(s.Query())
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// HasMore reports whether the server has more articles than are loaded.
func (s *Store) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles) < s.total
}

// Articles returns a copy of the loaded articles in arrival order.
func (s *Store) Articles() []spaceflight.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]spaceflight.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// Find looks up a loaded article by id.
func (s *Store) Find(id int64) (spaceflight.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return spaceflight.Article{}, false
	}
	return s.articles[i], true
}

// FilteredView returns the loaded articles that match the current query,
// title matches first. With an empty query it is the full collection in
// arrival order.
func (s *Store) FilteredView() []spaceflight.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cachedValid || s.cachedFor != s.version || s.cachedQuery != s.query {
		tokens := search.Tokenize(s.query)
		included := make([]spaceflight.Article, 0, len(s.articles))
		for _, a := range s.articles {
			if search.Matches(a, tokens) {
				included = append(included, a)
			}
		}
		s.cached = search.Rank(included, tokens)
		s.cachedFor = s.version
		s.cachedQuery = s.query
		s.cachedValid = true
	}

	out := make([]spaceflight.Article, len(s.cached))
	copy(out, s.cached)
	return out
}
