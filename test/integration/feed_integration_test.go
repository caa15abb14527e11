package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pders01/spacedeck/internal/config"
	"github.com/pders01/spacedeck/internal/feed"
	"github.com/pders01/spacedeck/internal/search"
	"github.com/pders01/spacedeck/internal/spaceflight"
)

const totalArticles = 40

var (
	server *httptest.Server

	requestsMu sync.Mutex
	requests   []*http.Request
)

func TestMain(m *testing.M) {
	server = httptest.NewServer(newMux())
	code := m.Run()
	server.Close()
	os.Exit(code)
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/articles/", serveArticles)
	mux.HandleFunc("/broken/articles/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count": 3, "results": [{"id": 1, "title": `)
	})
	mux.HandleFunc("/down/articles/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	return mux
}

func fixtureArticle(id int) map[string]any {
	title := fmt.Sprintf("Orbital update %d", id)
	if id%4 == 0 {
		title = fmt.Sprintf("Launch window opens for mission %d", id)
	}
	summary := "Station crew routine."
	if id%5 == 1 {
		summary = "Teams prepare the next launch campaign."
	}
	return map[string]any{
		"id":           id,
		"title":        title,
		"summary":      summary,
		"url":          "https://news.example.org/" + strconv.Itoa(id),
		"image_url":    "https://news.example.org/" + strconv.Itoa(id) + ".png",
		"news_site":    "Fixture Wire",
		"published_at": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour).Format(time.RFC3339),
		"launches":     []any{map[string]any{"launch_id": "abc-" + strconv.Itoa(id), "provider": "Launch Library 2"}},
	}
}

func serveArticles(w http.ResponseWriter, r *http.Request) {
	requestsMu.Lock()
	requests = append(requests, r.Clone(context.Background()))
	requestsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v4/articles/"), "/"); rest != "" {
		id, err := strconv.Atoi(rest)
		if err != nil || id < 1 || id > totalArticles {
			http.Error(w, `{"detail":"No Article matches the given query."}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(fixtureArticle(id))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	results := []map[string]any{}
	for id := offset + 1; id <= offset+limit && id <= totalArticles; id++ {
		results = append(results, fixtureArticle(id))
	}

	var next any
	if offset+limit < totalArticles {
		next = fmt.Sprintf("%s/v4/articles/?limit=%d&offset=%d", server.URL, limit, offset+limit)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"count":    totalArticles,
		"next":     next,
		"previous": nil,
		"results":  results,
	})
}

func lastRequest(t *testing.T) *http.Request {
	t.Helper()
	requestsMu.Lock()
	defer requestsMu.Unlock()
	if len(requests) == 0 {
		t.Fatal("no request reached the server")
	}
	return requests[len(requests)-1]
}

// setupTestEnvironment loads a config file pointing at the fixture server
// and wires the client, store and loader the way the app does.
func setupTestEnvironment(t *testing.T, path string) (*feed.Loader, *config.Config) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := fmt.Sprintf("[api]\nbase_url = %q\nallow_local = true\nmin_request_interval = \"0s\"\n", server.URL+path)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	client := spaceflight.NewClient(
		cfg.API.BaseURL,
		&http.Client{Timeout: cfg.API.Timeout},
		spaceflight.WithUserAgent(cfg.API.UserAgent),
		spaceflight.WithMinInterval(cfg.API.MinRequestInterval),
	)
	loader := feed.NewLoader(client, feed.NewStore(), cfg.API.PageSize)
	t.Cleanup(loader.Close)
	return loader, cfg
}

func TestIntegration_LaunchScenario(t *testing.T) {
	loader, cfg := setupTestEnvironment(t, "/v4")
	ctx := context.Background()

	if err := loader.LoadFirstPage(ctx, 0); err != nil {
		t.Fatalf("LoadFirstPage() error = %v", err)
	}
	if err := loader.LoadNextPage(ctx, 0); err != nil {
		t.Fatalf("LoadNextPage() error = %v", err)
	}

	store := loader.Store()
	if store.Len() != 2*cfg.API.PageSize {
		t.Fatalf("loaded %d articles, want %d", store.Len(), 2*cfg.API.PageSize)
	}
	if store.Total() != totalArticles || !store.HasMore() {
		t.Errorf("Total() = %d HasMore() = %v, want %d and true", store.Total(), store.HasMore(), totalArticles)
	}

	store.SetSearchQuery("launch")
	view := store.FilteredView()
	if len(view) == 0 {
		t.Fatal("expected matches for launch")
	}

	tokens := store.Tokens()
	seenSummaryOnly := false
	for _, a := range view {
		inTitle := search.ContainsAny(a.Title, tokens)
		if !inTitle && !search.ContainsAny(a.Summary, tokens) {
			t.Errorf("article %d does not mention launch", a.ID)
		}
		if !inTitle {
			seenSummaryOnly = true
		} else if seenSummaryOnly {
			t.Errorf("title match %d ranked after a summary-only match", a.ID)
		}
	}

	if got := lastRequest(t).URL.Query().Get("offset"); got != strconv.Itoa(cfg.API.PageSize) {
		t.Errorf("next page offset = %s, want %d", got, cfg.API.PageSize)
	}
}

func TestIntegration_LoadUntilExhausted(t *testing.T) {
	loader, _ := setupTestEnvironment(t, "/v4")
	ctx := context.Background()

	if err := loader.LoadFirstPage(ctx, 15); err != nil {
		t.Fatal(err)
	}
	for loader.HasMore() {
		if err := loader.LoadNextPage(ctx, 15); err != nil {
			t.Fatal(err)
		}
	}

	articles := loader.Store().Articles()
	if len(articles) != totalArticles {
		t.Fatalf("loaded %d articles, want %d", len(articles), totalArticles)
	}
	for i, a := range articles {
		if a.ID != int64(i+1) {
			t.Fatalf("article %d has id %d, want load order", i, a.ID)
		}
	}
	if _, ok := articles[0].Extra["launches"]; !ok {
		t.Error("unknown fields should be kept on the article")
	}
}

func TestIntegration_RequestHeaders(t *testing.T) {
	loader, cfg := setupTestEnvironment(t, "/v4")

	if err := loader.LoadFirstPage(context.Background(), 3); err != nil {
		t.Fatal(err)
	}

	req := lastRequest(t)
	if got := req.Header.Get("User-Agent"); got != cfg.API.UserAgent {
		t.Errorf("User-Agent = %q, want %q", got, cfg.API.UserAgent)
	}
	if got := req.URL.Query().Get("limit"); got != "3" {
		t.Errorf("limit = %s, want 3", got)
	}
}

func TestIntegration_ArticleLookup(t *testing.T) {
	loader, _ := setupTestEnvironment(t, "/v4")
	ctx := context.Background()

	a, err := loader.Article(ctx, 17)
	if err != nil {
		t.Fatalf("Article() error = %v", err)
	}
	if a.Title != "Orbital update 17" {
		t.Errorf("Title = %q", a.Title)
	}

	_, err = loader.Article(ctx, 4040)
	if !errors.Is(err, spaceflight.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIntegration_FailuresLeaveStoreEmpty(t *testing.T) {
	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "truncated body", path: "/broken", want: spaceflight.ErrMalformedResponse},
		{name: "service unavailable", path: "/down", want: spaceflight.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := setupTestEnvironment(t, tt.path)

			err := loader.LoadFirstPage(context.Background(), 0)
			if !errors.Is(err, tt.want) {
				t.Fatalf("LoadFirstPage() error = %v, want %v", err, tt.want)
			}

			var loadErr *feed.LoadError
			if !errors.As(err, &loadErr) || loadErr.Kind != feed.KindInitial {
				t.Errorf("expected an initial-load LoadError, got %T", err)
			}
			if loader.Store().Len() != 0 || loader.Store().Total() != 0 {
				t.Error("store should stay empty after a failed load")
			}
		})
	}
}

func TestIntegration_RequestPacing(t *testing.T) {
	client := spaceflight.NewClient(server.URL+"/v4", nil, spaceflight.WithMinInterval(40*time.Millisecond))
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.ListArticles(ctx, 1, i); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("three paced requests took %v, want at least 70ms", elapsed)
	}
}
