package spaceflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.spaceflightnewsapi.net/v4"
	DefaultUserAgent = "spacedeck/1.0 (github.com/pders01/spacedeck)"

	defaultRetryAfter = 30 * time.Second
	maxRetryAfter     = 5 * time.Minute
)

type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter

	mu        sync.Mutex
	notBefore time.Time
}

// Option tweaks a Client at construction time.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMinInterval spaces outgoing requests at least d apart. Zero disables pacing.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListArticles requests the articles in [offset, offset+limit).
func (c *Client) ListArticles(ctx context.Context, limit, offset int) (*Page, error) {
	if limit < 1 {
		limit = 12
	}
	if offset < 0 {
		offset = 0
	}

	q := make(url.Values)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	body, err := c.get(ctx, "/articles/?"+q.Encode(), "list articles")
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: list articles endpoint returned 404", ErrNetwork)
	}
	if err != nil {
		return nil, err
	}

	var payload pagePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode articles page: %v", ErrMalformedResponse, err)
	}
	if payload.Results == nil {
		return nil, fmt.Errorf("%w: articles page has no results field", ErrMalformedResponse)
	}
	if payload.Count == nil {
		return nil, fmt.Errorf("%w: articles page has no count field", ErrMalformedResponse)
	}

	page := &Page{Results: *payload.Results, Count: *payload.Count}
	if payload.Next != nil {
		page.Next = *payload.Next
	}
	if payload.Previous != nil {
		page.Previous = *payload.Previous
	}
	return page, nil
}

// GetArticle fetches a single article. ErrNotFound is returned for unknown ids.
func (c *Client) GetArticle(ctx context.Context, id int64) (*Article, error) {
	body, err := c.get(ctx, "/articles/"+strconv.FormatInt(id, 10)+"/", "get article")
	if err != nil {
		return nil, err
	}

	var article Article
	if err := json.Unmarshal(body, &article); err != nil {
		return nil, fmt.Errorf("%w: decode article %d: %v", ErrMalformedResponse, id, err)
	}
	if article.ID == 0 {
		return nil, fmt.Errorf("%w: article %d has no id", ErrMalformedResponse, id)
	}
	return &article, nil
}

func (c *Client) get(ctx context.Context, path, what string) ([]byte, error) {
	if err := c.waitBackoff(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNetwork, what, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: rate limiter: %w", ErrNetwork, what, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %w", ErrNetwork, what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		wait := retryAfter(resp.Header.Get("Retry-After"), time.Now())
		c.backoff(wait)
		return nil, fmt.Errorf("%w: %s was rate limited, retry in %s", ErrNetwork, what, wait)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s failed with status %d: %s", ErrNetwork, what, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", ErrNetwork, what, err)
	}
	return body, nil
}

// backoff holds every request until d has passed.
func (c *Client) backoff(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if until := time.Now().Add(d); until.After(c.notBefore) {
		c.notBefore = until
	}
}

func (c *Client) waitBackoff(ctx context.Context) error {
	c.mu.Lock()
	wait := time.Until(c.notBefore)
	c.mu.Unlock()
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryAfter reads a Retry-After header given either as seconds or as an
// HTTP date.
func retryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return defaultRetryAfter
	}

	var d time.Duration
	if seconds, err := strconv.Atoi(header); err == nil {
		d = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(header); err == nil {
		d = at.Sub(now)
	} else {
		return defaultRetryAfter
	}

	switch {
	case d < 0:
		return 0
	case d > maxRetryAfter:
		return maxRetryAfter
	}
	return d
}
