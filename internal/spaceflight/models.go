package spaceflight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Article is one entry of the Spaceflight News feed. Fields the app does not
// know about are kept in Extra. A decoded article marshals back to the
// object it came from, apart from known fields changed since.
type Article struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	ImageURL    string   `json:"image_url"`
	PublishedAt string   `json:"published_at"`
	UpdatedAt   string   `json:"updated_at"`
	URL         string   `json:"url"`
	NewsSite    string   `json:"news_site"`
	Featured    bool     `json:"featured"`
	Authors     []Author `json:"authors"`

	Extra map[string]json.RawMessage `json:"-"`

	// source holds the raw values of the known keys as decoded.
	source map[string]json.RawMessage
}

type Author struct {
	Name string `json:"name"`
}

// Page is one response of the paginated articles endpoint.
type Page struct {
	Results  []Article
	Count    int
	Next     string
	Previous string
}

// knownFields maps each JSON key to its field. Keys are matched exactly, so
// "Title" ends up in Extra rather than in Title.
var knownFields = []struct {
	key   string
	field func(*Article) any
}{
	{"id", func(a *Article) any { return &a.ID }},
	{"title", func(a *Article) any { return &a.Title }},
	{"summary", func(a *Article) any { return &a.Summary }},
	{"image_url", func(a *Article) any { return &a.ImageURL }},
	{"published_at", func(a *Article) any { return &a.PublishedAt }},
	{"updated_at", func(a *Article) any { return &a.UpdatedAt }},
	{"url", func(a *Article) any { return &a.URL }},
	{"news_site", func(a *Article) any { return &a.NewsSite }},
	{"featured", func(a *Article) any { return &a.Featured }},
	{"authors", func(a *Article) any { return &a.Authors }},
}

func (a *Article) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		// null leaves the article untouched, as encoding/json does
		return nil
	}

	var out Article
	for _, f := range knownFields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.field(&out)); err != nil {
			return fmt.Errorf("field %s: %w", f.key, err)
		}
		if out.source == nil {
			out.source = make(map[string]json.RawMessage, len(knownFields))
		}
		out.source[f.key] = v
		delete(raw, f.key)
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*a = out
	return nil
}

// MarshalJSON writes Extra plus the known fields. A known field keeps its
// source bytes (null included) while its value is unchanged, and a field the
// source did not send is left out while it is still zero.
func (a Article) MarshalJSON() ([]byte, error) {
	merged := make(map[string]json.RawMessage, len(a.Extra)+len(knownFields))
	for k, v := range a.Extra {
		merged[k] = v
	}

	var zero Article
	for _, f := range knownFields {
		current, err := json.Marshal(f.field(&a))
		if err != nil {
			return nil, err
		}

		orig, sent := a.source[f.key]
		switch {
		case sent:
			var decoded Article
			if err := json.Unmarshal(orig, f.field(&decoded)); err == nil {
				if was, err := json.Marshal(f.field(&decoded)); err == nil && bytes.Equal(was, current) {
					current = orig
				}
			}
		case a.source != nil:
			empty, _ := json.Marshal(f.field(&zero))
			if bytes.Equal(empty, current) {
				continue
			}
		}
		merged[f.key] = current
	}
	return json.Marshal(merged)
}

// Published parses PublishedAt. The zero time is returned when the source
// sent something that is not RFC 3339.
func (a Article) Published() time.Time {
	t, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// pagePayload uses pointers so missing fields can be told apart from zero values.
type pagePayload struct {
	Results  *[]Article `json:"results"`
	Count    *int       `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
}
