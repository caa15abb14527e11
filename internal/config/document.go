package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// document mirrors Config with durations spelled as strings, which is the
// form Load accepts back.
type document struct {
	API   apiDocument `toml:"api"`
	Log   LogConfig   `toml:"log"`
	UI    uiDocument  `toml:"ui"`
	Media MediaConfig `toml:"media"`
	Keys  KeyConfig   `toml:"keys"`
}

type apiDocument struct {
	BaseURL            string `toml:"base_url"`
	Timeout            string `toml:"timeout"`
	PageSize           int    `toml:"page_size"`
	MinRequestInterval string `toml:"min_request_interval"`
	UserAgent          string `toml:"user_agent"`
	AllowLocal         bool   `toml:"allow_local"`
}

type uiDocument struct {
	SearchDebounce string        `toml:"search_debounce"`
	Colors         UIColors      `toml:"colors"`
	Article        ArticleConfig `toml:"article"`
}

func newDocument(cfg *Config) document {
	return document{
		API: apiDocument{
			BaseURL:            cfg.API.BaseURL,
			Timeout:            cfg.API.Timeout.String(),
			PageSize:           cfg.API.PageSize,
			MinRequestInterval: cfg.API.MinRequestInterval.String(),
			UserAgent:          cfg.API.UserAgent,
			AllowLocal:         cfg.API.AllowLocal,
		},
		Log: cfg.Log,
		UI: uiDocument{
			SearchDebounce: cfg.UI.SearchDebounce.String(),
			Colors:         cfg.UI.Colors,
			Article:        cfg.UI.Article,
		},
		Media: cfg.Media,
		Keys:  cfg.Keys,
	}
}

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(newDocument(cfg))
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}
