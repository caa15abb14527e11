package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/spacedeck/internal/validation"
)

type Config struct {
	API   APIConfig   `mapstructure:"api" toml:"api"`
	Log   LogConfig   `mapstructure:"log" toml:"log"`
	UI    UIConfig    `mapstructure:"ui" toml:"ui"`
	Media MediaConfig `mapstructure:"media" toml:"media"`
	Keys  KeyConfig   `mapstructure:"keys" toml:"keys"`
}

type APIConfig struct {
	BaseURL            string        `mapstructure:"base_url" toml:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout" toml:"timeout"`
	PageSize           int           `mapstructure:"page_size" toml:"page_size"`
	MinRequestInterval time.Duration `mapstructure:"min_request_interval" toml:"min_request_interval"`
	UserAgent          string        `mapstructure:"user_agent" toml:"user_agent"`
	AllowLocal         bool          `mapstructure:"allow_local" toml:"allow_local"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

type UIConfig struct {
	Colors         UIColors      `mapstructure:"colors" toml:"colors"`
	Article        ArticleConfig `mapstructure:"article" toml:"article"`
	SearchDebounce time.Duration `mapstructure:"search_debounce" toml:"search_debounce"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary" toml:"primary"`
	Secondary string `mapstructure:"secondary" toml:"secondary"`
	Accent    string `mapstructure:"accent" toml:"accent"`
	Highlight string `mapstructure:"highlight" toml:"highlight"`
	Text      string `mapstructure:"text" toml:"text"`
	Muted     string `mapstructure:"muted" toml:"muted"`
	Error     string `mapstructure:"error" toml:"error"`
	Success   string `mapstructure:"success" toml:"success"`
}

type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length" toml:"max_description_length"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width" toml:"word_wrap_max_width"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width" toml:"word_wrap_min_width"`
}

type MediaConfig struct {
	Darwin        Openers `mapstructure:"darwin" toml:"darwin"`
	Linux         Openers `mapstructure:"linux" toml:"linux"`
	Windows       Openers `mapstructure:"windows" toml:"windows"`
	DefaultOpener string  `mapstructure:"default_opener" toml:"default_opener"`
}

type Openers struct {
	Browser []string `mapstructure:"browser" toml:"browser"`
	Image   []string `mapstructure:"image" toml:"image"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier" toml:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings" toml:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit" toml:"quit"`
	Search    string `mapstructure:"search" toml:"search"`
	LoadMore  string `mapstructure:"load_more" toml:"load_more"`
	Reload    string `mapstructure:"reload" toml:"reload"`
	OpenURL   string `mapstructure:"open_url" toml:"open_url"`
	OpenImage string `mapstructure:"open_image" toml:"open_image"`
	Back      string `mapstructure:"back" toml:"back"`
	Help      string `mapstructure:"help" toml:"help"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL:            "https://api.spaceflightnewsapi.net/v4",
			Timeout:            15 * time.Second,
			PageSize:           12,
			MinRequestInterval: 250 * time.Millisecond,
			UserAgent:          "spacedeck/1.0 (https://github.com/pders01/spacedeck)",
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".spacedeck", "spacedeck.log"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Highlight: "#FFE66D",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
			Article: ArticleConfig{
				MaxDescriptionLength: 100,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
			SearchDebounce: 150 * time.Millisecond,
		},
		Media: MediaConfig{
			Darwin: Openers{
				Browser: []string{"open"},
				Image:   []string{"qlmanage", "open"},
			},
			Linux: Openers{
				Browser: []string{"xdg-open", "firefox", "chromium"},
				Image:   []string{"sxiv", "feh", "eog", "xdg-open"},
			},
			Windows: Openers{
				Browser: []string{"explorer"},
				Image:   []string{"explorer"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:      "q",
				Search:    "s",
				LoadMore:  "l",
				Reload:    "r",
				OpenURL:   "o",
				OpenImage: "p",
				Back:      "esc",
				Help:      "?",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "explorer"
	default:
		return "open"
	}
}

// DefaultPath is the config file location used when none is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "spacedeck", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SPACEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every leaf key so a config file that sets only part
// of a section keeps the remaining defaults, and env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.min_request_interval", cfg.API.MinRequestInterval)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.allow_local", cfg.API.AllowLocal)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)

	v.SetDefault("ui.colors.primary", cfg.UI.Colors.Primary)
	v.SetDefault("ui.colors.secondary", cfg.UI.Colors.Secondary)
	v.SetDefault("ui.colors.accent", cfg.UI.Colors.Accent)
	v.SetDefault("ui.colors.highlight", cfg.UI.Colors.Highlight)
	v.SetDefault("ui.colors.text", cfg.UI.Colors.Text)
	v.SetDefault("ui.colors.muted", cfg.UI.Colors.Muted)
	v.SetDefault("ui.colors.error", cfg.UI.Colors.Error)
	v.SetDefault("ui.colors.success", cfg.UI.Colors.Success)
	v.SetDefault("ui.article.max_description_length", cfg.UI.Article.MaxDescriptionLength)
	v.SetDefault("ui.article.word_wrap_max_width", cfg.UI.Article.WordWrapMaxWidth)
	v.SetDefault("ui.article.word_wrap_min_width", cfg.UI.Article.WordWrapMinWidth)
	v.SetDefault("ui.search_debounce", cfg.UI.SearchDebounce)

	for os, openers := range map[string]Openers{
		"darwin":  cfg.Media.Darwin,
		"linux":   cfg.Media.Linux,
		"windows": cfg.Media.Windows,
	} {
		v.SetDefault("media."+os+".browser", openers.Browser)
		v.SetDefault("media."+os+".image", openers.Image)
	}
	v.SetDefault("media.default_opener", cfg.Media.DefaultOpener)

	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	v.SetDefault("keys.bindings.quit", cfg.Keys.Bindings.Quit)
	v.SetDefault("keys.bindings.search", cfg.Keys.Bindings.Search)
	v.SetDefault("keys.bindings.load_more", cfg.Keys.Bindings.LoadMore)
	v.SetDefault("keys.bindings.reload", cfg.Keys.Bindings.Reload)
	v.SetDefault("keys.bindings.open_url", cfg.Keys.Bindings.OpenURL)
	v.SetDefault("keys.bindings.open_image", cfg.Keys.Bindings.OpenImage)
	v.SetDefault("keys.bindings.back", cfg.Keys.Bindings.Back)
	v.SetDefault("keys.bindings.help", cfg.Keys.Bindings.Help)
}

// Validate checks values that would otherwise fail late, at request time.
func (c *Config) Validate() error {
	validator := validation.NewAPIURLValidator()
	if c.API.AllowLocal {
		validator = validation.NewPermissiveAPIURLValidator()
	}
	normalized, err := validator.ValidateAndNormalize(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	c.API.BaseURL = normalized

	if c.API.PageSize < 1 {
		return fmt.Errorf("api.page_size must be positive, got %d", c.API.PageSize)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.MinRequestInterval < 0 {
		return fmt.Errorf("api.min_request_interval must not be negative, got %s", c.API.MinRequestInterval)
	}

	if c.Log.File != "" {
		logFile, err := validation.NewFilePathValidator().ValidateFile(c.Log.File)
		if err != nil {
			return fmt.Errorf("log.file: %w", err)
		}
		c.Log.File = logFile
	}
	return nil
}

func Save(config *Config, path string) error {
	data, err := Marshal(config)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
