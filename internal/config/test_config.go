package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = "http://127.0.0.1:0"
	cfg.API.Timeout = 5 * time.Second
	cfg.API.MinRequestInterval = 0
	cfg.API.UserAgent = "spacedeck-test/1.0"
	cfg.API.AllowLocal = true
	cfg.Log = LogConfig{Level: "off"}
	cfg.UI.SearchDebounce = 0
	return cfg
}
