package tui

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/spacedeck/internal/config"
)

func TestShowBanner(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	ShowBanner("1.0.0-test")

	w.Close()
	os.Stdout = old
	out := <-outC

	if !strings.Contains(out, "Spaceflight News Reader") {
		t.Errorf("Expected banner to contain tagline, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "◆") {
		t.Errorf("Expected banner to contain separator symbols, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
}

func TestBannerStringDevVersion(t *testing.T) {
	out := BannerString("dev")
	if strings.Contains(out, "vdev") {
		t.Errorf("dev builds should not get a version tag, got: %s", out)
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "▄▀▀") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestGetWelcomeMessage(t *testing.T) {
	result := GetWelcomeMessage("ctrl+r")

	if !strings.Contains(result, "press ctrl+r to reload") {
		t.Errorf("Expected welcome message to name the reload key, got: %s", result)
	}
}

func TestApplyTheme(t *testing.T) {
	saved := HighlightColor
	savedPrimary := PrimaryColor
	defer func() {
		HighlightColor = saved
		PrimaryColor = savedPrimary
		rebuildStyles()
	}()

	ApplyTheme(config.UIColors{Highlight: "#00FF00"})

	if HighlightColor != lipgloss.Color("#00FF00") {
		t.Errorf("HighlightColor = %v, want #00FF00", HighlightColor)
	}
	if PrimaryColor != savedPrimary {
		t.Errorf("empty entries should keep the current color, got %v", PrimaryColor)
	}
	if HighlightStyle.GetBackground() != lipgloss.Color("#00FF00") {
		t.Errorf("HighlightStyle was not rebuilt")
	}
}

func TestLogoConstants(t *testing.T) {
	if len(LogoLines) != 3 {
		t.Errorf("Expected 3 logo lines, got %d", len(LogoLines))
	}
	if len(BannerColors) != 5 {
		t.Errorf("Expected 5 banner colors, got %d", len(BannerColors))
	}
}
