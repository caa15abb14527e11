package media

import (
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"runtime"
	"strings"

	"github.com/pders01/spacedeck/internal/config"
	"github.com/pders01/spacedeck/internal/debuglog"
	"github.com/pders01/spacedeck/internal/validation"
)

type Type int

const (
	TypePage Type = iota
	TypeImage
)

func (t Type) String() string {
	if t == TypeImage {
		return "image"
	}
	return "page"
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	".bmp": {}, ".svg": {}, ".avif": {},
}

// DetectType classifies a link by the extension of its path. Anything that is
// not recognisably an image is opened as a page.
func DetectType(link string) Type {
	u, err := url.Parse(link)
	if err != nil {
		return TypePage
	}
	if _, ok := imageExtensions[strings.ToLower(path.Ext(u.Path))]; ok {
		return TypeImage
	}
	return TypePage
}

// Launcher opens article pages and images with external programs.
type Launcher struct {
	browser       string
	imageViewer   string
	defaultOpener string

	start func(*exec.Cmd) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	defaultOpener := cfg.Media.DefaultOpener
	if defaultOpener == "" {
		defaultOpener = platformOpener()
	}

	var openers config.Openers
	switch runtime.GOOS {
	case "darwin":
		openers = cfg.Media.Darwin
	case "linux":
		openers = cfg.Media.Linux
	case "windows":
		openers = cfg.Media.Windows
	default:
		openers = cfg.Media.Darwin
	}

	l := &Launcher{
		browser:       findCommand(openers.Browser...),
		imageViewer:   findCommand(openers.Image...),
		defaultOpener: defaultOpener,
		start:         startDetached,
	}
	if l.browser == "" {
		l.browser = defaultOpener
	}
	if l.imageViewer == "" {
		l.imageViewer = defaultOpener
	}
	return l
}

// Command builds the command that would open link, without starting it.
func (l *Launcher) Command(link string) (*exec.Cmd, error) {
	if err := validation.ValidateLink(link); err != nil {
		return nil, fmt.Errorf("refusing to open %q: %w", link, err)
	}

	program := l.browser
	if DetectType(link) == TypeImage {
		program = l.imageViewer
	}
	if program == "" {
		program = l.defaultOpener
	}
	if program == "" {
		return nil, fmt.Errorf("no application found to open URL")
	}

	if program == "qlmanage" {
		return exec.Command(program, "-p", link), nil
	}
	return exec.Command(program, link), nil
}

// Open starts the program for link and returns without waiting for it.
func (l *Launcher) Open(link string) error {
	cmd, err := l.Command(link)
	if err != nil {
		return err
	}

	debuglog.WithFields(map[string]interface{}{
		"program": cmd.Path,
		"type":    DetectType(link).String(),
	}).Infof("opening %s", link)

	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func platformOpener() string {
	switch runtime.GOOS {
	case "linux":
		return "xdg-open"
	case "windows":
		return "explorer"
	default:
		return "open"
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
