package main

import (
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pders01/spacedeck/internal/config"
	"github.com/pders01/spacedeck/internal/debuglog"
	"github.com/pders01/spacedeck/internal/feed"
	"github.com/pders01/spacedeck/internal/spaceflight"
	"github.com/pders01/spacedeck/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

type options struct {
	configPath string
	quiet      bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "spacedeck",
		Short:         "Spaceflight news reader",
		Long:          "spacedeck browses and searches the Spaceflight News feed in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file")
	root.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "skip startup banner")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, off)")

	root.AddCommand(
		newVersionCmd(),
		newGenerateConfigCmd(),
		newConfigCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "spacedeck %s\n", Version)
			fmt.Fprintln(out, "Spaceflight News reader")
			fmt.Fprintln(out, "github.com/pders01/spacedeck")
		},
	}
}

// setup loads configuration and starts logging for a command run.
func setup(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(level), cfg.Log.File); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	debuglog.Infof("config loaded, api %s", cfg.API.BaseURL)

	return cfg, nil
}

func newLoader(cfg *config.Config) *feed.Loader {
	client := spaceflight.NewClient(
		cfg.API.BaseURL,
		&http.Client{Timeout: cfg.API.Timeout},
		spaceflight.WithUserAgent(cfg.API.UserAgent),
		spaceflight.WithMinInterval(cfg.API.MinRequestInterval),
	)
	return feed.NewLoader(client, feed.NewStore(), cfg.API.PageSize)
}

func runTUI(cmd *cobra.Command, opts *options) error {
	cfg, err := setup(opts)
	if err != nil {
		return err
	}
	defer debuglog.Close()

	if !opts.quiet && term.IsTerminal(int(os.Stdout.Fd())) {
		tui.ShowBanner(Version)
	}

	app := tui.NewApp(newLoader(cfg), cfg)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
