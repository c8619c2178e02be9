package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/scenetrack/internal/config"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"scenetrack.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Snapshot SnapshotCmd `cmd:"" help:"Fingerprint the manuscript and persist it as the new baseline"`
	Diff     DiffCmd     `cmd:"" help:"Diff the manuscript against the persisted baseline"`
	Scenes   ScenesCmd   `cmd:"" help:"List the scenes segmented from the manuscript"`
	Search   SearchCmd   `cmd:"" help:"Search scenes by word overlap"`
	Watch    WatchCmd    `cmd:"" help:"Watch the manuscript and report deltas on every save"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the config file named by the root flag and applies the
// manuscript override from a positional argument, when given.
func loadConfig(root *CLI, manuscriptOverride string) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if manuscriptOverride != "" {
		cfg.Manuscript = manuscriptOverride
	}
	if cfg.Manuscript == "" {
		return nil, fmt.Errorf("no manuscript given: pass a path or set manuscript in %s", root.Config)
	}
	return cfg, nil
}

func readManuscript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read manuscript: %w", err)
	}
	return string(data), nil
}
