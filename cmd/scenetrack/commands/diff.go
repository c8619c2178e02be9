package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/scenetrack/internal/anchor"
	"git.home.luguber.info/inful/scenetrack/internal/config"
	"git.home.luguber.info/inful/scenetrack/internal/delta"
	"git.home.luguber.info/inful/scenetrack/internal/fingerprint"
	"git.home.luguber.info/inful/scenetrack/internal/logfields"
	"git.home.luguber.info/inful/scenetrack/internal/segment"
	"git.home.luguber.info/inful/scenetrack/internal/store"
)

// DiffCmd implements the 'diff' command.
type DiffCmd struct {
	Manuscript string `arg:"" optional:"" help:"Manuscript path (overrides config)"`
	Format     string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Update     bool   `short:"u" help:"Persist the new fingerprints as the baseline after diffing"`
}

func (d *DiffCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, d.Manuscript)
	if err != nil {
		return err
	}

	snap := store.NewSnapshotStore(cfg.Snapshot)
	prev, err := snap.Load()
	if err != nil {
		return err
	}

	content, err := readManuscript(cfg.Manuscript)
	if err != nil {
		return err
	}

	curr, err := analyze(content)
	if err != nil {
		return err
	}

	report := newEngine(cfg).Diff(context.Background(), prev, curr, content)

	if err := writeReport(os.Stdout, report, d.Format); err != nil {
		return err
	}

	if err := recordHistory(cfg, prev, curr, content, report); err != nil {
		slog.Warn("Failed to record diff history", logfields.Error(err))
	}

	if d.Update {
		if err := snap.Save(curr); err != nil {
			return err
		}
		slog.Info("Baseline updated", logfields.Path(snap.Path()))
	}
	return nil
}

// analyze segments and fingerprints the manuscript in one step.
func analyze(content string) (*fingerprint.Collection, error) {
	scenes, err := segment.Segment(content)
	if err != nil {
		return nil, err
	}
	return fingerprint.Build(content, segment.Spans(scenes), time.Now())
}

func newEngine(cfg *config.Config, opts ...delta.Option) *delta.Engine {
	resolver := anchor.New(anchor.Options{
		Corridor:   cfg.Resolver.Corridor,
		ContextMin: cfg.Resolver.ContextMin,
	})
	opts = append(opts, delta.WithWorkers(cfg.Resolver.Workers))
	return delta.NewEngine(resolver, opts...)
}

func writeReport(w io.Writer, report *delta.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.Empty() {
		_, err := fmt.Fprintln(w, "no changes")
		return err
	}
	for _, id := range report.Added {
		fmt.Fprintf(w, "added      %s\n", id)
	}
	for _, id := range report.Removed {
		fmt.Fprintf(w, "removed    %s\n", id)
	}
	for _, m := range report.Modified {
		fmt.Fprintf(w, "modified   %s at %d (tier %d, confidence %.2f)\n", m.ID, m.Position, m.Tier, m.Confidence)
	}
	for _, m := range report.Moved {
		fmt.Fprintf(w, "moved      %s %d -> %d (tier %d, confidence %.2f)\n", m.ID, m.From, m.To, m.Tier, m.Confidence)
	}
	for _, u := range report.Unresolved {
		fmt.Fprintf(w, "unresolved %s (%s, prior offset %d)\n", u.ID, u.Reason, u.PriorOffset)
	}
	return nil
}

// recordHistory appends the run to the history database when one is configured.
func recordHistory(cfg *config.Config, prev, curr *fingerprint.Collection, content string, report *delta.Report) error {
	if cfg.HistoryDB == "" {
		return nil
	}

	hist, err := store.NewHistoryStore(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	prevChecksum := ""
	if prev != nil {
		prevChecksum = prev.DocumentChecksum
	}
	_, err = hist.Append(context.Background(), store.HistoryEntry{
		Document:        cfg.Manuscript,
		PrevChecksum:    prevChecksum,
		CurrentChecksum: curr.DocumentChecksum,
		ManuscriptPrint: segment.ManuscriptFingerprint(content),
		Report:          report,
	})
	return err
}
