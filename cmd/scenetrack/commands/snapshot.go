package commands

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/scenetrack/internal/fingerprint"
	"git.home.luguber.info/inful/scenetrack/internal/logfields"
	"git.home.luguber.info/inful/scenetrack/internal/segment"
	"git.home.luguber.info/inful/scenetrack/internal/store"
)

// SnapshotCmd implements the 'snapshot' command.
type SnapshotCmd struct {
	Manuscript string `arg:"" optional:"" help:"Manuscript path (overrides config)"`
}

func (s *SnapshotCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, s.Manuscript)
	if err != nil {
		return err
	}

	content, err := readManuscript(cfg.Manuscript)
	if err != nil {
		return err
	}

	scenes, err := segment.Segment(content)
	if err != nil {
		return err
	}

	coll, err := fingerprint.Build(content, segment.Spans(scenes), time.Now())
	if err != nil {
		return err
	}

	snap := store.NewSnapshotStore(cfg.Snapshot)
	if err := snap.Save(coll); err != nil {
		return err
	}

	slog.Info("Baseline written",
		logfields.Path(snap.Path()),
		logfields.Count(len(coll.Spans)),
		logfields.Checksum(coll.DocumentChecksum))
	return nil
}
