package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/scenetrack/internal/config"
	"git.home.luguber.info/inful/scenetrack/internal/delta"
	"git.home.luguber.info/inful/scenetrack/internal/fingerprint"
	"git.home.luguber.info/inful/scenetrack/internal/logfields"
	"git.home.luguber.info/inful/scenetrack/internal/metrics"
	"git.home.luguber.info/inful/scenetrack/internal/store"
	"git.home.luguber.info/inful/scenetrack/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Manuscript string        `arg:"" optional:"" help:"Manuscript path (overrides config)"`
	Interval   time.Duration `help:"Polling fallback interval for filesystems without change events (overrides config, 0 disables)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.Manuscript)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The in-memory baseline keeps span text and shingles, so the fuzzy and
	// shingle tiers stay available between saves. The persisted baseline only
	// carries the durable fields.
	content, err := readManuscript(cfg.Manuscript)
	if err != nil {
		return err
	}
	prev, err := analyze(content)
	if err != nil {
		return err
	}

	snap := store.NewSnapshotStore(cfg.Snapshot)
	if err := snap.Save(prev); err != nil {
		return err
	}
	slog.Info("Watch baseline established",
		logfields.Path(cfg.Manuscript),
		logfields.Count(len(prev.Spans)),
		logfields.Checksum(prev.DocumentChecksum))

	rec := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	engine := newEngine(cfg, delta.WithRecorder(rec))

	var mu sync.Mutex
	onChange := func(ctx context.Context) {
		mu.Lock()
		defer mu.Unlock()
		prev = w.reanalyze(ctx, cfg, engine, rec, snap, prev)
	}

	watcher, err := watch.NewWatcher(cfg.Manuscript, cfg.Watch.Debounce.Std(), onChange)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()

	interval := cfg.Watch.Interval.Std()
	if w.Interval > 0 {
		interval = w.Interval
	}
	if interval > 0 {
		sched, err := watch.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.SchedulePoll(interval, watcher.Trigger); err != nil {
			return err
		}
		sched.Start(ctx)
		defer func() { _ = sched.Stop() }()
	}

	<-ctx.Done()
	slog.Info("Watch stopped")
	return nil
}

// reanalyze diffs the manuscript against the in-memory baseline and returns
// the new baseline. On any failure it reports and keeps the old baseline, so
// a half-written save never poisons the watch loop.
func (w *WatchCmd) reanalyze(ctx context.Context, cfg *config.Config, engine *delta.Engine, rec metrics.Recorder, snap *store.SnapshotStore, prev *fingerprint.Collection) *fingerprint.Collection {
	content, err := readManuscript(cfg.Manuscript)
	if err != nil {
		slog.Warn("Manuscript unreadable, keeping previous baseline", logfields.Error(err))
		return prev
	}

	started := time.Now()
	curr, err := analyze(content)
	if err != nil {
		slog.Warn("Analysis failed, keeping previous baseline", logfields.Error(err))
		return prev
	}
	rec.ObserveSnapshotDuration(time.Since(started))

	report := engine.Diff(ctx, prev, curr, content)
	if report.Empty() {
		slog.Debug("Manuscript saved with no scene changes", logfields.Checksum(curr.DocumentChecksum))
	} else {
		_ = writeReport(os.Stdout, report, "text")
		slog.Info("Scene delta",
			logfields.Count(report.Total()),
			logfields.Checksum(curr.DocumentChecksum))
	}

	if err := recordHistory(cfg, prev, curr, content, report); err != nil {
		slog.Warn("Failed to record diff history", logfields.Error(err))
	}
	if err := snap.Save(curr); err != nil {
		slog.Warn("Failed to persist baseline", logfields.Error(err))
	}
	return curr
}
