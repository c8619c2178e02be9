// Package delta classifies tracked spans across two fingerprint snapshots as
// added, removed, modified, moved, or unresolvable. Per-span failures are
// isolated so one malformed record cannot abort the whole diff.
package delta

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/scenetrack/internal/anchor"
	"git.home.luguber.info/inful/scenetrack/internal/fingerprint"
	"git.home.luguber.info/inful/scenetrack/internal/metrics"
	"git.home.luguber.info/inful/scenetrack/internal/util/sets"
)

// Engine composes two fingerprint collections with the anchor resolver.
type Engine struct {
	resolver *anchor.Resolver
	rec      metrics.Recorder
	workers  int
}

type Option func(*Engine)

// WithRecorder installs a metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(e *Engine) {
		if rec != nil {
			e.rec = rec
		}
	}
}

// WithWorkers bounds parallel per-span resolution. Resolution for distinct
// spans shares no mutable state; the limit is an explicit engine-local
// setting, never process-wide.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func NewEngine(resolver *anchor.Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		rec:      metrics.NoopRecorder{},
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type candidate struct {
	id         string
	prev, curr *fingerprint.Fingerprint
}

type outcome struct {
	moved      *Moved
	modified   *Modified
	unresolved *Unresolved
}

// Diff classifies every span id present in either collection. currentText is
// optional; without it, position changes are reported from raw offsets with
// tier 0 and zero confidence. The returned report is always complete: a
// failing span becomes an unresolved entry, never an error.
func (e *Engine) Diff(ctx context.Context, prev, curr *fingerprint.Collection, currentText string) *Report {
	started := time.Now()
	// Slices start non-nil so an empty report serializes as [] and not null.
	report := &Report{
		Added:      []string{},
		Removed:    []string{},
		Modified:   []Modified{},
		Moved:      []Moved{},
		Unresolved: []Unresolved{},
	}
	if curr == nil {
		curr = &fingerprint.Collection{}
	}

	var cands []candidate
	if prev == nil {
		for id := range curr.Spans {
			report.Added = append(report.Added, id)
		}
	} else {
		ids := sets.New[string]()
		for id := range prev.Spans {
			ids.Add(id)
		}
		for id := range curr.Spans {
			ids.Add(id)
		}

		for id := range ids {
			pf, inPrev := prev.Spans[id]
			cf, inCurr := curr.Spans[id]
			switch {
			case !inPrev:
				report.Added = append(report.Added, id)
			case !inCurr:
				report.Removed = append(report.Removed, id)
			case pf.SHA == cf.SHA && pf.Offset == cf.Offset:
				// Truly unchanged; omitted from the report.
			default:
				cands = append(cands, candidate{id: id, prev: pf, curr: cf})
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].id < cands[j].id })

	results := make([]outcome, len(cands))
	if currentText != "" && e.workers > 1 && len(cands) > 1 {
		g := new(errgroup.Group)
		g.SetLimit(e.workers)
		for i := range cands {
			g.Go(func() error {
				results[i] = e.classify(cands[i], currentText, ctx.Err() == nil)
				return nil
			})
		}
		_ = g.Wait() // classify never returns an error
	} else {
		for i := range cands {
			results[i] = e.classify(cands[i], currentText, ctx.Err() == nil)
		}
	}

	for _, res := range results {
		switch {
		case res.moved != nil:
			report.Moved = append(report.Moved, *res.moved)
		case res.modified != nil:
			report.Modified = append(report.Modified, *res.modified)
		case res.unresolved != nil:
			report.Unresolved = append(report.Unresolved, *res.unresolved)
		}
	}

	sort.Strings(report.Added)
	sort.Strings(report.Removed)
	sort.Slice(report.Modified, func(i, j int) bool { return report.Modified[i].ID < report.Modified[j].ID })
	sort.Slice(report.Moved, func(i, j int) bool { return report.Moved[i].ID < report.Moved[j].ID })
	sort.Slice(report.Unresolved, func(i, j int) bool { return report.Unresolved[i].ID < report.Unresolved[j].ID })

	e.rec.ObserveDiffDuration(time.Since(started))
	e.rec.AddDeltaCategory("added", len(report.Added))
	e.rec.AddDeltaCategory("removed", len(report.Removed))
	e.rec.AddDeltaCategory("modified", len(report.Modified))
	e.rec.AddDeltaCategory("moved", len(report.Moved))
	e.rec.AddDeltaCategory("unresolved", len(report.Unresolved))

	return report
}

// classify decides one candidate. When currentText is missing (or the context
// was canceled mid-diff) it degrades to the raw-offset tier-0 form so the
// report stays complete.
func (e *Engine) classify(c candidate, currentText string, allowResolve bool) outcome {
	contentSame := c.prev.SHA == c.curr.SHA

	if currentText == "" || !allowResolve {
		if contentSame {
			return outcome{moved: &Moved{ID: c.id, From: c.prev.Offset, To: c.curr.Offset}}
		}
		return outcome{modified: &Modified{ID: c.id, Position: c.curr.Offset}}
	}

	m, err := e.resolve(c.prev, currentText)
	if err != nil {
		e.rec.IncResolveOutcome("exception")
		return outcome{unresolved: &Unresolved{ID: c.id, PriorOffset: c.prev.Offset, Reason: ReasonException}}
	}
	if m == nil {
		e.rec.IncResolveOutcome("no-match")
		return outcome{unresolved: &Unresolved{ID: c.id, PriorOffset: c.prev.Offset, Reason: ReasonResolutionFailed}}
	}
	e.rec.IncResolveTier(m.Tier)

	if contentSame {
		return outcome{moved: &Moved{ID: c.id, From: c.prev.Offset, To: m.Position, Tier: m.Tier, Confidence: m.Confidence}}
	}
	return outcome{modified: &Modified{ID: c.id, Position: m.Position, Tier: m.Tier, Confidence: m.Confidence}}
}

// resolve shields the engine from a panicking resolver; a panic is treated
// like a malformed-fingerprint error.
func (e *Engine) resolve(fp *fingerprint.Fingerprint, doc string) (m *anchor.Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("anchor resolver panic: %v", r)
		}
	}()
	return e.resolver.Resolve(fp, doc)
}
