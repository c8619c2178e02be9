// Package store persists fingerprint snapshots and delta history.
//
// The snapshot file is the single JSON baseline the next diff runs against;
// the history database is an append-only log of snapshots and reports.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/scenetrack/internal/fingerprint"
	"git.home.luguber.info/inful/scenetrack/internal/logfields"
)

// DefaultSnapshotPath is the fixed relative location of the baseline file.
const DefaultSnapshotPath = ".scenetrack/fingerprints.json"

// SnapshotStore reads and writes the fingerprint baseline file. An unreadable
// or missing file is treated as "no prior snapshot", never as an error.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	if path == "" {
		path = DefaultSnapshotPath
	}
	return &SnapshotStore{path: path}
}

func (s *SnapshotStore) Path() string { return s.path }

type snapshotFile struct {
	DocumentChecksum string                `json:"documentChecksum"`
	GeneratedAt      string                `json:"generatedAt"`
	Spans            map[string]spanRecord `json:"spans"`
}

type spanRecord struct {
	ID     string `json:"id"`
	SHA    string `json:"sha"`
	Offset int    `json:"offset"`
	Len    int    `json:"len"`
	Pre    string `json:"pre"`
	Post   string `json:"post"`
}

// UnmarshalJSON accepts the legacy aliased field names some older snapshot
// files carry. The aliasing stays here at the ingestion edge; the resolver
// only ever sees the canonical fingerprint type.
func (r *spanRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        string  `json:"id"`
		SHA       string  `json:"sha"`
		Hash      string  `json:"contentHash"`
		Offset    int     `json:"offset"`
		Len       *int    `json:"len"`
		Length    *int    `json:"length"`
		Pre       *string `json:"pre"`
		Preceding *string `json:"precedingContext"`
		Post      *string `json:"post"`
		Following *string `json:"followingContext"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	r.ID = raw.ID
	r.SHA = raw.SHA
	if r.SHA == "" {
		r.SHA = raw.Hash
	}
	r.Offset = raw.Offset
	switch {
	case raw.Len != nil:
		r.Len = *raw.Len
	case raw.Length != nil:
		r.Len = *raw.Length
	}
	if raw.Pre != nil {
		r.Pre = *raw.Pre
	} else if raw.Preceding != nil {
		r.Pre = *raw.Preceding
	}
	if raw.Post != nil {
		r.Post = *raw.Post
	} else if raw.Following != nil {
		r.Post = *raw.Following
	}
	return nil
}

// Load returns the persisted baseline, or (nil, nil) when there is none.
// Corrupt files are logged and treated as a first run.
func (s *SnapshotStore) Load() (*fingerprint.Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Snapshot file unreadable, starting fresh", logfields.Path(s.path), logfields.Error(err))
		}
		return nil, nil
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		slog.Warn("Snapshot file corrupt, starting fresh", logfields.Path(s.path), logfields.Error(err))
		return nil, nil
	}

	generatedAt, err := time.Parse(time.RFC3339, file.GeneratedAt)
	if err != nil {
		generatedAt = time.Time{}
	}

	c := &fingerprint.Collection{
		DocumentChecksum: file.DocumentChecksum,
		GeneratedAt:      generatedAt,
		Spans:            make(map[string]*fingerprint.Fingerprint, len(file.Spans)),
	}
	for id, rec := range file.Spans {
		if rec.ID == "" {
			rec.ID = id
		}
		c.Spans[id] = &fingerprint.Fingerprint{
			ID:     rec.ID,
			SHA:    rec.SHA,
			Offset: rec.Offset,
			Length: rec.Len,
			Pre:    rec.Pre,
			Post:   rec.Post,
		}
	}
	return c, nil
}

// Save atomically replaces the baseline file (write temp, then rename).
func (s *SnapshotStore) Save(c *fingerprint.Collection) error {
	if c == nil {
		return fmt.Errorf("nil collection")
	}

	file := snapshotFile{
		DocumentChecksum: c.DocumentChecksum,
		GeneratedAt:      c.GeneratedAt.UTC().Format(time.RFC3339),
		Spans:            make(map[string]spanRecord, len(c.Spans)),
	}
	for id, fp := range c.Spans {
		file.Spans[id] = spanRecord{
			ID:     fp.ID,
			SHA:    fp.SHA,
			Offset: fp.Offset,
			Len:    fp.Length,
			Pre:    fp.Pre,
			Post:   fp.Post,
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fingerprints-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
