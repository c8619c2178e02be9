package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/scenetrack/internal/delta"
)

// HistoryEntry is one recorded diff run: the report that was produced and the
// checksums of the documents it compared.
type HistoryEntry struct {
	ID              string
	Document        string
	PrevChecksum    string
	CurrentChecksum string
	ManuscriptPrint string
	RecordedAt      time.Time
	Report          *delta.Report
}

// HistoryStore appends diff reports to a SQLite log so past runs can be
// inspected after the snapshot file has moved on.
type HistoryStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewHistoryStore opens (or creates) the history database.
// Use ":memory:" for an in-memory database.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &HistoryStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *HistoryStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		prev_checksum TEXT NOT NULL,
		current_checksum TEXT NOT NULL,
		manuscript_print TEXT,
		recorded_at INTEGER NOT NULL,
		report BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_document ON runs(document);
	CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records a diff run and returns its generated id.
func (s *HistoryStore) Append(ctx context.Context, entry HistoryEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Report == nil {
		return "", fmt.Errorf("nil report")
	}

	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	reportJSON, err := json.Marshal(entry.Report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO runs (id, document, prev_checksum, current_checksum, manuscript_print, recorded_at, report) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, entry.Document, entry.PrevChecksum, entry.CurrentChecksum, entry.ManuscriptPrint, recordedAt.Unix(), reportJSON,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	return id, nil
}

// ByDocument returns all recorded runs for a document, oldest first.
func (s *HistoryStore) ByDocument(ctx context.Context, document string) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document, prev_checksum, current_checksum, manuscript_print, recorded_at, report FROM runs WHERE document = ? ORDER BY recorded_at, id",
		document,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return s.scanRuns(rows)
}

// Range returns runs recorded within the given time range, oldest first.
func (s *HistoryStore) Range(ctx context.Context, start, end time.Time) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document, prev_checksum, current_checksum, manuscript_print, recorded_at, report FROM runs WHERE recorded_at >= ? AND recorded_at <= ? ORDER BY recorded_at, id",
		start.Unix(), end.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return s.scanRuns(rows)
}

func (s *HistoryStore) scanRuns(rows *sql.Rows) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var recordedUnix int64
		var reportJSON []byte

		err := rows.Scan(&e.ID, &e.Document, &e.PrevChecksum, &e.CurrentChecksum, &e.ManuscriptPrint, &recordedUnix, &reportJSON)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		e.RecordedAt = time.Unix(recordedUnix, 0)

		var report delta.Report
		if err := json.Unmarshal(reportJSON, &report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		e.Report = &report

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
