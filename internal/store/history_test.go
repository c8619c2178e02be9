package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scenetrack/internal/delta"
)

func newHistory(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := NewHistoryStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHistoryAppendAndQuery(t *testing.T) {
	store := newHistory(t)
	ctx := context.Background()

	report := &delta.Report{
		Added: []string{"scene-3"},
		Moved: []delta.Moved{{ID: "scene-1", From: 0, To: 250, Tier: 2, Confidence: 0.95}},
	}
	id, err := store.Append(ctx, HistoryEntry{
		Document:        "draft.md",
		PrevChecksum:    "aaa",
		CurrentChecksum: "bbb",
		ManuscriptPrint: "mdfp-1",
		Report:          report,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entries, err := store.ByDocument(ctx, "draft.md")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	require.Equal(t, id, got.ID)
	require.Equal(t, "aaa", got.PrevChecksum)
	require.Equal(t, "bbb", got.CurrentChecksum)
	require.Equal(t, "mdfp-1", got.ManuscriptPrint)
	require.Equal(t, []string{"scene-3"}, got.Report.Added)
	require.Len(t, got.Report.Moved, 1)
	require.Equal(t, "scene-1", got.Report.Moved[0].ID)
	require.Equal(t, 250, got.Report.Moved[0].To)
}

func TestHistoryByDocumentFiltersAndOrders(t *testing.T) {
	store := newHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, doc := range []string{"a.md", "b.md", "a.md"} {
		_, err := store.Append(ctx, HistoryEntry{
			Document:        doc,
			PrevChecksum:    "p",
			CurrentChecksum: "c",
			RecordedAt:      base.Add(time.Duration(i) * time.Minute),
			Report:          &delta.Report{},
		})
		require.NoError(t, err)
	}

	entries, err := store.ByDocument(ctx, "a.md")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].RecordedAt.Before(entries[1].RecordedAt))

	other, err := store.ByDocument(ctx, "c.md")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestHistoryRange(t *testing.T) {
	store := newHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, HistoryEntry{
			Document:        "draft.md",
			PrevChecksum:    "p",
			CurrentChecksum: "c",
			RecordedAt:      base.Add(time.Duration(i) * time.Hour),
			Report:          &delta.Report{},
		})
		require.NoError(t, err)
	}

	entries, err := store.Range(ctx, base.Add(30*time.Minute), base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, base.Add(time.Hour).Unix(), entries[0].RecordedAt.Unix())
}

func TestHistoryAppendRejectsNilReport(t *testing.T) {
	store := newHistory(t)

	_, err := store.Append(context.Background(), HistoryEntry{Document: "draft.md"})
	require.Error(t, err)
}
