package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, ".scenetrack/fingerprints.json", cfg.Snapshot)
	require.Equal(t, ".scenetrack/history.db", cfg.HistoryDB)
	require.Equal(t, 1500, cfg.Resolver.Corridor)
	require.Equal(t, 8, cfg.Resolver.ContextMin)
	require.Equal(t, 400*time.Millisecond, cfg.Watch.Debounce.Std())
}

func TestLoadAppliesFileValuesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenetrack.yaml")
	content := `
manuscript: draft.md
snapshot: custom/fingerprints.json
resolver:
  corridor: 3000
  workers: 4
watch:
  debounce: 250ms
  interval: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "draft.md", cfg.Manuscript)
	require.Equal(t, "custom/fingerprints.json", cfg.Snapshot)
	require.Equal(t, 3000, cfg.Resolver.Corridor)
	require.Equal(t, 4, cfg.Resolver.Workers)
	// Unset fields keep their defaults.
	require.Equal(t, ".scenetrack/history.db", cfg.HistoryDB)
	require.Equal(t, 8, cfg.Resolver.ContextMin)
	require.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce.Std())
	require.Equal(t, 30*time.Second, cfg.Watch.Interval.Std())
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("SCENETRACK_TEST_MANUSCRIPT", "expanded.md")

	path := filepath.Join(t.TempDir(), "scenetrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manuscript: ${SCENETRACK_TEST_MANUSCRIPT}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "expanded.md", cfg.Manuscript)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenetrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver:\n  corridor: -10\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolver.corridor")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenetrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not yaml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
