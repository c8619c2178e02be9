package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scenetrack/internal/segment"
)

func testScenes() []segment.Scene {
	return []segment.Scene{
		{ID: "harbor", Title: "Harbor", Start: 0, Text: "The harbor lights dimmed while the tide turned."},
		{ID: "market", Title: "Market", Start: 100, Text: "Stalls opened early and the tide of buyers arrived."},
		{ID: "cellar", Title: "Cellar", Start: 200, Text: "Dust and old barrels below the stairs."},
	}
}

func TestQueryRanksByOverlap(t *testing.T) {
	res := Query(testScenes(), "harbor tide", 0)
	require.Len(t, res, 2)

	// Both query tokens hit the first scene, only one hits the second.
	require.Equal(t, "harbor", res[0].SceneID)
	require.Equal(t, 1.0, res[0].Score)
	require.Equal(t, "market", res[1].SceneID)
	require.Equal(t, 0.5, res[1].Score)
}

func TestQueryMatchesTitle(t *testing.T) {
	res := Query(testScenes(), "cellar", 0)
	require.Len(t, res, 1)
	require.Equal(t, "cellar", res[0].SceneID)
	// Title-only hit still yields a snippet from the scene opening.
	require.Contains(t, res[0].Snippet, "Dust and old barrels")
}

func TestQueryTiesBreakByPosition(t *testing.T) {
	res := Query(testScenes(), "tide", 0)
	require.Len(t, res, 2)
	require.Equal(t, "harbor", res[0].SceneID)
	require.Equal(t, "market", res[1].SceneID)
	require.Equal(t, res[0].Score, res[1].Score)
}

func TestQueryLimit(t *testing.T) {
	res := Query(testScenes(), "tide", 1)
	require.Len(t, res, 1)
	require.Equal(t, "harbor", res[0].SceneID)
}

func TestQueryEmptyOrUnmatched(t *testing.T) {
	require.Nil(t, Query(testScenes(), "", 0))
	require.Nil(t, Query(testScenes(), "---", 0))
	require.Empty(t, Query(testScenes(), "zeppelin", 0))
}

func TestQueryIsCaseInsensitive(t *testing.T) {
	res := Query(testScenes(), "HARBOR", 0)
	require.Len(t, res, 1)
	require.Equal(t, "harbor", res[0].SceneID)
}

func TestSnippetWindowsLongScenes(t *testing.T) {
	long := strings.Repeat("filler words keep going here. ", 20) +
		"the lighthouse keeper waited" +
		strings.Repeat(" and the storm pressed on", 20)
	scenes := []segment.Scene{{ID: "s", Start: 0, Text: long}}

	res := Query(scenes, "lighthouse", 0)
	require.Len(t, res, 1)
	require.Contains(t, res[0].Snippet, "lighthouse")
	require.True(t, strings.HasPrefix(res[0].Snippet, "..."))
	require.True(t, strings.HasSuffix(res[0].Snippet, "..."))
	require.Less(t, len(res[0].Snippet), 200)
}
