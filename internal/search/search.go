// Package search ranks manuscript scenes against a word query. Scoring is
// plain token overlap over the segmenter's output rather than a persisted
// index: manuscripts are small enough to scan per query.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/scenetrack/internal/segment"
	"git.home.luguber.info/inful/scenetrack/internal/textnorm"
)

// snippetRadius is the number of runes kept on each side of the first hit.
const snippetRadius = 60

// Result is one scene matched by a query.
type Result struct {
	SceneID string  `json:"sceneId"`
	Title   string  `json:"title,omitempty"`
	Start   int     `json:"start"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// Query scores every scene against the query's distinct tokens and returns
// the matches, highest score first with document order breaking ties. A scene
// scores the share of query tokens present in its title or body. A limit of
// zero or less keeps every match.
func Query(scenes []segment.Scene, query string, limit int) []Result {
	qtoks := textnorm.TokenSet(query)
	if len(qtoks) == 0 {
		return nil
	}

	var out []Result
	for _, sc := range scenes {
		have := textnorm.TokenSet(sc.Text)
		for tok := range textnorm.TokenSet(sc.Title) {
			have[tok] = struct{}{}
		}
		score := textnorm.OverlapRatio(have, qtoks)
		if score == 0 {
			continue
		}
		out = append(out, Result{
			SceneID: sc.ID,
			Title:   sc.Title,
			Start:   sc.Start,
			Score:   score,
			Snippet: snippet(sc.Text, qtoks),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Start < out[j].Start
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// snippet extracts a short excerpt around the first query token found in the
// scene body, falling back to the scene opening for title-only matches.
func snippet(text string, query map[string]struct{}) string {
	hit, hitEnd := -1, 0
	for _, tok := range textnorm.TokensWithOffsets(text) {
		if _, ok := query[tok.Text]; ok {
			hit, hitEnd = tok.Start, tok.End
			break
		}
	}
	if hit < 0 {
		return collapse(textnorm.FirstRunes(text, 2*snippetRadius))
	}

	lo := hit
	for r := 0; lo > 0 && r < snippetRadius; r++ {
		lo = textnorm.RuneStart(text, lo-1)
	}
	hi := hitEnd
	for r := 0; hi < len(text) && r < snippetRadius; r++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}

	snip := collapse(text[lo:hi])
	if lo > 0 {
		snip = "..." + snip
	}
	if hi < len(text) {
		snip += "..."
	}
	return snip
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
