package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokensWithOffsets(t *testing.T) {
	toks := TokensWithOffsets("The cat sat.")
	require.Len(t, toks, 3)
	require.Equal(t, "the", toks[0].Text)
	require.Equal(t, 0, toks[0].Start)
	require.Equal(t, 3, toks[0].End)
	require.Equal(t, "sat", toks[2].Text)
	require.Equal(t, 8, toks[2].Start)
	require.Equal(t, 11, toks[2].End)
}

func TestTokensStripPunctuationAndQuotes(t *testing.T) {
	require.Equal(t,
		[]string{"don", "t", "stop", "now"},
		Tokens("“Don’t stop,” (now)"))
}

func TestOverlapRatio(t *testing.T) {
	ref := TokenSet("the quick brown fox")
	require.InDelta(t, 1.0, OverlapRatio(TokenSet("fox brown quick the"), ref), 1e-9)
	require.InDelta(t, 0.5, OverlapRatio(TokenSet("the quick"), ref), 1e-9)
	require.Zero(t, OverlapRatio(TokenSet("the quick"), TokenSet("")))
}

func TestRareShingles(t *testing.T) {
	t.Run("too short yields none", func(t *testing.T) {
		require.Nil(t, RareShingles("only a few words here"))
	})

	t.Run("eight tokens per shingle, distinct starts", func(t *testing.T) {
		words := []string{
			"aurora", "borealis", "shimmered", "over", "the", "frozen", "harbor", "while",
			"captain", "ilse", "counted", "lanterns", "along", "the", "quay", "and",
			"listened", "for", "the", "bell", "that", "never", "rang", "twice",
		}
		text := strings.Join(words, " ")
		shingles := RareShingles(text)
		require.NotEmpty(t, shingles)
		require.LessOrEqual(t, len(shingles), MaxShingles)
		for _, s := range shingles {
			require.Len(t, strings.Fields(s), ShingleSize)
		}
	})

	t.Run("rare wording outranks repeated wording", func(t *testing.T) {
		common := strings.Repeat("again and again and again and again and ", 4)
		rare := "obsidian lighthouse keeper hummed forgotten shanties beneath paraffin lamps"
		shingles := RareShingles(common + rare)
		require.NotEmpty(t, shingles)
		require.Contains(t, shingles[0], "obsidian")
	})

	t.Run("deterministic", func(t *testing.T) {
		text := strings.Repeat("the raven tapped at the chamber door once more ", 5)
		require.Equal(t, RareShingles(text), RareShingles(text))
	})
}
