package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("collapses whitespace runs", func(t *testing.T) {
		require.Equal(t, "a b c", Normalize("a  b\t\tc"))
	})

	t.Run("unifies line endings via collapse", func(t *testing.T) {
		require.Equal(t, "one two", Normalize("one\r\ntwo"))
		require.Equal(t, Normalize("one\ntwo"), Normalize("one\r\ntwo"))
	})

	t.Run("maps curly quotes to straight", func(t *testing.T) {
		require.Equal(t, `"hello" isn't`, Normalize("“hello” isn’t"))
	})

	t.Run("keeps non-churn bytes verbatim", func(t *testing.T) {
		require.Equal(t, "héllo, wörld!", Normalize("héllo, wörld!"))
	})
}

func TestNormalizeMapped(t *testing.T) {
	t.Run("whitespace run maps to first byte of run", func(t *testing.T) {
		n := NormalizeMapped("ab  \t cd")
		require.Equal(t, "ab cd", n.Text)
		// Normalized 'c' is at byte 3; raw 'c' is at byte 6.
		require.Equal(t, 6, n.RawOffset(3))
		// The collapsed space maps to the run's first raw byte.
		require.Equal(t, 2, n.RawOffset(2))
	})

	t.Run("quote substitution maps one-to-one", func(t *testing.T) {
		// Curly right single quote is three raw bytes but one normalized byte.
		raw := "a’b c"
		n := NormalizeMapped(raw)
		require.Equal(t, "a'b c", n.Text)
		require.Equal(t, 1, n.RawOffset(1))  // the quote itself
		require.Equal(t, 4, n.RawOffset(2))  // 'b' sits after the 3-byte quote
		require.Equal(t, 6, n.RawOffset(4))  // 'c'
	})

	t.Run("quote adjacent to whitespace collapse", func(t *testing.T) {
		raw := "he said,\r\n “Go.”"
		n := NormalizeMapped(raw)
		require.Equal(t, `he said, "Go."`, n.Text)
		quoteNorm := strings.Index(n.Text, `"`)
		require.Equal(t, strings.Index(raw, "“"), n.RawOffset(quoteNorm))
	})

	t.Run("offsets clamp at both ends", func(t *testing.T) {
		n := NormalizeMapped("abc")
		require.Equal(t, 0, n.RawOffset(-1))
		require.Equal(t, 3, n.RawOffset(3))
		require.Equal(t, 3, n.RawOffset(99))
	})
}

func TestRuneHelpers(t *testing.T) {
	s := "héllo"
	require.Equal(t, "hél", FirstRunes(s, 3))
	require.Equal(t, "llo", LastRunes(s, 3))
	require.Equal(t, s, FirstRunes(s, 10))
	require.Equal(t, s, LastRunes(s, 10))
	require.Equal(t, "", FirstRunes(s, 0))

	// 'é' starts at byte 1 and spans two bytes.
	require.Equal(t, 1, RuneStart(s, 2))
	require.Equal(t, 3, RuneStart(s, 3))
	require.Equal(t, len(s), RuneStart(s, 99))
}
