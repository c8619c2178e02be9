// Package textnorm implements churn normalization for manuscript text.
//
// Churn is incidental textual noise an editor introduces without changing
// content: quote style, line endings, and whitespace runs. Normalized text is
// the comparison form used by the anchor tiers; raw text keeps the offsets
// that fingerprints record. The position-mapping table built by
// NormalizeMapped translates between the two.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	leftSingleQuote  = '‘'
	rightSingleQuote = '’'
	leftDoubleQuote  = '“'
	rightDoubleQuote = '”'
)

// Normalize unifies line endings, maps curly quotes to straight quotes, and
// collapses every whitespace run to a single space. Newlines count as
// whitespace, so line-ending unification is subsumed by the collapse.
func Normalize(s string) string {
	return NormalizeMapped(s).Text
}

// Normalized is churn-normalized text plus the table mapping each normalized
// byte back to the raw byte offset of the rune that produced it.
//
// The table is built once per corridor and reused for every lookup; collapsed
// whitespace runs map to the offset of the run's first byte, quote
// substitutions map one-to-one.
type Normalized struct {
	Text string

	raw    []int // raw byte offset per normalized byte
	rawLen int
}

// NormalizeMapped normalizes s and records the normalized-to-raw byte table.
func NormalizeMapped(s string) *Normalized {
	var b strings.Builder
	b.Grow(len(s))
	raw := make([]int, 0, len(s))

	inRun := false
	for i, r := range s {
		if unicode.IsSpace(r) {
			if !inRun {
				b.WriteByte(' ')
				raw = append(raw, i)
				inRun = true
			}
			continue
		}
		inRun = false

		out := r
		switch r {
		case leftSingleQuote, rightSingleQuote:
			out = '\''
		case leftDoubleQuote, rightDoubleQuote:
			out = '"'
		}

		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], out)
		b.Write(buf[:n])
		for j := 0; j < n; j++ {
			raw = append(raw, i)
		}
	}

	return &Normalized{Text: b.String(), raw: raw, rawLen: len(s)}
}

// RawOffset returns the raw byte offset corresponding to the normalized byte
// offset off. Offsets at or past the end of the normalized text map to the
// raw length; negative offsets clamp to zero.
func (n *Normalized) RawOffset(off int) int {
	if off < 0 {
		return 0
	}
	if off >= len(n.raw) {
		return n.rawLen
	}
	return n.raw[off]
}

// RuneStart clamps a byte offset in s down to the nearest rune boundary.
func RuneStart(s string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// LastRunes returns the suffix of s holding at most n runes.
func LastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := len(s); i > 0; {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		_ = r
		i -= size
		count++
		if count == n {
			return s[i:]
		}
	}
	return s
}

// FirstRunes returns the prefix of s holding at most n runes.
func FirstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
