package textnorm

import (
	"sort"
	"strings"
	"unicode"
)

// Token is a lowercased word token with its raw byte range in the source text.
type Token struct {
	Text  string
	Start int
	End   int
}

// TokensWithOffsets splits s into lowercased runs of letters and digits,
// keeping the raw byte range of each run. Punctuation and whitespace are
// separators, so curly quotes and line endings never reach the token stream.
func TokensWithOffsets(s string) []Token {
	var toks []Token
	var b strings.Builder
	start := -1

	flush := func(end int) {
		if start >= 0 {
			toks = append(toks, Token{Text: b.String(), Start: start, End: end})
			b.Reset()
			start = -1
		}
	}

	for i, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if start < 0 {
				start = i
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush(i)
	}
	flush(len(s))

	return toks
}

// Tokens returns the lowercased word tokens of s in order.
func Tokens(s string) []string {
	toks := TokensWithOffsets(s)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

// TokenSet returns the distinct tokens of s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range TokensWithOffsets(s) {
		set[t.Text] = struct{}{}
	}
	return set
}

// OverlapRatio returns |candidate ∩ reference| / |reference|, the share of
// reference tokens present in the candidate. Zero when reference is empty.
func OverlapRatio(candidate, reference map[string]struct{}) float64 {
	if len(reference) == 0 {
		return 0
	}
	hits := 0
	for tok := range reference {
		if _, ok := candidate[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(reference))
}

const (
	// ShingleSize is the token length of a rare-shingle signature fragment.
	ShingleSize = 8
	// MaxShingles bounds how many shingles one span caches.
	MaxShingles = 3
	// shingleMinGap keeps chosen shingle starts apart so they cover distinct
	// stretches of the span.
	shingleMinGap = 8
	// shingleSeedLimit restricts candidate starts to the head of the span,
	// bounding the amount of text the full-document tier has to confirm.
	shingleSeedLimit = 64
)

// RareShingles picks up to MaxShingles 8-token phrases from text, scored by
// the sum of inverse token frequency within the span so the rarest wording
// wins. Chosen starts are at least shingleMinGap tokens apart and drawn from
// the first shingleSeedLimit tokens.
func RareShingles(text string) []string {
	tokens := Tokens(text)
	if len(tokens) < ShingleSize {
		return nil
	}

	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}

	limit := len(tokens) - ShingleSize
	if limit > shingleSeedLimit {
		limit = shingleSeedLimit
	}

	type scored struct {
		start int
		score float64
	}
	candidates := make([]scored, 0, limit+1)
	for start := 0; start <= limit; start++ {
		score := 0.0
		for _, t := range tokens[start : start+ShingleSize] {
			score += 1.0 / float64(freq[t])
		}
		candidates = append(candidates, scored{start: start, score: score})
	}

	// Highest score first; earlier start breaks ties for determinism.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].start < candidates[j].start
	})

	var shingles []string
	var starts []int
	for _, c := range candidates {
		if len(shingles) == MaxShingles {
			break
		}
		ok := true
		for _, s := range starts {
			if abs(c.start-s) < shingleMinGap {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		starts = append(starts, c.start)
		shingles = append(shingles, strings.Join(tokens[c.start:c.start+ShingleSize], " "))
	}

	return shingles
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
