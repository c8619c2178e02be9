// Package anchor relocates fingerprinted spans inside an edited document.
//
// Four strategies are tried strictly in order, from most to least certain:
// exact/hash at the recorded offset, context-window search inside a bounded
// corridor, fuzzy token overlap inside the same corridor, and rare-shingle
// search across the whole document. The first success wins; confidence bands
// differ per tier and are never compared across tiers.
package anchor

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"git.home.luguber.info/inful/scenetrack/internal/fingerprint"
	"git.home.luguber.info/inful/scenetrack/internal/textnorm"
)

// Match is a successful relocation.
type Match struct {
	Tier       int     `json:"tier"`
	Confidence float64 `json:"confidence"`
	Position   int     `json:"position"`
}

// Options tunes the resolver. Zero values select the defaults.
type Options struct {
	// Corridor is the byte radius searched around the last known position by
	// tiers 2 and 3.
	Corridor int
	// ContextMin is the minimum usable normalized context length for tier 2.
	ContextMin int
}

const (
	defaultCorridor   = 1500
	defaultContextMin = 8

	fuzzySeedTokens  = 5
	fuzzyMinOverlap  = 0.55
	shingleMinRatio  = 0.34
	verifyMinOverlap = 0.55
)

func (o Options) withDefaults() Options {
	if o.Corridor <= 0 {
		o.Corridor = defaultCorridor
	}
	if o.ContextMin <= 0 {
		o.ContextMin = defaultContextMin
	}
	return o
}

// Resolver is stateless and safe for concurrent use across spans.
type Resolver struct {
	opts Options
}

func New(opts Options) *Resolver {
	return &Resolver{opts: opts.withDefaults()}
}

func NewDefault() *Resolver { return New(Options{}) }

// Resolve relocates fp inside doc. A nil match with a nil error means no tier
// produced a confident relocation; that is an expected outcome, not an error.
// Errors are reserved for malformed input.
func (r *Resolver) Resolve(fp *fingerprint.Fingerprint, doc string) (*Match, error) {
	if fp == nil {
		return nil, errors.New("nil fingerprint")
	}
	if doc == "" {
		return nil, fmt.Errorf("fingerprint %q: empty document", fp.ID)
	}
	if fp.Offset < 0 || fp.Length <= 0 {
		return nil, fmt.Errorf("fingerprint %q: malformed position (offset=%d, length=%d)",
			fp.ID, fp.Offset, fp.Length)
	}

	if m := r.tierExact(fp, doc); m != nil {
		return m, nil
	}
	corr := r.corridor(fp, doc)
	if m := r.tierContext(fp, doc, corr); m != nil {
		return m, nil
	}
	if m := r.tierFuzzy(fp, doc, corr); m != nil {
		return m, nil
	}
	if m := r.tierShingle(fp, doc); m != nil {
		return m, nil
	}
	return nil, nil
}

// tierExact succeeds when the document still holds the span at its recorded
// offset: verbatim or hash-equal (1.0), or equal after churn normalization
// (0.98). Quote-style substitutions change byte lengths, so the churn check
// normalizes a slightly padded window and accepts a normalized prefix match.
func (r *Resolver) tierExact(fp *fingerprint.Fingerprint, doc string) *Match {
	if fp.Offset >= len(doc) {
		return nil
	}

	end := fp.Offset + fp.Length
	if end <= len(doc) {
		slice := doc[fp.Offset:end]
		if fp.Text != "" && slice == fp.Text {
			return &Match{Tier: 1, Confidence: 1.0, Position: fp.Offset}
		}
		if fp.SHA != "" && fingerprint.HashText(slice) == fp.SHA {
			return &Match{Tier: 1, Confidence: 1.0, Position: fp.Offset}
		}
	}

	if fp.Text == "" {
		return nil
	}
	normText := textnorm.Normalize(fp.Text)
	if normText == "" {
		return nil
	}

	pad := end + 64 + fp.Length/8
	if pad > len(doc) {
		pad = len(doc)
	}
	window := doc[fp.Offset:textnorm.RuneStart(doc, pad)]
	if strings.HasPrefix(textnorm.Normalize(window), normText) {
		return &Match{Tier: 1, Confidence: 0.98, Position: fp.Offset}
	}
	return nil
}

// corridor is the bounded raw window around the last known position plus its
// normalization table, built once and shared by tiers 2 and 3.
type corridor struct {
	lo   int
	norm *textnorm.Normalized
}

func (r *Resolver) corridor(fp *fingerprint.Fingerprint, doc string) corridor {
	lo := fp.Offset - r.opts.Corridor
	if lo < 0 {
		lo = 0
	}
	if lo > len(doc) {
		lo = len(doc)
	}
	hi := fp.Offset + fp.Length + r.opts.Corridor
	if hi > len(doc) {
		hi = len(doc)
	}
	lo = textnorm.RuneStart(doc, lo)
	hi = textnorm.RuneStart(doc, hi)
	if hi < lo {
		hi = lo
	}
	return corridor{lo: lo, norm: textnorm.NormalizeMapped(doc[lo:hi])}
}

// tierContext relocates the span by finding its stored surrounding contexts
// inside the normalized corridor, then maps the boundary back to a raw offset
// through the corridor's position table.
//
// Context hits alone can be coincidental: repetitive prose repeats the same
// 64-rune window many times, and cutting a span leaves its old neighbors
// adjacent. Every occurrence of the preceding context is therefore tried and
// confirmed against the stored hash or token set; only after all of them fail
// does the weaker following-context scan run. A cold snapshot without
// retained text falls back to the first context site when no occurrence
// verifies by hash, since contexts are all it carries.
func (r *Resolver) tierContext(fp *fingerprint.Fingerprint, doc string, c corridor) *Match {
	pre := usableContext(textnorm.LastRunes(textnorm.Normalize(fp.Pre), fingerprint.ContextRunes), r.opts.ContextMin)
	post := usableContext(textnorm.FirstRunes(textnorm.Normalize(fp.Post), fingerprint.ContextRunes), r.opts.ContextMin)
	if pre == "" && post == "" {
		return nil
	}
	cn := c.norm
	cold := fp.Text == ""
	var coldFallback *Match

	if pre != "" {
		for idx := strings.Index(cn.Text, pre); idx >= 0; {
			normStart := idx + len(pre)
			for normStart < len(cn.Text) && cn.Text[normStart] == ' ' {
				normStart++
			}
			pos := c.lo + cn.RawOffset(normStart)

			conf := 0.90
			if post != "" && strings.Contains(cn.Text[normStart:], post) {
				conf = 0.95
			}
			if r.verify(fp, doc, pos) {
				return &Match{Tier: 2, Confidence: conf, Position: pos}
			}
			if cold && coldFallback == nil && pos >= 0 && pos < len(doc) {
				coldFallback = &Match{Tier: 2, Confidence: conf, Position: pos}
			}

			rest := strings.Index(cn.Text[idx+1:], pre)
			if rest < 0 {
				break
			}
			idx += 1 + rest
		}
	}

	if post != "" {
		for idx := strings.Index(cn.Text, post); idx >= 0; {
			pos := c.lo + cn.RawOffset(idx) - fp.Length
			if pos < 0 {
				pos = 0
			}
			pos = textnorm.RuneStart(doc, pos)
			if r.verify(fp, doc, pos) {
				return &Match{Tier: 2, Confidence: 0.85, Position: pos}
			}
			if cold && coldFallback == nil && pos < len(doc) {
				coldFallback = &Match{Tier: 2, Confidence: 0.85, Position: pos}
			}

			rest := strings.Index(cn.Text[idx+1:], post)
			if rest < 0 {
				break
			}
			idx += 1 + rest
		}
	}

	return coldFallback
}

func usableContext(norm string, min int) string {
	trimmed := strings.TrimSpace(norm)
	if len(trimmed) < min {
		return ""
	}
	return trimmed
}

// verify confirms a candidate site against the stored content: hash equality
// for byte-identical spans, token overlap for edited ones. Cold fingerprints
// carry no text, so for them only the hash can confirm.
func (r *Resolver) verify(fp *fingerprint.Fingerprint, doc string, pos int) bool {
	if pos < 0 || pos >= len(doc) {
		return false
	}
	end := pos + fp.Length
	if end > len(doc) {
		end = len(doc)
	}
	cand := doc[pos:textnorm.RuneStart(doc, end)]
	if fp.SHA != "" && fingerprint.HashText(cand) == fp.SHA {
		return true
	}
	if fp.Text == "" {
		return false
	}
	return textnorm.OverlapRatio(textnorm.TokenSet(cand), textnorm.TokenSet(fp.Text)) >= verifyMinOverlap
}

// tierFuzzy seeds on the first five tokens of the stored text inside the
// normalized corridor, extracts a candidate of about length x 1.1, and accepts
// on token-set overlap >= 0.55. Confidence scales linearly from 0.6 at the
// threshold to 0.8 at full overlap.
func (r *Resolver) tierFuzzy(fp *fingerprint.Fingerprint, doc string, c corridor) *Match {
	if fp.Text == "" {
		return nil
	}
	fields := strings.Fields(textnorm.Normalize(fp.Text))
	if len(fields) == 0 {
		return nil
	}
	if len(fields) > fuzzySeedTokens {
		fields = fields[:fuzzySeedTokens]
	}
	seed := strings.Join(fields, " ")

	idx := strings.Index(c.norm.Text, seed)
	if idx < 0 {
		return nil
	}
	start := c.lo + c.norm.RawOffset(idx)

	end := start + fp.Length + fp.Length/10
	if end > len(doc) {
		end = len(doc)
	}
	cand := doc[start:textnorm.RuneStart(doc, end)]

	ratio := textnorm.OverlapRatio(textnorm.TokenSet(cand), textnorm.TokenSet(fp.Text))
	if ratio < fuzzyMinOverlap {
		return nil
	}
	conf := 0.6 + (ratio-fuzzyMinOverlap)/(1-fuzzyMinOverlap)*0.2
	if conf > 0.8 {
		conf = 0.8
	}
	return &Match{Tier: 3, Confidence: conf, Position: start}
}

// tierShingle searches the entire document for the cached rare shingles. Every
// occurrence of a shingle's first token opens a candidate window of the
// fingerprint's length; the window containing the most complete shingles wins.
func (r *Resolver) tierShingle(fp *fingerprint.Fingerprint, doc string) *Match {
	shingles := fp.Shingles
	if len(shingles) == 0 && fp.Text != "" {
		shingles = textnorm.RareShingles(fp.Text)
	}
	if len(shingles) == 0 {
		return nil
	}

	docToks := textnorm.TokensWithOffsets(doc)
	if len(docToks) == 0 {
		return nil
	}

	type sequence struct {
		first  string
		toks   []string
		starts []int // token indices of complete matches, ascending
	}
	seqs := make([]sequence, 0, len(shingles))
	for _, s := range shingles {
		toks := strings.Fields(s)
		if len(toks) == 0 {
			continue
		}
		sq := sequence{first: toks[0], toks: toks}
		for i := 0; i+len(toks) <= len(docToks); i++ {
			if docToks[i].Text != toks[0] {
				continue
			}
			full := true
			for j := 1; j < len(toks); j++ {
				if docToks[i+j].Text != toks[j] {
					full = false
					break
				}
			}
			if full {
				sq.starts = append(sq.starts, i)
			}
		}
		seqs = append(seqs, sq)
	}
	if len(seqs) == 0 {
		return nil
	}

	firstTokens := make(map[string]struct{}, len(seqs))
	for _, sq := range seqs {
		firstTokens[sq.first] = struct{}{}
	}

	bestHits, bestPos := 0, -1
	for _, tok := range docToks {
		if _, ok := firstTokens[tok.Text]; !ok {
			continue
		}
		winStart := tok.Start
		winEnd := winStart + fp.Length

		hits := 0
		for _, sq := range seqs {
			for _, st := range sq.starts {
				s0 := docToks[st].Start
				if s0 >= winEnd {
					break
				}
				if s0 >= winStart && docToks[st+len(sq.toks)-1].End <= winEnd {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			bestHits, bestPos = hits, winStart
		}
	}
	if bestPos < 0 {
		return nil
	}

	ratio := float64(bestHits) / float64(len(seqs))
	if ratio < shingleMinRatio {
		return nil
	}
	conf := 0.6 + math.Min(0.4, ratio)*0.4
	return &Match{Tier: 4, Confidence: conf, Position: bestPos}
}
