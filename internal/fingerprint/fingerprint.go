// Package fingerprint defines the canonical scene fingerprint model and the
// builder that produces one fingerprint collection per manuscript snapshot.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"git.home.luguber.info/inful/scenetrack/internal/textnorm"
)

// ContextRunes bounds the preceding/following context captured around a span.
const ContextRunes = 64

// Fingerprint is a compact, content-addressed descriptor of one tracked span.
//
// SHA is the hash of the exact span bytes, intentionally unnormalized: any
// byte-level change breaks hash equality and forces the fallback tiers. Pre
// and Post are stored verbatim; normalization happens only at comparison
// time. Text and Shingles are retained in memory for the fuzzy tiers and are
// not part of the persisted shape.
type Fingerprint struct {
	ID     string
	SHA    string
	Offset int
	Length int
	Pre    string
	Post   string

	Text     string
	Shingles []string
}

// Collection holds exactly one fingerprint per span id, produced in one pass
// over one document snapshot. A new edit cycle produces a wholesale
// replacement; collections are never patched in place.
type Collection struct {
	DocumentChecksum string
	GeneratedAt      time.Time
	Spans            map[string]*Fingerprint
}

// Span is the segmentation-stage input: one named text span with absolute
// byte offsets into the full document.
type Span struct {
	ID       string
	ParentID string
	Start    int
	End      int
	Text     string
}

// HashText returns the hex sha256 of s.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Build fingerprints every span against doc and computes the document
// checksum over the churn-normalized full text. Pure and deterministic.
//
// Span bounds outside the document are a caller error and the only way Build
// fails.
func Build(doc string, spans []Span, now time.Time) (*Collection, error) {
	c := &Collection{
		DocumentChecksum: HashText(textnorm.Normalize(doc)),
		GeneratedAt:      now.UTC(),
		Spans:            make(map[string]*Fingerprint, len(spans)),
	}

	for _, sp := range spans {
		if sp.Start < 0 || sp.End < sp.Start || sp.End > len(doc) {
			return nil, fmt.Errorf("span %q: bounds [%d,%d) outside document of %d bytes",
				sp.ID, sp.Start, sp.End, len(doc))
		}
		if sp.ID == "" {
			return nil, fmt.Errorf("span at offset %d: empty id", sp.Start)
		}

		text := sp.Text
		if text == "" {
			text = doc[sp.Start:sp.End]
		}

		c.Spans[sp.ID] = &Fingerprint{
			ID:       sp.ID,
			SHA:      HashText(text),
			Offset:   sp.Start,
			Length:   sp.End - sp.Start,
			Pre:      textnorm.LastRunes(doc[:sp.Start], ContextRunes),
			Post:     textnorm.FirstRunes(doc[sp.End:], ContextRunes),
			Text:     text,
			Shingles: textnorm.RareShingles(text),
		}
	}

	return c, nil
}
