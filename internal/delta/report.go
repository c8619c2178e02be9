package delta

// Unresolved reasons surfaced for human reconciliation.
const (
	ReasonResolutionFailed = "anchor-resolution-failed"
	ReasonException        = "anchor-exception"
)

// Modified is a span whose content hash changed between snapshots.
type Modified struct {
	ID         string  `json:"id"`
	Position   int     `json:"position"`
	Tier       int     `json:"tier"`
	Confidence float64 `json:"confidence"`
}

// Moved is a span with unchanged content at a new offset.
type Moved struct {
	ID         string  `json:"id"`
	From       int     `json:"from"`
	To         int     `json:"to"`
	Tier       int     `json:"tier"`
	Confidence float64 `json:"confidence"`
}

// Unresolved is a span the resolver could not place; it must be surfaced to
// an operator, never silently dropped.
type Unresolved struct {
	ID          string `json:"id"`
	PriorOffset int    `json:"priorOffset"`
	Reason      string `json:"reason"`
}

// Report classifies every span across two snapshots. Each id present in
// either input lands in exactly one category, or in none when truly unchanged
// (same hash, same offset). All slices are sorted by id.
type Report struct {
	Added      []string     `json:"added"`
	Removed    []string     `json:"removed"`
	Modified   []Modified   `json:"modified"`
	Moved      []Moved      `json:"moved"`
	Unresolved []Unresolved `json:"unresolved"`
}

// Total returns the number of classified spans.
func (r *Report) Total() int {
	return len(r.Added) + len(r.Removed) + len(r.Modified) + len(r.Moved) + len(r.Unresolved)
}

// Empty reports whether nothing changed between the snapshots.
func (r *Report) Empty() bool { return r.Total() == 0 }
