package model

// SearchIndexEntry maps a lower-cased token of at least three characters
// to the spot it came from.  The index is derived and disposable: it is
// fully rebuilt (clear then repopulate) on every bulk spot save, never
// maintained incrementally.
type SearchIndexEntry struct {
	ID     int64  `json:"id"`
	Term   string `json:"term"`
	Type   string `json:"type"` // "name" or "address"
	SpotID string `json:"spotId"`
}

// Index entry types identifying which field a term was tokenized from.
const (
	IndexTermName    = "name"
	IndexTermAddress = "address"
)
