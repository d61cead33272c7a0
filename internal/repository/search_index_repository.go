package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/parkease/parkease/internal/model"
)

// minTermLen is the shortest token the index stores.  Queries below this
// length are defined to return nothing rather than fall back to a scan.
const minTermLen = 3

// addressSeparators splits addresses on whitespace and commas.
var addressSeparators = regexp.MustCompile(`[\s,]+`)

// SearchIndexRepo maintains the derived term -> spot inverted index.  The
// index is disposable: Rebuild clears and repopulates it wholesale on
// every bulk spot save.
type SearchIndexRepo struct {
	db *sql.DB
}

// NewSearchIndexRepo returns a SearchIndexRepo bound to the given database.
func NewSearchIndexRepo(db *sql.DB) *SearchIndexRepo {
	return &SearchIndexRepo{db: db}
}

// Rebuild replaces the entire index with terms tokenized from the given
// spots: name tokens split on spaces, address tokens split on whitespace
// and commas, lower-cased, keeping only tokens of at least three
// characters.
func (r *SearchIndexRepo) Rebuild(ctx context.Context, spots []model.ParkingSpot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM search_index`); err != nil {
		return fmt.Errorf("%w: clear index: %v", ErrTransactionFailed, err)
	}

	const ins = `INSERT INTO search_index (term, type, spot_id) VALUES (?, ?, ?)`
	for _, s := range spots {
		for _, term := range strings.Fields(strings.ToLower(s.Name)) {
			if len(term) < minTermLen {
				continue
			}
			if _, err := tx.ExecContext(ctx, ins, term, model.IndexTermName, s.ID); err != nil {
				return fmt.Errorf("%w: index term: %v", ErrTransactionFailed, err)
			}
		}
		for _, term := range addressSeparators.Split(strings.ToLower(s.Address), -1) {
			if len(term) < minTermLen {
				continue
			}
			if _, err := tx.ExecContext(ctx, ins, term, model.IndexTermAddress, s.ID); err != nil {
				return fmt.Errorf("%w: index term: %v", ErrTransactionFailed, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	committed = true
	return nil
}

// LookupTerm returns the distinct spot IDs whose indexed terms start with
// the given term, in index insertion order.  Terms shorter than three
// characters yield an empty result: such tokens are never indexed, so a
// shorter query has nothing to match.
func (r *SearchIndexRepo) LookupTerm(ctx context.Context, term string) ([]string, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if len(term) < minTermLen {
		return []string{}, nil
	}
	// Prefix range over the by-term index, same trick as a bound
	// [term, term+U+FFFF) key range.
	upper := term + "\uffff"
	rows, err := r.db.QueryContext(ctx,
		`SELECT spot_id FROM search_index WHERE term >= ? AND term < ? ORDER BY id`,
		term, upper)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByType returns all index entries of the given term type.  Used by
// diagnostics and tests; lookups go through LookupTerm.
func (r *SearchIndexRepo) ListByType(ctx context.Context, termType string) ([]model.SearchIndexEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, term, type, spot_id FROM search_index WHERE type = ? ORDER BY id`, termType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SearchIndexEntry, 0)
	for rows.Next() {
		var e model.SearchIndexEntry
		if err := rows.Scan(&e.ID, &e.Term, &e.Type, &e.SpotID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
