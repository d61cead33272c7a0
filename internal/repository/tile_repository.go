package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/parkease/parkease/internal/model"
)

// TileRepo provides access to the map_tiles collection: opaque cached
// tile payloads written by the precache routine and read back when the
// upstream tile server is unreachable.
type TileRepo struct {
	db *sql.DB
}

// NewTileRepo returns a TileRepo bound to the given database.
func NewTileRepo(db *sql.DB) *TileRepo { return &TileRepo{db: db} }

// Put upserts a tile by its XYZ key.
func (r *TileRepo) Put(ctx context.Context, t model.MapTile) error {
	const q = `INSERT INTO map_tiles (id, zoom, x, y, payload) VALUES (?,?,?,?,?)
               ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, fetched_at=CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, q, t.ID, t.Zoom, t.X, t.Y, t.Payload); err != nil {
		return fmt.Errorf("%w: put tile %s: %v", ErrTransactionFailed, t.ID, err)
	}
	return nil
}

// Get returns a cached tile, or ErrNotFound.
func (r *TileRepo) Get(ctx context.Context, id string) (model.MapTile, error) {
	var t model.MapTile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, zoom, x, y, payload, fetched_at FROM map_tiles WHERE id = ?`, id).
		Scan(&t.ID, &t.Zoom, &t.X, &t.Y, &t.Payload, &t.FetchedAt)
	if err == sql.ErrNoRows {
		return model.MapTile{}, ErrNotFound
	}
	return t, err
}

// Count reports how many tiles are cached.
func (r *TileRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM map_tiles`).Scan(&n)
	return n, err
}
