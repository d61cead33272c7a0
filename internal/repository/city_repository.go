package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/parkease/parkease/internal/model"
)

// CityRepo provides access to the seed-only cities collection.
type CityRepo struct {
	db *sql.DB
}

// NewCityRepo returns a CityRepo bound to the given database.
func NewCityRepo(db *sql.DB) *CityRepo { return &CityRepo{db: db} }

// SaveAll upserts the given cities in one transaction.
func (r *CityRepo) SaveAll(ctx context.Context, cities []model.City) error {
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
	const q = `INSERT INTO cities (id, name, state, lat, lng, zoom) VALUES (?,?,?,?,?,?)
               ON CONFLICT(id) DO UPDATE SET
                 name=excluded.name, state=excluded.state,
                 lat=excluded.lat, lng=excluded.lng, zoom=excluded.zoom`
	for _, c := range cities {
		if _, err := tx.ExecContext(ctx, q, c.ID, c.Name, c.State, c.Lat, c.Lng, c.Zoom); err != nil {
			return fmt.Errorf("%w: put city %s: %v", ErrTransactionFailed, c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	committed = true
	return nil
}

// GetByID returns a city, or ErrNotFound.
func (r *CityRepo) GetByID(ctx context.Context, id string) (model.City, error) {
	var c model.City
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, state, lat, lng, zoom FROM cities WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.State, &c.Lat, &c.Lng, &c.Zoom)
	if err == sql.ErrNoRows {
		return model.City{}, ErrNotFound
	}
	return c, err
}

// GetAll returns all cities, degrading to an empty slice on read failure.
func (r *CityRepo) GetAll(ctx context.Context) []model.City {
	out, err := r.list(ctx, `SELECT id, name, state, lat, lng, zoom FROM cities ORDER BY rowid`)
	if err != nil {
		log.Printf("city repo: getAll failed, returning empty: %v", err)
		return []model.City{}
	}
	return out
}

// ListByState returns cities of a state via the by-state index.
func (r *CityRepo) ListByState(ctx context.Context, state string) ([]model.City, error) {
	return r.list(ctx, `SELECT id, name, state, lat, lng, zoom FROM cities WHERE state = ? ORDER BY rowid`, state)
}

func (r *CityRepo) list(ctx context.Context, query string, args ...any) ([]model.City, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.City, 0)
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.State, &c.Lat, &c.Lng, &c.Zoom); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
