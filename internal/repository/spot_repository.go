package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/parkease/parkease/internal/model"
)

// SpotRepo provides access to the parking_spots collection.  Every read
// materialises a fresh snapshot: callers never see live references, so
// store consistency depends only on how they re-save mutated copies.
type SpotRepo struct {
	db    *sql.DB
	index *SearchIndexRepo
}

// NewSpotRepo returns a SpotRepo bound to the given database.  The index
// repo is used to rebuild the derived search index on bulk saves.
func NewSpotRepo(db *sql.DB, index *SearchIndexRepo) *SpotRepo {
	return &SpotRepo{db: db, index: index}
}

// DB exposes the underlying handle so callers can open transactions that
// span collections (booking creation does).
func (r *SpotRepo) DB() *sql.DB { return r.db }

const spotColumns = `id, name, address, description, lat, lng, price, price_unit, currency,
       total_spots, available_spots, type, security, cctv, covered, handicapped, ev,
       hours, rating, reviews, images`

func scanSpot(row interface{ Scan(...any) error }) (model.ParkingSpot, error) {
	var s model.ParkingSpot
	var images string
	err := row.Scan(
		&s.ID, &s.Name, &s.Address, &s.Description, &s.Lat, &s.Lng, &s.Price,
		&s.PriceUnit, &s.Currency, &s.TotalSpots, &s.AvailableSpots, &s.Type,
		&s.Security, &s.CCTV, &s.Covered, &s.Handicapped, &s.EV,
		&s.Hours, &s.Rating, &s.Reviews, &images,
	)
	if err != nil {
		return model.ParkingSpot{}, err
	}
	if err := json.Unmarshal([]byte(images), &s.Images); err != nil {
		// A corrupt image list should not make the whole record unreadable.
		s.Images = nil
	}
	return s, nil
}

// Put upserts a single spot by primary key.  Last write wins; there is no
// optimistic concurrency.
func (r *SpotRepo) Put(ctx context.Context, s model.ParkingSpot) error {
	return r.putTx(ctx, r.db, s)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SpotRepo) putTx(ctx context.Context, db execer, s model.ParkingSpot) error {
	images, err := json.Marshal(s.Images)
	if err != nil {
		images = []byte("[]")
	}
	const q = `INSERT INTO parking_spots (` + spotColumns + `)
               VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
               ON CONFLICT(id) DO UPDATE SET
                 name=excluded.name, address=excluded.address, description=excluded.description,
                 lat=excluded.lat, lng=excluded.lng, price=excluded.price,
                 price_unit=excluded.price_unit, currency=excluded.currency,
                 total_spots=excluded.total_spots, available_spots=excluded.available_spots,
                 type=excluded.type, security=excluded.security, cctv=excluded.cctv,
                 covered=excluded.covered, handicapped=excluded.handicapped, ev=excluded.ev,
                 hours=excluded.hours, rating=excluded.rating, reviews=excluded.reviews,
                 images=excluded.images`
	if _, err := db.ExecContext(ctx, q,
		s.ID, s.Name, s.Address, s.Description, s.Lat, s.Lng, s.Price,
		s.PriceUnit, s.Currency, s.TotalSpots, s.AvailableSpots, s.Type,
		s.Security, s.CCTV, s.Covered, s.Handicapped, s.EV,
		s.Hours, s.Rating, s.Reviews, string(images),
	); err != nil {
		return fmt.Errorf("%w: put spot %s: %v", ErrTransactionFailed, s.ID, err)
	}
	return nil
}

// SaveAll bulk-upserts spots and then rebuilds the derived search index
// from scratch.  The rebuild runs in its own transaction: a reader doing
// an indexed lookup mid-rebuild may observe a partially cleared index,
// which is acceptable for a derived, disposable structure.  Rebuilding is
// O(spots x average term count) and cheaper than incremental maintenance
// at tens to low hundreds of records.
func (r *SpotRepo) SaveAll(ctx context.Context, spots []model.ParkingSpot) error {
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
	for _, s := range spots {
		if err := r.putTx(ctx, tx, s); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	committed = true

	if r.index != nil {
		if err := r.index.Rebuild(ctx, spots); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns a point-read snapshot of a spot, or ErrNotFound.
func (r *SpotRepo) GetByID(ctx context.Context, id string) (model.ParkingSpot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+spotColumns+` FROM parking_spots WHERE id = ?`, id)
	s, err := scanSpot(row)
	if err == sql.ErrNoRows {
		return model.ParkingSpot{}, ErrNotFound
	}
	if err != nil {
		return model.ParkingSpot{}, err
	}
	return s, nil
}

// GetAll returns the full spot snapshot in insertion (rowid) order.  It
// tolerates an empty or partially corrupt collection: rows that fail to
// scan are skipped, and query failure yields an empty slice rather than
// an error, so callers can degrade to fallback data and the UI stays
// renderable.
func (r *SpotRepo) GetAll(ctx context.Context) []model.ParkingSpot {
	rows, err := r.db.QueryContext(ctx, `SELECT `+spotColumns+` FROM parking_spots ORDER BY rowid`)
	if err != nil {
		log.Printf("spot repo: getAll failed, returning empty snapshot: %v", err)
		return []model.ParkingSpot{}
	}
	defer rows.Close()
	out := make([]model.ParkingSpot, 0)
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			log.Printf("spot repo: skipping unreadable row: %v", err)
			continue
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		log.Printf("spot repo: getAll iteration error: %v", err)
	}
	return out
}

// ListByType returns spots of the given type via the by-type index.
func (r *SpotRepo) ListByType(ctx context.Context, spotType string) ([]model.ParkingSpot, error) {
	return r.list(ctx, `SELECT `+spotColumns+` FROM parking_spots WHERE type = ? ORDER BY rowid`, spotType)
}

// ListByPriceRange returns spots with price in [min, max] via the
// by-price index.
func (r *SpotRepo) ListByPriceRange(ctx context.Context, min, max float64) ([]model.ParkingSpot, error) {
	return r.list(ctx, `SELECT `+spotColumns+` FROM parking_spots WHERE price BETWEEN ? AND ? ORDER BY rowid`, min, max)
}

// ListByMinAvailable returns spots with at least n free spots via the
// by-availability index.
func (r *SpotRepo) ListByMinAvailable(ctx context.Context, n int) ([]model.ParkingSpot, error) {
	return r.list(ctx, `SELECT `+spotColumns+` FROM parking_spots WHERE available_spots >= ? ORDER BY rowid`, n)
}

// ListByBoundingBox returns spots inside the lat/lng box via the
// composite by-lat-lng index.
func (r *SpotRepo) ListByBoundingBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]model.ParkingSpot, error) {
	return r.list(ctx,
		`SELECT `+spotColumns+` FROM parking_spots
         WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ? ORDER BY rowid`,
		minLat, maxLat, minLng, maxLng)
}

func (r *SpotRepo) list(ctx context.Context, query string, args ...any) ([]model.ParkingSpot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ParkingSpot, 0)
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DecrementAvailabilityTx decrements a spot's available count inside an
// existing transaction, flooring at zero.  A missing spot is a no-op:
// the foreign key from bookings is intentionally unenforced.
func (r *SpotRepo) DecrementAvailabilityTx(ctx context.Context, tx *sql.Tx, spotID string) error {
	const q = `UPDATE parking_spots
               SET available_spots = CASE WHEN available_spots > 0 THEN available_spots - 1 ELSE 0 END
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, spotID)
	return err
}
