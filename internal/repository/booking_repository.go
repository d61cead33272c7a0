package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/syncq"
)

// BookingRepo provides access to the append-only bookings collection.
// Booking creation is the one place the store enforces a cross-collection
// invariant: the booking insert and the spot availability decrement
// commit or roll back together.
type BookingRepo struct {
	db    *sql.DB
	spots *SpotRepo
	tasks syncq.Registrar
}

// NewBookingRepo returns a BookingRepo.  tasks may be nil, in which case
// no deferred sync registration happens.
func NewBookingRepo(db *sql.DB, spots *SpotRepo, tasks syncq.Registrar) *BookingRepo {
	return &BookingRepo{db: db, spots: spots, tasks: tasks}
}

// Create appends a booking and decrements the referenced spot's available
// count (floored at zero) in a single transaction, then registers a
// "sync-bookings" deferred task.  The booking is inserted even when the
// spot is already full or unknown: the capacity floor and the unenforced
// foreign key are both deliberate.  Write failures propagate; losing a
// booking silently is unacceptable.  The generated ID is stored on b.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
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

	const ins = `INSERT INTO bookings (user_id, spot_id, date, start_time, end_time, price)
                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, b.UserID, b.SpotID, b.Date, b.StartTime, b.EndTime, b.Price)
	if err != nil {
		return fmt.Errorf("%w: insert booking: %v", ErrTransactionFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	b.ID = id

	if err := r.spots.DecrementAvailabilityTx(ctx, tx, b.SpotID); err != nil {
		return fmt.Errorf("%w: decrement availability: %v", ErrTransactionFailed, err)
	}

	// Populate defaults assigned by the database.
	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, id).Scan(&b.CreatedAt); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	committed = true

	// Wake-up only; never fails the write.
	if r.tasks != nil {
		_ = r.tasks.Register(ctx, syncq.TaskSyncBookings)
	}
	return nil
}

const bookingColumns = `id, user_id, spot_id, date, start_time, end_time, price, created_at`

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.SpotID, &b.Date, &b.StartTime, &b.EndTime, &b.Price, &b.CreatedAt)
	return b, err
}

// GetByID returns a booking snapshot, or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id int64) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// ListByUser returns the user's bookings via the by-user index, oldest
// first.  Read failures are swallowed at this boundary and degrade to an
// empty slice so list views never break offline.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) []model.Booking {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		log.Printf("booking repo: listByUser failed, returning empty: %v", err)
		return []model.Booking{}
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			log.Printf("booking repo: skipping unreadable row: %v", err)
			continue
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		log.Printf("booking repo: listByUser iteration error: %v", err)
	}
	return out
}

// ListByDate returns bookings for a day via the by-date index.
func (r *BookingRepo) ListByDate(ctx context.Context, date string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE date = ? ORDER BY id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Count reports how many bookings are stored.  Used by the sync flusher
// to log reconciliation intent.
func (r *BookingRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	return n, err
}
