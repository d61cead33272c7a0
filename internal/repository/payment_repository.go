package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/syncq"
)

// PaymentRepo provides access to the append-only payments collection.
type PaymentRepo struct {
	db    *sql.DB
	tasks syncq.Registrar
}

// NewPaymentRepo returns a PaymentRepo.  tasks may be nil.
func NewPaymentRepo(db *sql.DB, tasks syncq.Registrar) *PaymentRepo {
	return &PaymentRepo{db: db, tasks: tasks}
}

// Create appends a payment and registers a "sync-payments" deferred task.
// Write failures propagate.  The generated ID is stored on p.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const ins = `INSERT INTO payments (booking_id, status, method, amount) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, ins, p.BookingID, p.Status, p.Method, p.Amount)
	if err != nil {
		return fmt.Errorf("%w: insert payment: %v", ErrTransactionFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	p.ID = id
	if err := r.db.QueryRowContext(ctx, `SELECT created_at FROM payments WHERE id = ?`, id).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	if r.tasks != nil {
		_ = r.tasks.Register(ctx, syncq.TaskSyncPayments)
	}
	return nil
}

const paymentColumns = `id, booking_id, status, method, amount, created_at`

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Status, &p.Method, &p.Amount, &p.CreatedAt)
	return p, err
}

// GetByID returns a payment snapshot, or ErrNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id int64) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return model.Payment{}, ErrNotFound
	}
	return p, err
}

// ListByBooking returns payments for a booking via the by-booking index.
func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID int64) ([]model.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? ORDER BY id`, bookingID)
}

// ListByStatus returns payments in a given state via the by-status index.
func (r *PaymentRepo) ListByStatus(ctx context.Context, status string) ([]model.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE status = ? ORDER BY id`, status)
}

func (r *PaymentRepo) list(ctx context.Context, query string, args ...any) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count reports how many payments are stored.
func (r *PaymentRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&n)
	return n, err
}
