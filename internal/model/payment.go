package model

import "time"

// Payment is an append-only record of a (simulated) payment against a
// booking.  Rows are created on payment submission and never updated or
// deleted.
//
// Fields:
//  ID        – auto-assigned identifier.
//  BookingID – booking being paid for.  Not enforced as a foreign key.
//  Status    – payment state as reported by the payment flow.
//  Method    – payment instrument, e.g. "upi", "card", "cash".
//  Amount    – amount paid.
//  CreatedAt – insertion timestamp.
type Payment struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"bookingId"`
	Status    string    `json:"status"`
	Method    string    `json:"method"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}
