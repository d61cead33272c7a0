package model

import "time"

// Booking records a user's reservation of a parking spot for a time
// window.  Bookings are append-only: cancellation and review flows act on
// transient copies and never write back, so the store keeps every booking
// ever created.  Status is deliberately not a column; it is derived from
// the time window so stored and computed values can never disagree.
//
// Fields:
//  ID        – auto-assigned, monotonic within the store.
//  UserID    – owning user.  Not enforced as a foreign key.
//  SpotID    – booked spot.  Not enforced as a foreign key.
//  Date      – booking day, "2006-01-02".
//  StartTime – start of the window, "15:04" on Date.
//  EndTime   – end of the window, "15:04" on Date.
//  Price     – amount charged for the window.
//  CreatedAt – insertion timestamp.
type Booking struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	SpotID    string    `json:"spotId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// Booking status values reported to callers.  Derived, never stored.
const (
	BookingUpcoming  = "upcoming"
	BookingActive    = "active"
	BookingCompleted = "completed"
)

// StatusAt derives the booking status at the given instant from the
// booking's window.  A booking whose window cannot be parsed is reported
// as upcoming rather than failing, keeping list views renderable.
func (b Booking) StatusAt(now time.Time) string {
	start, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.StartTime, now.Location())
	if err != nil {
		return BookingUpcoming
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.EndTime, now.Location())
	if err != nil {
		return BookingUpcoming
	}
	// Windows crossing midnight end on the next day.
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	switch {
	case now.Before(start):
		return BookingUpcoming
	case now.After(end):
		return BookingCompleted
	default:
		return BookingActive
	}
}
