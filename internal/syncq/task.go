// Package syncq implements the deferred-write queue: named wake-up tasks
// registered with the message broker when connectivity cannot be assumed,
// plus the consumer that fires them once the broker hands them back.  The
// queue carries no record payloads.  Tasks are only wake-up signals; the
// actual records live in the local store and must be diffed against
// server state by the reconciliation handler, which is deliberately left
// as an extension point.
package syncq

import "context"

// Deferred task names registered with the broker.  These are external
// interface strings and must not change.
const (
	TaskSyncBookings = "sync-bookings"
	TaskSyncPayments = "sync-payments"
	TaskSyncMapTiles = "sync-map-tiles"
)

// Registrar registers a named deferred task to be replayed when
// connectivity returns.  The local store signals it after booking and
// payment writes; registration failure must never fail the write.
type Registrar interface {
	Register(ctx context.Context, task string) error
}

// Collection returns the store collection a task reconciles, or "" for
// tasks without one.
func Collection(task string) string {
	switch task {
	case TaskSyncBookings:
		return "bookings"
	case TaskSyncPayments:
		return "payments"
	case TaskSyncMapTiles:
		return "mapTiles"
	}
	return ""
}

// Flusher is the reconciliation extension point.  Flush reports the
// locally queued records of the named collection that still need server
// reconciliation and returns how many were considered.  The actual
// diff-and-merge protocol against a server is intentionally unspecified;
// implementations other than the logging default must define it.
type Flusher interface {
	Flush(ctx context.Context, collection string) (int, error)
}
