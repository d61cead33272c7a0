// Package repository implements the local store: per-collection access
// over the on-device SQLite database.  This file defines the error
// taxonomy shared across repositories.  Read paths are expected to be
// wrapped by callers with a degrade-to-fallback policy; write failures
// must propagate, since silently losing a booking or payment write is
// unacceptable.
package repository

import "errors"

// ErrStorageUnavailable indicates that no usable persistent storage is
// available on this platform.  Nothing can run without the store, so
// startup treats this as fatal.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrTransactionFailed indicates that a store write did not commit.
var ErrTransactionFailed = errors.New("transaction failed")

// ErrSeedDataInvalid indicates that a bulk seed fetch returned unusable
// content (non-200, non-JSON, or a malformed document).  Callers fall
// back to the embedded sample dataset.
var ErrSeedDataInvalid = errors.New("seed data invalid")

// ErrNotFound is returned by point lookups when no record with the
// requested key exists.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an email that already has
// an account snapshot in the store.
var ErrEmailExists = errors.New("email already exists")
