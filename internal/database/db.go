// Package database opens the on-device SQLite store and brings its schema
// to the current version.  SQLite is the single source of truth when the
// network is unavailable, so opening it is the one hard prerequisite of
// the whole service.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/parkease/parkease/internal/repository"
)

// schemaVersion bumps whenever collections or indexes change.  Open
// migrates any older store in place; migration is idempotent.
const schemaVersion = 2

// Open opens (creating or upgrading as needed) the store at dbPath and
// verifies the connection.  It returns repository.ErrStorageUnavailable
// wrapped with the underlying cause when the platform offers no usable
// persistent storage.
func Open(dbPath string) (*sql.DB, error) {
	// First-run friendliness: make sure the parent directory exists.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %v", repository.ErrStorageUnavailable, err)
		}
	}

	// busy_timeout keeps concurrent readers from failing fast while a
	// write transaction commits.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=0", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// migrate declares all six collections plus the derived search index and
// their secondary indexes.  CREATE ... IF NOT EXISTS keeps it safe to run
// on every open.
func migrate(db *sql.DB) error {
	// WAL lets readers proceed while a booking commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("%w: enable WAL: %v", repository.ErrStorageUnavailable, err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'user',
            avatar TEXT NOT NULL DEFAULT '',
            verified BOOLEAN NOT NULL DEFAULT 0,
            premium_until DATETIME,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS parking_spots (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            address TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            lat REAL NOT NULL,
            lng REAL NOT NULL,
            price REAL NOT NULL,
            price_unit TEXT NOT NULL DEFAULT 'hour',
            currency TEXT NOT NULL DEFAULT '₹',
            total_spots INTEGER NOT NULL,
            available_spots INTEGER NOT NULL,
            type TEXT NOT NULL,
            security BOOLEAN NOT NULL DEFAULT 0,
            cctv BOOLEAN NOT NULL DEFAULT 0,
            covered BOOLEAN NOT NULL DEFAULT 0,
            handicapped BOOLEAN NOT NULL DEFAULT 0,
            ev BOOLEAN NOT NULL DEFAULT 0,
            hours TEXT NOT NULL DEFAULT '',
            rating REAL NOT NULL DEFAULT 0,
            reviews INTEGER NOT NULL DEFAULT 0,
            images TEXT NOT NULL DEFAULT '[]'
        );`,
		`CREATE INDEX IF NOT EXISTS idx_spots_by_location ON parking_spots(address);`,
		`CREATE INDEX IF NOT EXISTS idx_spots_by_availability ON parking_spots(available_spots);`,
		`CREATE INDEX IF NOT EXISTS idx_spots_by_lat_lng ON parking_spots(lat, lng);`,
		`CREATE INDEX IF NOT EXISTS idx_spots_by_price ON parking_spots(price);`,
		`CREATE INDEX IF NOT EXISTS idx_spots_by_type ON parking_spots(type);`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id TEXT NOT NULL,
            spot_id TEXT NOT NULL,
            date TEXT NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            price REAL NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_by_user ON bookings(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_by_date ON bookings(date);`,
		`CREATE TABLE IF NOT EXISTS payments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL,
            status TEXT NOT NULL,
            method TEXT NOT NULL,
            amount REAL NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_payments_by_booking ON payments(booking_id);`,
		`CREATE INDEX IF NOT EXISTS idx_payments_by_status ON payments(status);`,
		`CREATE TABLE IF NOT EXISTS map_tiles (
            id TEXT PRIMARY KEY,
            zoom INTEGER NOT NULL,
            x INTEGER NOT NULL,
            y INTEGER NOT NULL,
            payload BLOB NOT NULL,
            fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS cities (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            state TEXT NOT NULL,
            lat REAL NOT NULL,
            lng REAL NOT NULL,
            zoom INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_cities_by_name ON cities(name);`,
		`CREATE INDEX IF NOT EXISTS idx_cities_by_state ON cities(state);`,
		`CREATE TABLE IF NOT EXISTS search_index (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            term TEXT NOT NULL,
            type TEXT NOT NULL,
            spot_id TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_search_by_term ON search_index(term);`,
		`CREATE INDEX IF NOT EXISTS idx_search_by_type ON search_index(type);`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id TEXT NOT NULL,
            token_hash TEXT NOT NULL,
            expires_at DATETIME NOT NULL,
            revoked_at DATETIME,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_by_hash ON refresh_tokens(token_hash);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrTransactionFailed, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
         ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
		fmt.Sprint(schemaVersion),
	); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrTransactionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrTransactionFailed, err)
	}
	return nil
}
