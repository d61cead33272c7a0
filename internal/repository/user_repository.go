package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/utils"
)

// UserRepo persists user session snapshots so login lookup keeps working
// offline.  The authentication flow owns the account; this is only the
// on-device copy.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, name, password_hash, role, avatar, verified, premium_until, created_at`

// Create inserts a new account snapshot and returns its generated ID.
func (r *UserRepo) Create(ctx context.Context, email, password, name, role string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id, err := randomID()
	if err != nil {
		return "", err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role) VALUES (?,?,?,?,?)`,
		id, email, name, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return "", ErrEmailExists
		}
		return "", fmt.Errorf("%w: create user: %v", ErrTransactionFailed, err)
	}
	return id, nil
}

// Save upserts a session snapshot wholesale.  Used when an external
// authentication flow hands us an already-built account.
func (r *UserRepo) Save(ctx context.Context, u model.User) error {
	const q = `INSERT INTO users (` + userColumns + `) VALUES (?,?,?,?,?,?,?,?,?)
               ON CONFLICT(id) DO UPDATE SET
                 email=excluded.email, name=excluded.name,
                 password_hash=excluded.password_hash, role=excluded.role,
                 avatar=excluded.avatar, verified=excluded.verified,
                 premium_until=excluded.premium_until`
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, q,
		u.ID, strings.ToLower(strings.TrimSpace(u.Email)), u.Name, u.PasswordHash,
		u.Role, u.Avatar, u.Verified, u.PremiumUntil, created)
	if err != nil {
		return fmt.Errorf("%w: save user: %v", ErrTransactionFailed, err)
	}
	return nil
}

// GetByEmail fetches a snapshot by normalized email.  This is the offline
// login lookup path.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
}

// GetByID fetches a snapshot by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
}

func (r *UserRepo) get(ctx context.Context, query string, args ...any) (model.User, error) {
	var u model.User
	var premium sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Avatar,
		&u.Verified, &premium, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if premium.Valid {
		t := premium.Time
		u.PremiumUntil = &t
	}
	return u, nil
}

func randomID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "u_" + hex.EncodeToString(buf), nil
}
