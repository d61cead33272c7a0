package model

import "time"

// User is the session snapshot persisted so that login lookup keeps
// working offline.  The authentication flow owns and mutates the account;
// the store only keeps this copy.
//
// Fields:
//  ID           – unique identifier.
//  Email        – normalized (lower-cased, trimmed) email.
//  Name         – display name.
//  PasswordHash – bcrypt hash used for the offline login check.
//  Role         – "user", "premium", "owner" or "admin".
//  Avatar       – avatar image URI, may be empty.
//  Verified     – whether the account passed verification.
//  PremiumUntil – premium expiry, nil for non-premium accounts.
//  CreatedAt    – account creation time.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Avatar       string     `json:"avatar,omitempty"`
	Verified     bool       `json:"verified"`
	PremiumUntil *time.Time `json:"premiumUntil,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Roles recognised by the role middleware.
const (
	RoleUser    = "user"
	RolePremium = "premium"
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
)
