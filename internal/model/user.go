package model

import "time"

// User represents a registered account.
//
// Users authenticate with username and password. The bcrypt hash lives in
// PasswordHash and is excluded from every JSON response via the `json:"-"`
// tag. IsSuperuser is informational; it grants no extra API permissions —
// ownership is the sole authorization rule.
type User struct {
	ID           int64     `json:"id"          db:"id"`
	Username     string    `json:"username"    db:"username"`
	Email        string    `json:"email"       db:"email"`
	PasswordHash string    `json:"-"           db:"password_hash"`
	IsSuperuser  bool      `json:"isSuperuser" db:"is_superuser"`
	CreatedAt    time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"   db:"updated_at"`
}
