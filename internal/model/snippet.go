// Package model defines the data structures shared across the application.
package model

import "time"

// Snippet represents a stored code snippet.
//
// IDs are assigned by the database as an auto-incrementing integer, so they
// reflect creation order. A deleted snippet's ID is never handed out again.
//
// OwnerID is zero when the snippet has no owner (ownership enforcement
// disabled). Owner carries the owner's username for serialization only; it is
// populated by the repository from the users table and never written back.
type Snippet struct {
	ID        int64     `json:"id"              db:"id"`
	Code      string    `json:"code"            db:"code"`
	OwnerID   int64     `json:"-"               db:"owner_id"`
	Owner     string    `json:"owner,omitempty" db:"owner"`
	CreatedAt time.Time `json:"createdAt"       db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt"       db:"updated_at"`
}
