// Package repository declares the storage interfaces consumed by the service
// layer. The sqlite subpackage provides the concrete implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/arefin/snippetbin/internal/model"
)

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id int64) (*model.Snippet, error)
	// List returns every snippet in creation order.
	List(ctx context.Context) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id int64) error
}

// UserRepository methods carry a User suffix so that a single type (the
// sqlite DB) can implement both repositories without name collisions.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}
