package store

import (
	"context"

	"github.com/RezaEskandarii/gohire/types"
)

// UserStore handles API users.
type UserStore interface {
	// Create adds a new user, replacing any user with the same name, and returns its ID.
	Create(ctx context.Context, username, password string) (int64, error)

	// Find looks up a user matching the given username and password.
	// It returns nil, nil when the username does not exist.
	Find(ctx context.Context, username, password string) (*types.User, error)

	FindByUsername(ctx context.Context, username string) (*types.User, error)

	Delete(ctx context.Context, username string) error
}
