package store

import (
	"context"

	"github.com/phrazzld/users-qa/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create assigns the next id to user, saves it and returns the stored copy.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// Get retrieves a user by id.
	// Returns ErrUserNotFound if the user does not exist.
	Get(ctx context.Context, id int) (domain.User, error)

	// List returns the users with the given ids in ascending id order.
	// Unknown ids are ignored. With no ids every user is returned.
	List(ctx context.Context, ids ...int) ([]domain.User, error)

	// Update replaces the stored user with the same id.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user domain.User) (domain.User, error)

	// Delete removes a user by id.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id int) error
}
