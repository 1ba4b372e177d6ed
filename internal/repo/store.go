package repo

import (
	"context"
	"strings"

	"github.com/crucial707/hci-todo/internal/models"
)

// UsernameKey is the canonical form used for username uniqueness and lookup.
// Every store compares keys, never raw names.
func UsernameKey(username string) string {
	return strings.ToLower(username)
}

// UserStore persists accounts. Usernames are unique without regard to case;
// Create returns ErrConflict when the name is taken.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash, role string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// TodoStore persists todo items. Lookups of a missing id return ErrNotFound.
type TodoStore interface {
	List(ctx context.Context) ([]models.Todo, error)
	GetByID(ctx context.Context, id int) (*models.Todo, error)
	Create(ctx context.Context, name string, isComplete bool) (*models.Todo, error)
	Update(ctx context.Context, id int, name string, isComplete bool) (*models.Todo, error)
	Delete(ctx context.Context, id int) error
}
