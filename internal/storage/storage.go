package storage

import (
	"context"
	"errors"

	"github.com/campuslink/campuslink-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures the persistence operations the auth flow needs.
// Email uniqueness is enforced by the implementation, not by callers;
// concurrent Create calls with the same email must yield exactly one
// success and one ErrAlreadyExists.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}
