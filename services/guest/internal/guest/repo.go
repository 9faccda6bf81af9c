package guest

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrPhoneTaken is returned by Create when another guest already owns the
// phone number.
var ErrPhoneTaken = errors.New("phone already registered")

// UserRepo stores guests. Get and FindByPhone return nil, nil when nothing
// matches.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	Save(ctx context.Context, user *User) error
	AddPreferences(ctx context.Context, id uuid.UUID, prefs []string) (*User, error)
}
