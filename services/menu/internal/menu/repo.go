package menu

import (
	"context"

	"github.com/google/uuid"
)

// MenuItemRepo defines the repository interface for menu items.
// Get returns nil, nil when the item does not exist.
type MenuItemRepo interface {
	Create(ctx context.Context, item *MenuItem) error
	Get(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	List(ctx context.Context) ([]*MenuItem, error)
	Count(ctx context.Context) (int64, error)
	Save(ctx context.Context, item *MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
