package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// MenuCatalog remembers which menu items are currently orderable. It is
// warmed from the menu service and kept current by menu events. Items it has
// never heard of are treated as orderable.
type MenuCatalog struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]menuAvailability
	client *apt.ServiceClient
	logger apt.Logger
}

type menuAvailability struct {
	name      string
	orderable bool
}

func NewMenuCatalog(client *apt.ServiceClient, logger apt.Logger) *MenuCatalog {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MenuCatalog{
		items:  make(map[uuid.UUID]menuAvailability),
		client: client,
		logger: logger,
	}
}

func (c *MenuCatalog) Warm(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	resp, err := c.client.List(ctx, "menu")
	if err != nil {
		return fmt.Errorf("failed to list menu: %w", err)
	}

	var records []menuItemDTO
	if err := rehydrate(resp.Data, &records); err != nil {
		return fmt.Errorf("failed to decode menu: %w", err)
	}
	for _, record := range records {
		id, err := uuid.Parse(record.ID)
		if err != nil {
			c.logger.Debug("skipping invalid menu item id", "menu_item_id", record.ID)
			continue
		}
		c.Set(id, record.Name, record.orderable())
	}
	return nil
}

func (c *MenuCatalog) Set(id uuid.UUID, name string, orderable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = menuAvailability{name: name, orderable: orderable}
}

func (c *MenuCatalog) Forget(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

// Orderable reports whether id may be ordered and whether the catalog knows
// the item at all.
func (c *MenuCatalog) Orderable(id uuid.UUID) (orderable bool, known bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return true, false
	}
	return item.orderable, true
}

type menuItemDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsAvailable bool   `json:"isAvailable"`
	Stock       *int   `json:"stock,omitempty"`
}

func (m menuItemDTO) orderable() bool {
	return m.IsAvailable && (m.Stock == nil || *m.Stock > 0)
}

func rehydrate(data interface{}, out interface{}) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}
