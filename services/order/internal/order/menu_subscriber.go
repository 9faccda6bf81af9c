package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg"
)

// MenuSubscriber keeps a MenuCatalog in step with the menu service.
type MenuSubscriber struct {
	subscriber events.Subscriber
	catalog    *MenuCatalog
	logger     apt.Logger
}

func NewMenuSubscriber(sub events.Subscriber, catalog *MenuCatalog, logger apt.Logger) *MenuSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MenuSubscriber{
		subscriber: sub,
		catalog:    catalog,
		logger:     logger,
	}
}

func (s *MenuSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting menu subscriber", "topic", pkg.MenuTopic)
	if s.catalog != nil {
		if err := s.catalog.Warm(ctx); err != nil {
			s.logger.Info("menu catalog warmup failed", "error", err)
		}
	}
	if s.subscriber == nil {
		return fmt.Errorf("menu subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, pkg.MenuTopic, s.handleEvent)
}

func (s *MenuSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var event pkg.MenuItemEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Info("invalid menu event", "error", err)
		return nil
	}

	id, err := uuid.Parse(event.MenuItemID)
	if err != nil {
		s.logger.Info("invalid menu item id in event", "menu_item_id", event.MenuItemID)
		return nil
	}

	if event.EventType == pkg.EventMenuItemDeleted {
		s.catalog.Forget(id)
		s.logger.Debug("menu item forgotten", "menu_item_id", id.String())
		return nil
	}

	orderable := event.IsAvailable && (event.Stock == nil || *event.Stock > 0)
	s.catalog.Set(id, event.Name, orderable)
	s.logger.Debug("menu item availability updated", "menu_item_id", id.String(), "orderable", orderable)
	return nil
}
