package pkg

import "time"

const (
	// TicketsTopic carries every lifecycle change of an order or service request.
	TicketsTopic = "tickets.lifecycle"
	// TablesTopic carries table level outcomes such as settlement.
	TablesTopic = "tables.settlement"
	// MenuTopic carries menu item changes, including availability flips.
	MenuTopic = "menu.items"

	// EventTicketPlaced identifies a newly created ticket.
	EventTicketPlaced = "ticket.placed"
	// EventTicketStatusChanged identifies an applied status transition.
	EventTicketStatusChanged = "ticket.status.changed"
	// EventTableSettled identifies a completed table settlement.
	EventTableSettled = "table.settled"
	// EventMenuItemChanged identifies a created, updated or toggled menu item.
	EventMenuItemChanged = "menu.item.changed"
	// EventMenuItemDeleted identifies a removed menu item.
	EventMenuItemDeleted = "menu.item.deleted"
)

// TicketEvent is published by the order service whenever a ticket is created
// or moves to another status.
type TicketEvent struct {
	EventType      string    `json:"event_type"`
	TicketID       string    `json:"ticket_id"`
	TableID        int       `json:"table_id"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// TableSettledEvent reports how many tickets a settlement closed and the
// amount charged.
type TableSettledEvent struct {
	EventType  string    `json:"event_type"`
	TableID    int       `json:"table_id"`
	Count      int       `json:"count"`
	Total      float64   `json:"total"`
	CouponCode string    `json:"coupon_code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MenuItemEvent carries the availability of a menu item so that ordering can
// refuse dishes the kitchen switched off.
type MenuItemEvent struct {
	EventType   string    `json:"event_type"`
	MenuItemID  string    `json:"menu_item_id"`
	Name        string    `json:"name"`
	IsAvailable bool      `json:"is_available"`
	Stock       *int      `json:"stock,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
