// Package ticket holds the order and service-request model shared by the
// order service and its clients, together with the status machine that
// governs it.
package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/enums/itemstatus"
	"github.com/appetiteclub/tableside/pkg/enums/requestkind"
	"github.com/appetiteclub/tableside/pkg/enums/ticketstatus"
)

const (
	TypeFood    = "food"
	TypeRequest = "request"

	DefaultGuestName = "Guest"
)

// Item is a line of a ticket. Name and price are copied from the menu at
// ordering time so later menu edits never alter history.
type Item struct {
	MenuItemID *uuid.UUID `json:"menuItemId,omitempty" bson:"menu_item_id,omitempty"`
	Name       string     `json:"name" bson:"name"`
	Category   string     `json:"category,omitempty" bson:"category,omitempty"`
	Quantity   int        `json:"quantity" bson:"quantity"`
	Notes      string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Price      float64    `json:"price" bson:"price"`
	Status     string     `json:"status,omitempty" bson:"status,omitempty"`
}

// Request tags a request ticket with what the guest asked for.
type Request struct {
	Kind  string `json:"kind" bson:"kind"`
	Label string `json:"label" bson:"label"`
}

type Ticket struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	TableID     int       `json:"tableId" bson:"table_id"`
	GuestName   string    `json:"guestName" bson:"guest_name"`
	Type        string    `json:"type" bson:"type"`
	Request     *Request  `json:"request,omitempty" bson:"request,omitempty"`
	Status      string    `json:"status" bson:"status"`
	Items       []Item    `json:"items" bson:"items"`
	TotalAmount float64   `json:"totalAmount" bson:"total_amount"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

func (t *Ticket) GetID() uuid.UUID {
	return t.ID
}

func (t *Ticket) ResourceType() string {
	return "order"
}

func (t *Ticket) SetID(id uuid.UUID) {
	t.ID = id
}

func (t *Ticket) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = apt.GenerateNewID()
	}
}

func (t *Ticket) BeforeCreate() {
	t.EnsureID()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

func (t *Ticket) BeforeUpdate() {
	t.UpdatedAt = time.Now().UTC()
}

// NewFoodOrder builds a placed food ticket. The total is fixed here and is
// never recomputed afterwards.
func NewFoodOrder(tableID int, guestName string, items []Item) *Ticket {
	lines := make([]Item, len(items))
	copy(lines, items)
	for i := range lines {
		lines[i].Status = itemstatus.Statuses.Pending.Code()
	}

	return &Ticket{
		ID:          apt.GenerateNewID(),
		TableID:     tableID,
		GuestName:   normalizeGuestName(guestName),
		Type:        TypeFood,
		Status:      ticketstatus.Statuses.Placed.Code(),
		Items:       lines,
		TotalAmount: Total(lines),
	}
}

// NewServiceRequest builds a zero-price request ticket carrying a single line
// named after the request.
func NewServiceRequest(tableID int, guestName string, kind requestkind.Kind, label string) *Ticket {
	label = strings.TrimSpace(label)
	if label == "" {
		label = kind.Label()
	}

	return &Ticket{
		ID:        apt.GenerateNewID(),
		TableID:   tableID,
		GuestName: normalizeGuestName(guestName),
		Type:      TypeRequest,
		Request:   &Request{Kind: kind.Code(), Label: label},
		Status:    ticketstatus.Statuses.Placed.Code(),
		Items: []Item{{
			Name:     label,
			Quantity: 1,
			Price:    0,
			Status:   itemstatus.Statuses.Pending.Code(),
		}},
	}
}

func (t *Ticket) IsFood() bool {
	return t.Type == TypeFood
}

func (t *Ticket) IsRequest() bool {
	return t.Type == TypeRequest
}

// IsActive reports whether the ticket is still outside paid and cancelled.
func (t *Ticket) IsActive() bool {
	s := ticketstatus.ByName(t.Status)
	return s != nil && !s.IsTerminal()
}

// SettlesTable reports whether resolving this ticket ends the table session.
func (t *Ticket) SettlesTable() bool {
	if !t.IsRequest() || t.Request == nil {
		return false
	}
	kind := requestkind.ByName(t.Request.Kind)
	return kind != nil && kind.SettlesTable()
}

// Validate checks the creation invariants and returns one message per
// violation.
func (t *Ticket) Validate() []string {
	var errs []string

	if t.TableID <= 0 {
		errs = append(errs, "tableId must be a positive number")
	}

	switch t.Type {
	case TypeFood:
		if len(t.Items) == 0 {
			errs = append(errs, "a food order needs at least one item")
		}
		for i, item := range t.Items {
			if strings.TrimSpace(item.Name) == "" {
				errs = append(errs, fmt.Sprintf("items[%d].name is required", i))
			}
			if item.Quantity < 1 {
				errs = append(errs, fmt.Sprintf("items[%d].quantity must be at least 1", i))
			}
			if item.Price < 0 {
				errs = append(errs, fmt.Sprintf("items[%d].price cannot be negative", i))
			}
		}
	case TypeRequest:
		if t.Request == nil || requestkind.ByName(t.Request.Kind) == nil {
			errs = append(errs, "request.kind must be one of the known request kinds")
		}
		if len(t.Items) != 1 || t.Items[0].Price != 0 {
			errs = append(errs, "a request carries exactly one zero-price item")
		}
	default:
		errs = append(errs, fmt.Sprintf("type must be %q or %q", TypeFood, TypeRequest))
	}

	return errs
}

// Total sums price by quantity over the items.
func Total(items []Item) float64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum.InexactFloat64()
}

func normalizeGuestName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultGuestName
	}
	return name
}
