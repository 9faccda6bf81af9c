package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/ticket"
)

type TicketRepo interface {
	Create(ctx context.Context, t *ticket.Ticket) error
	Get(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error)
	List(ctx context.Context) ([]*ticket.Ticket, error)
	ListByStatus(ctx context.Context, status string) ([]*ticket.Ticket, error)
	ListByTable(ctx context.Context, tableID int) ([]*ticket.Ticket, error)
	Save(ctx context.Context, t *ticket.Ticket) error
	// SaveAll writes every ticket in one round trip.
	SaveAll(ctx context.Context, tickets []*ticket.Ticket) error
}
