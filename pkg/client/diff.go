package client

import (
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/ticket"
)

type EventKind string

const (
	// EventNewTickets fires when a poll returns more tickets than the
	// previous one.
	EventNewTickets EventKind = "new_tickets"
	// EventStatusChanged fires for each ticket whose status moved between
	// two polls.
	EventStatusChanged EventKind = "status_changed"
)

type Event struct {
	Kind     EventKind
	Count    int
	TicketID uuid.UUID
	From     string
	To       string
}

// DiffEvents compares two consecutive polls. Nothing is reported until a
// previous poll has loaded, and the new-ticket event only fires when the
// count strictly grows.
func DiffEvents(prev, next []ticket.Ticket, loaded bool) []Event {
	if !loaded {
		return nil
	}

	var events []Event
	if len(next) > len(prev) {
		events = append(events, Event{Kind: EventNewTickets, Count: len(next) - len(prev)})
	}

	before := make(map[uuid.UUID]string, len(prev))
	for _, t := range prev {
		before[t.ID] = t.Status
	}
	for _, t := range next {
		if status, ok := before[t.ID]; ok && status != t.Status {
			events = append(events, Event{
				Kind:     EventStatusChanged,
				TicketID: t.ID,
				From:     status,
				To:       t.Status,
			})
		}
	}

	return events
}

// HasNewTickets reports whether events contain a new-ticket event.
func HasNewTickets(events []Event) bool {
	for _, e := range events {
		if e.Kind == EventNewTickets {
			return true
		}
	}
	return false
}
