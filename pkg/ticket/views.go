package ticket

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/enums/ticketstatus"
)

const (
	KitchenLateAfter = 15 * time.Minute
	RequestLateAfter = 5 * time.Minute
	WarningAfter     = 10 * time.Minute
	CriticalAfter    = 20 * time.Minute
)

type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyWarning
	UrgencyCritical
)

var guestPriority = map[string]int{
	ticketstatus.Statuses.Placed.Code():  4,
	ticketstatus.Statuses.Cooking.Code(): 3,
	ticketstatus.Statuses.Ready.Code():   2,
	ticketstatus.Statuses.Served.Code():  1,
}

// KitchenQueue returns the food tickets waiting for the kitchen, oldest first.
func KitchenQueue(tickets []Ticket) []Ticket {
	return fifo(filter(tickets, func(t *Ticket) bool {
		return t.IsFood() && t.Status == ticketstatus.Statuses.Placed.Code()
	}))
}

// ServiceQueue returns what waiters must act on: food ready for pickup and
// unresolved requests, oldest first.
func ServiceQueue(tickets []Ticket) []Ticket {
	return fifo(filter(tickets, func(t *Ticket) bool {
		if t.IsFood() {
			return t.Status == ticketstatus.Statuses.Ready.Code()
		}
		return t.Status == ticketstatus.Statuses.Placed.Code()
	}))
}

// GuestTickets returns the table's tickets ordered by how much attention they
// still need, newest first among equals. Tickets listed in cooking are shown
// with the kitchen-only cooking status.
func GuestTickets(tickets []Ticket, tableID int, cooking map[uuid.UUID]bool) []Ticket {
	out := filter(tickets, func(t *Ticket) bool {
		return t.TableID == tableID
	})
	for i := range out {
		out[i].Status = DisplayStatus(&out[i], cooking)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := guestPriority[out[i].Status], guestPriority[out[j].Status]
		if pi != pj {
			return pi > pj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// CurrentOrder returns the newest active food ticket of the table, or nil.
func CurrentOrder(tickets []Ticket, tableID int) *Ticket {
	var current *Ticket
	for i := range tickets {
		t := &tickets[i]
		if t.TableID != tableID || !t.IsFood() || !t.IsActive() {
			continue
		}
		if current == nil || t.CreatedAt.After(current.CreatedAt) {
			current = t
		}
	}
	if current == nil {
		return nil
	}
	found := *current
	return &found
}

// DisplayStatus overlays the kitchen cooking sub-state on placed tickets.
func DisplayStatus(t *Ticket, cooking map[uuid.UUID]bool) string {
	if t.Status == ticketstatus.Statuses.Placed.Code() && cooking[t.ID] {
		return ticketstatus.Statuses.Cooking.Code()
	}
	return t.Status
}

// ElapsedMinutes is the whole number of minutes since creation.
func ElapsedMinutes(t *Ticket, now time.Time) int {
	d := now.Sub(t.CreatedAt)
	if d < 0 {
		return 0
	}
	return int(math.Floor(d.Minutes()))
}

// IsLate flags food waiting more than fifteen minutes and requests waiting
// more than five.
func IsLate(t *Ticket, now time.Time) bool {
	limit := KitchenLateAfter
	if t.IsRequest() {
		limit = RequestLateAfter
	}
	return now.Sub(t.CreatedAt) > limit
}

func UrgencyOf(t *Ticket, now time.Time) Urgency {
	minutes := time.Duration(ElapsedMinutes(t, now)) * time.Minute
	switch {
	case minutes >= CriticalAfter:
		return UrgencyCritical
	case minutes >= WarningAfter:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

func filter(tickets []Ticket, keep func(*Ticket) bool) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for i := range tickets {
		if keep(&tickets[i]) {
			out = append(out, tickets[i])
		}
	}
	return out
}

func fifo(tickets []Ticket) []Ticket {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets
}
