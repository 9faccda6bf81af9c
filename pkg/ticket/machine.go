package ticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/tableside/pkg/enums/itemstatus"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/enums/ticketstatus"
)

var (
	ErrUnknownStatus       = errors.New("unknown or non-persistent status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrForbiddenTransition = errors.New("role is not allowed to perform this transition")
)

type rule struct {
	from  ticketstatus.Status
	to    ticketstatus.Status
	roles []role.Role
}

var (
	st = ticketstatus.Statuses
	rl = role.Roles
)

var foodRules = []rule{
	{from: st.Placed, to: st.Cancelled, roles: []role.Role{rl.Guest, rl.Staff}},
	{from: st.Placed, to: st.Ready, roles: []role.Role{rl.Kitchen, rl.Staff}},
	{from: st.Ready, to: st.Served, roles: []role.Role{rl.Service, rl.Staff}},
	{from: st.Served, to: st.Paid, roles: []role.Role{rl.Service, rl.Guest, rl.Staff}},
}

// Requests skip ready: served means resolved.
var requestRules = []rule{
	{from: st.Placed, to: st.Cancelled, roles: []role.Role{rl.Guest, rl.Staff}},
	{from: st.Placed, to: st.Served, roles: []role.Role{rl.Service, rl.Staff}},
	{from: st.Served, to: st.Paid, roles: []role.Role{rl.Service, rl.Guest, rl.Staff}},
}

var settleRoles = []role.Role{rl.Guest, rl.Service, rl.Staff}

// Check reports whether actor may move t to the target status. It returns
// ErrUnknownStatus, ErrInvalidTransition or ErrForbiddenTransition.
func Check(t *Ticket, to string, actor role.Role) error {
	target := ticketstatus.ByName(to)
	if target == nil || !target.IsPersisted() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}

	current := ticketstatus.ByName(t.Status)
	if current == nil {
		return fmt.Errorf("%w: ticket has unknown status %q", ErrInvalidTransition, t.Status)
	}

	if current.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current.Code())
	}

	for _, r := range rulesFor(t) {
		if r.from == *current && r.to == *target {
			if hasRole(r.roles, actor) {
				return nil
			}
			return fmt.Errorf("%w: %s cannot move %s to %s", ErrForbiddenTransition, actor.Code(), current.Code(), target.Code())
		}
	}

	// Staff may cancel anything that is still open.
	if *target == st.Cancelled {
		if actor == rl.Staff {
			return nil
		}
		return fmt.Errorf("%w: only staff can cancel a %s ticket", ErrForbiddenTransition, current.Code())
	}

	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Code(), target.Code())
}

// Apply checks and performs the transition, cascading item statuses.
func Apply(t *Ticket, to string, actor role.Role, now time.Time) error {
	if err := Check(t, to, actor); err != nil {
		return err
	}

	switch to {
	case st.Ready.Code():
		cascadeItems(t.Items, itemstatus.Statuses.Pending, itemstatus.Statuses.Ready)
	case st.Served.Code():
		if t.IsRequest() {
			cascadeItems(t.Items, itemstatus.Statuses.Pending, itemstatus.Statuses.Served)
		}
		cascadeItems(t.Items, itemstatus.Statuses.Ready, itemstatus.Statuses.Served)
	}

	t.Status = to
	t.UpdatedAt = now
	return nil
}

// CanCancel reports whether the cancel action is offered to actor.
func CanCancel(t *Ticket, actor role.Role) bool {
	return Check(t, st.Cancelled.Code(), actor) == nil
}

// CanSettle reports whether settlement would close the ticket.
func CanSettle(t *Ticket) bool {
	return t.IsActive()
}

// Settle moves an open ticket straight to paid. It is the only path allowed to
// skip intermediate states.
func Settle(t *Ticket, actor role.Role, now time.Time) error {
	if err := CheckSettle(actor); err != nil {
		return err
	}
	if !CanSettle(t) {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, t.Status)
	}
	t.Status = st.Paid.Code()
	t.UpdatedAt = now
	return nil
}

// CheckSettle reports whether actor may settle a table.
func CheckSettle(actor role.Role) error {
	if !hasRole(settleRoles, actor) {
		return fmt.Errorf("%w: %s cannot settle a table", ErrForbiddenTransition, actor.Code())
	}
	return nil
}

// Targets lists the statuses actor can move t to.
func Targets(t *Ticket, actor role.Role) []string {
	var out []string
	for _, s := range ticketstatus.All {
		if Check(t, s.Code(), actor) == nil {
			out = append(out, s.Code())
		}
	}
	return out
}

// ItemRollup derives a parent status from partially fulfilled items: any
// pending item keeps the ticket placed, then any ready item keeps it ready.
func ItemRollup(items []Item) string {
	hasReady := false
	for _, item := range items {
		switch item.Status {
		case itemstatus.Statuses.Pending.Code(), "":
			return st.Placed.Code()
		case itemstatus.Statuses.Ready.Code():
			hasReady = true
		}
	}
	if hasReady {
		return st.Ready.Code()
	}
	return st.Served.Code()
}

func rulesFor(t *Ticket) []rule {
	if t.IsRequest() {
		return requestRules
	}
	return foodRules
}

func cascadeItems(items []Item, from, to itemstatus.Status) {
	for i := range items {
		if items[i].Status == from.Code() || (items[i].Status == "" && from == itemstatus.Statuses.Pending) {
			items[i].Status = to.Code()
		}
	}
}

func hasRole(roles []role.Role, actor role.Role) bool {
	for _, r := range roles {
		if r == actor {
			return true
		}
	}
	return false
}
