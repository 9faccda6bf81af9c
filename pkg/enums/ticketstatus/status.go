package ticketstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if s.Name == "" {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

// IsTerminal reports whether no further transition can leave the status.
func (s Status) IsTerminal() bool {
	return s == Statuses.Paid || s == Statuses.Cancelled
}

// IsPersisted reports whether the order service stores the status. Cooking
// only exists inside kitchen displays.
func (s Status) IsPersisted() bool {
	return s != Statuses.Cooking
}

type Enum struct {
	Placed    Status
	Cooking   Status
	Ready     Status
	Served    Status
	Paid      Status
	Cancelled Status
}

var Statuses = Enum{
	Placed:    Status{Name: "placed"},
	Cooking:   Status{Name: "cooking"},
	Ready:     Status{Name: "ready"},
	Served:    Status{Name: "served"},
	Paid:      Status{Name: "paid"},
	Cancelled: Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Placed,
	Statuses.Cooking,
	Statuses.Ready,
	Statuses.Served,
	Statuses.Paid,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
