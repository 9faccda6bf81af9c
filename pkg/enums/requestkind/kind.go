// Package requestkind enumerates the service requests a guest can raise from
// the table. Requests travel as zero-price tickets.
package requestkind

type Kind struct {
	Name  string
	label string
}

func (k Kind) Code() string {
	return k.Name
}

// Label is the default text shown to staff when the guest gives none.
func (k Kind) Label() string {
	return k.label
}

// SettlesTable reports whether resolving the request ends the table session.
func (k Kind) SettlesTable() bool {
	return k.Name == Kinds.Bill.Name
}

type Enum struct {
	Water     Kind
	Bill      Kind
	Cutlery   Kind
	Napkins   Kind
	Seasoning Kind
	Clear     Kind
	Staff     Kind
	Custom    Kind
}

var Kinds = Enum{
	Water:     Kind{Name: "water", label: "Water Refill"},
	Bill:      Kind{Name: "bill", label: "Request Bill"},
	Cutlery:   Kind{Name: "cutlery", label: "Extra Cutlery"},
	Napkins:   Kind{Name: "napkins", label: "Napkins"},
	Seasoning: Kind{Name: "seasoning", label: "Salt & Pepper"},
	Clear:     Kind{Name: "clear", label: "Clear Table"},
	Staff:     Kind{Name: "staff", label: "Call Staff"},
	Custom:    Kind{Name: "custom", label: "Custom Request"},
}

var All = []Kind{
	Kinds.Water,
	Kinds.Bill,
	Kinds.Cutlery,
	Kinds.Napkins,
	Kinds.Seasoning,
	Kinds.Clear,
	Kinds.Staff,
	Kinds.Custom,
}

// ByName returns the kind for a given name, or nil if not found
func ByName(name string) *Kind {
	for _, k := range All {
		if k.Name == name {
			return &k
		}
	}
	return nil
}
