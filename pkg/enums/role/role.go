// Package role lists the actors allowed to move tickets through their
// lifecycle.
package role

type Role struct {
	Name string
}

func (r Role) Code() string {
	return r.Name
}

type Enum struct {
	Guest   Role
	Kitchen Role
	Service Role
	Staff   Role
}

var Roles = Enum{
	Guest:   Role{Name: "guest"},
	Kitchen: Role{Name: "kitchen"},
	Service: Role{Name: "service"},
	Staff:   Role{Name: "staff"},
}

var All = []Role{
	Roles.Guest,
	Roles.Kitchen,
	Roles.Service,
	Roles.Staff,
}

func ByName(name string) *Role {
	for _, r := range All {
		if r.Name == name {
			return &r
		}
	}
	return nil
}
