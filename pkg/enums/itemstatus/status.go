package itemstatus

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

type Enum struct {
	Pending Status
	Ready   Status
	Served  Status
}

var Statuses = Enum{
	Pending: Status{Name: "pending"},
	Ready:   Status{Name: "ready"},
	Served:  Status{Name: "served"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Ready,
	Statuses.Served,
}

func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
