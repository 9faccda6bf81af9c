package ticket

import (
	"fmt"
	"time"

	"github.com/appetiteclub/tableside/pkg/enums/requestkind"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/enums/ticketstatus"
)

// DemoSeedID names the demo data set in seed trackers. Every writer of the
// demo tickets uses it, under the same application, so they are inserted at
// most once per database.
const (
	DemoSeedID          = "2025-01-20_demo_tickets_v1"
	DemoSeedApplication = "order_demo"
)

type demoScenario struct {
	tableID int
	guest   string
	age     time.Duration
	target  string
	items   []Item
	request *requestkind.Kind
}

func demoScenarios() []demoScenario {
	water := requestkind.Kinds.Water
	return []demoScenario{
		{tableID: 1, guest: "Anjali", age: 4 * time.Minute, target: "placed", items: []Item{
			{Name: "Butter Chicken", Category: "Mains", Quantity: 1, Price: 280},
			{Name: "Kerala Parotta", Category: "Breads/Rice", Quantity: 3, Price: 40},
		}},
		{tableID: 2, guest: "Rahul", age: 17 * time.Minute, target: "placed", items: []Item{
			{Name: "Beef Fry", Category: "Mains", Quantity: 2, Price: 380},
		}},
		{tableID: 3, guest: "Meera", age: 12 * time.Minute, target: "ready", items: []Item{
			{Name: "Gobi Manchurian", Category: "Starters", Quantity: 1, Price: 240},
			{Name: "Palada Payasam", Category: "Dessert", Quantity: 2, Price: 180},
		}},
		{tableID: 4, guest: "Arjun", age: 35 * time.Minute, target: "served", items: []Item{
			{Name: "Malabar Chicken Biriyani", Category: "Mains", Quantity: 2, Price: 320},
		}},
		{tableID: 4, guest: "Arjun", age: 6 * time.Minute, target: "placed", request: &water},
		{tableID: 5, guest: "Fathima", age: 90 * time.Minute, target: "paid", items: []Item{
			{Name: "Butter Chicken", Category: "Mains", Quantity: 2, Price: 280},
			{Name: "Palada Payasam", Category: "Dessert", Quantity: 1, Price: 180},
		}},
	}
}

// DemoTickets builds a few tables in different stages of their meal,
// relative to now. Each ticket is walked through the status machine so its
// history looks like real service.
func DemoTickets(now time.Time) ([]*Ticket, error) {
	scenarios := demoScenarios()
	tickets := make([]*Ticket, 0, len(scenarios))

	for _, sc := range scenarios {
		var t *Ticket
		if sc.request != nil {
			t = NewServiceRequest(sc.tableID, sc.guest, *sc.request, "")
		} else {
			t = NewFoodOrder(sc.tableID, sc.guest, sc.items)
		}

		created := now.Add(-sc.age)
		t.CreatedAt = created
		t.UpdatedAt = created

		if err := advanceDemo(t, sc.target, created); err != nil {
			return nil, fmt.Errorf("advance demo ticket for table %d: %w", sc.tableID, err)
		}
		tickets = append(tickets, t)
	}

	return tickets, nil
}

func advanceDemo(t *Ticket, target string, at time.Time) error {
	st := ticketstatus.Statuses
	staff := role.Roles.Staff

	var path []string
	switch target {
	case st.Ready.Code():
		path = []string{st.Ready.Code()}
	case st.Served.Code():
		path = []string{st.Ready.Code(), st.Served.Code()}
	case st.Paid.Code():
		path = []string{st.Ready.Code(), st.Served.Code(), st.Paid.Code()}
	}

	for i, next := range path {
		if err := Apply(t, next, staff, at.Add(time.Duration(i+1)*time.Minute)); err != nil {
			return err
		}
	}
	return nil
}
