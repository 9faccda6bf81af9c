package ticket

import (
	"testing"

	"github.com/appetiteclub/tableside/pkg/enums/requestkind"
)

func TestNewFoodOrder(t *testing.T) {
	items := []Item{
		{Name: "Malabar Chicken Biriyani", Quantity: 2, Price: 320},
		{Name: "Fresh Lime Soda", Quantity: 1, Price: 80},
	}
	tk := NewFoodOrder(3, "  ", items)

	if tk.GuestName != "Guest" {
		t.Errorf("GuestName = %q, want Guest", tk.GuestName)
	}
	if tk.Status != "placed" {
		t.Errorf("Status = %q, want placed", tk.Status)
	}
	if tk.TotalAmount != 720 {
		t.Errorf("TotalAmount = %v, want 720", tk.TotalAmount)
	}
	if items[0].Status != "" {
		t.Error("NewFoodOrder() mutated the caller's items")
	}
	if tk.Items[0].Status != "pending" {
		t.Errorf("Items[0].Status = %q, want pending", tk.Items[0].Status)
	}
}

func TestNewServiceRequest(t *testing.T) {
	tk := NewServiceRequest(5, "Ravi", requestkind.Kinds.Bill, "")

	if !tk.IsRequest() {
		t.Fatal("IsRequest() = false")
	}
	if tk.TotalAmount != 0 {
		t.Errorf("TotalAmount = %v, want 0", tk.TotalAmount)
	}
	if tk.Items[0].Name != "Request Bill" {
		t.Errorf("Items[0].Name = %q, want default label", tk.Items[0].Name)
	}
	if !tk.SettlesTable() {
		t.Error("SettlesTable() = false for a bill request")
	}

	water := NewServiceRequest(5, "Ravi", requestkind.Kinds.Custom, "Bill me later, water first")
	if water.SettlesTable() {
		t.Error("SettlesTable() = true for a custom request mentioning bill")
	}
}

func TestTicketValidate(t *testing.T) {
	tests := []struct {
		name     string
		ticket   *Ticket
		wantErrs int
	}{
		{
			name:     "validOrder",
			ticket:   NewFoodOrder(1, "A", []Item{{Name: "Beef Fry", Quantity: 1, Price: 380}}),
			wantErrs: 0,
		},
		{
			name:     "emptyOrder",
			ticket:   NewFoodOrder(1, "A", nil),
			wantErrs: 1,
		},
		{
			name:     "zeroQuantityAndNoName",
			ticket:   NewFoodOrder(1, "A", []Item{{Quantity: 0, Price: 10}}),
			wantErrs: 2,
		},
		{
			name:     "missingTable",
			ticket:   NewFoodOrder(0, "A", []Item{{Name: "Beef Fry", Quantity: 1, Price: 380}}),
			wantErrs: 1,
		},
		{
			name:     "validRequest",
			ticket:   NewServiceRequest(2, "A", requestkind.Kinds.Water, ""),
			wantErrs: 0,
		},
		{
			name:     "unknownType",
			ticket:   &Ticket{TableID: 2, Type: "drink"},
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ticket.Validate(); len(got) != tt.wantErrs {
				t.Errorf("Validate() = %v, want %d errors", got, tt.wantErrs)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	got := Total([]Item{{Price: 0.1, Quantity: 3}, {Price: 0.2, Quantity: 1}})
	if got != 0.5 {
		t.Errorf("Total() = %v, want 0.5", got)
	}
}

func TestTicketResourceType(t *testing.T) {
	tk := &Ticket{}
	if got := tk.ResourceType(); got != "order" {
		t.Errorf("Ticket.ResourceType() = %q, want %q", got, "order")
	}
}
