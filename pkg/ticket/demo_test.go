package ticket

import (
	"testing"
	"time"
)

func TestDemoTickets(t *testing.T) {
	now := time.Date(2025, 1, 20, 19, 30, 0, 0, time.UTC)

	tickets, err := DemoTickets(now)
	if err != nil {
		t.Fatalf("DemoTickets() error = %v", err)
	}

	counts := map[string]int{}
	ids := map[string]bool{}
	for _, tk := range tickets {
		counts[tk.Status]++
		ids[tk.ID.String()] = true

		if errs := tk.Validate(); len(errs) > 0 {
			t.Errorf("demo ticket for table %d is invalid: %v", tk.TableID, errs)
		}
		if !tk.CreatedAt.Before(now) {
			t.Errorf("demo ticket for table %d created at %v, want before %v", tk.TableID, tk.CreatedAt, now)
		}
		if tk.UpdatedAt.Before(tk.CreatedAt) {
			t.Errorf("demo ticket for table %d updated before it was created", tk.TableID)
		}
	}

	if len(ids) != len(tickets) {
		t.Errorf("demo tickets share ids: %d unique of %d", len(ids), len(tickets))
	}
	if counts["placed"] != 3 || counts["ready"] != 1 || counts["served"] != 1 || counts["paid"] != 1 {
		t.Errorf("unexpected status distribution %v", counts)
	}
}
