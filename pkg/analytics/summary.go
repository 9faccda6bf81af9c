// Package analytics aggregates the manager dashboard figures from the shared
// ticket list.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/enums/ticketstatus"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

const RecentLimit = 10

type BestSeller struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Summary struct {
	Revenue           float64         `json:"revenue"`
	PaidOrders        int             `json:"paidOrders"`
	AverageOrderValue float64         `json:"averageOrderValue"`
	ActiveOrders      int             `json:"activeOrders"`
	BestSeller        *BestSeller     `json:"bestSeller,omitempty"`
	Recent            []ticket.Ticket `json:"recent"`
}

// Summarize computes revenue over paid tickets, the average order value, the
// number of open tickets, the best selling dish by quantity and the last
// paid tickets.
func Summarize(tickets []ticket.Ticket) Summary {
	paidCode := ticketstatus.Statuses.Paid.Code()

	revenue := decimal.Zero
	var paid []ticket.Ticket
	active := 0
	sold := make(map[string]int)

	for _, t := range tickets {
		if t.IsActive() {
			active++
		}
		if t.Status != paidCode {
			continue
		}
		paid = append(paid, t)
		revenue = revenue.Add(decimal.NewFromFloat(t.TotalAmount))
		for _, item := range t.Items {
			if t.IsFood() {
				sold[item.Name] += item.Quantity
			}
		}
	}

	s := Summary{
		Revenue:      revenue.InexactFloat64(),
		PaidOrders:   len(paid),
		ActiveOrders: active,
		BestSeller:   bestSeller(sold),
		Recent:       recent(paid),
	}
	if len(paid) > 0 {
		s.AverageOrderValue = revenue.Div(decimal.NewFromInt(int64(len(paid)))).Round(2).InexactFloat64()
	}
	return s
}

func bestSeller(sold map[string]int) *BestSeller {
	var best *BestSeller
	for name, qty := range sold {
		if best == nil || qty > best.Quantity || (qty == best.Quantity && name < best.Name) {
			best = &BestSeller{Name: name, Quantity: qty}
		}
	}
	return best
}

func recent(paid []ticket.Ticket) []ticket.Ticket {
	out := make([]ticket.Ticket, len(paid))
	copy(out, paid)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > RecentLimit {
		out = out[:RecentLimit]
	}
	return out
}
