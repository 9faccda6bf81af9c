package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/appetiteclub/tableside/pkg"
	"github.com/appetiteclub/tableside/pkg/enums/requestkind"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

func TestHandlerSettleTable(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		path           string
		body           interface{}
		expectedStatus int
		wantCount      int
		wantTotal      float64
		wantPaid       bool
	}{
		{
			name:           "settleWithoutCoupon",
			path:           "/api/tables/4/settle",
			expectedStatus: http.StatusOK,
			wantCount:      2,
			wantTotal:      269,
			wantPaid:       true,
		},
		{
			name:           "settleAsGuest",
			path:           "/api/tables/4/settle?actor=guest",
			body:           SettleRequest{},
			expectedStatus: http.StatusOK,
			wantCount:      2,
			wantTotal:      269,
			wantPaid:       true,
		},
		{
			name:           "percentCoupon",
			path:           "/api/tables/4/settle",
			body:           SettleRequest{CouponCode: "hdfc5"},
			expectedStatus: http.StatusOK,
			wantCount:      2,
			wantTotal:      255,
			wantPaid:       true,
		},
		{
			name:           "couponBelowMinimum",
			path:           "/api/tables/4/settle",
			body:           SettleRequest{CouponCode: "WELCOME100"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknownCoupon",
			path:           "/api/tables/4/settle",
			body:           SettleRequest{CouponCode: "FREEFOOD"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "kitchenCannotSettle",
			path:           "/api/tables/4/settle?actor=kitchen",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "invalidTable",
			path:           "/api/tables/zero/settle",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "emptyTable",
			path:           "/api/tables/9/settle",
			expectedStatus: http.StatusOK,
			wantCount:      0,
			wantTotal:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockTicketRepo()
			served := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440041", 4, "served", now.Add(-30*time.Minute))
			placed := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440042", 4, "placed", now.Add(-5*time.Minute))
			placed.Items = nil
			repo.put(placed)
			cancelled := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440043", 4, "cancelled", now.Add(-20*time.Minute))
			other := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440044", 5, "placed", now)
			publisher := NewMockPublisher()
			_, router := newTestHandler(repo, publisher)

			w := doRequest(t, router, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("SettleTable() status = %d, want %d, body: %s", w.Code, tt.expectedStatus, w.Body.String())
			}

			if repo.stored(cancelled.ID).Status != "cancelled" {
				t.Error("settlement must not touch cancelled tickets")
			}
			if repo.stored(other.ID).Status != "placed" {
				t.Error("settlement must not touch other tables")
			}

			if tt.expectedStatus != http.StatusOK {
				if repo.stored(served.ID).Status != "served" || repo.stored(placed.ID).Status != "placed" {
					t.Error("refused settlement must leave the table unchanged")
				}
				if len(publisher.Published(pkg.TablesTopic)) != 0 {
					t.Error("refused settlement must not publish")
				}
				return
			}

			var resp SettleResponse
			decodeData(t, w, &resp)

			if resp.Status != "cleared" {
				t.Errorf("SettleTable() status = %q, want cleared", resp.Status)
			}
			if resp.Count != tt.wantCount {
				t.Errorf("SettleTable() count = %d, want %d", resp.Count, tt.wantCount)
			}
			if resp.Bill.Total != tt.wantTotal {
				t.Errorf("SettleTable() total = %v, want %v", resp.Bill.Total, tt.wantTotal)
			}
			if tt.wantPaid {
				if repo.stored(served.ID).Status != "paid" || repo.stored(placed.ID).Status != "paid" {
					t.Error("settlement must mark every open ticket paid")
				}
			}
			if got := len(publisher.Published(pkg.TablesTopic)); got != 1 {
				t.Errorf("SettleTable() published %d table events, want 1", got)
			}
		})
	}
}

func TestHandlerServingBillRequestSettlesTable(t *testing.T) {
	repo := NewMockTicketRepo()
	now := time.Now().UTC()
	food := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440051", 6, "served", now.Add(-40*time.Minute))

	bill := ticket.NewServiceRequest(6, "Asha", requestkind.Kinds.Bill, "")
	bill.CreatedAt = now
	repo.put(bill)

	water := ticket.NewServiceRequest(6, "Asha", requestkind.Kinds.Water, "")
	water.CreatedAt = now
	repo.put(water)

	publisher := NewMockPublisher()
	_, router := newTestHandler(repo, publisher)

	w := doRequest(t, router, http.MethodPatch, "/api/orders/"+water.ID.String()+"/status?status=served&actor=service", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("UpdateOrderStatus() status = %d, want %d", w.Code, http.StatusOK)
	}
	if repo.stored(food.ID).Status != "served" {
		t.Fatal("serving a water request must not settle the table")
	}

	w = doRequest(t, router, http.MethodPatch, "/api/orders/"+bill.ID.String()+"/status?status=served&actor=service", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("UpdateOrderStatus() status = %d, want %d", w.Code, http.StatusOK)
	}

	var updated ticket.Ticket
	decodeData(t, w, &updated)
	if updated.Status != "paid" {
		t.Errorf("bill request status = %q, want paid", updated.Status)
	}
	for _, id := range []string{food.ID.String(), bill.ID.String(), water.ID.String()} {
		for _, stored := range repo.filter(func(t *ticket.Ticket) bool { return t.ID.String() == id }) {
			if stored.Status != "paid" {
				t.Errorf("ticket %s status = %q, want paid", id, stored.Status)
			}
		}
	}
	if got := len(publisher.Published(pkg.TablesTopic)); got != 1 {
		t.Errorf("published %d table events, want 1", got)
	}
}

func TestHandlerBillRequestKeptOpenWhenSettlementFails(t *testing.T) {
	repo := NewMockTicketRepo()
	now := time.Now().UTC()
	food := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440061", 7, "served", now.Add(-40*time.Minute))

	bill := ticket.NewServiceRequest(7, "Asha", requestkind.Kinds.Bill, "")
	bill.CreatedAt = now
	repo.put(bill)

	repo.SaveAllFunc = func(ctx context.Context, tickets []*ticket.Ticket) error {
		return errors.New("write conflict")
	}
	publisher := NewMockPublisher()
	_, router := newTestHandler(repo, publisher)

	w := doRequest(t, router, http.MethodPatch, "/api/orders/"+bill.ID.String()+"/status?status=served&actor=service", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("UpdateOrderStatus() status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := repo.stored(bill.ID).Status; got != "placed" {
		t.Errorf("bill request status = %q, want placed", got)
	}
	if got := repo.stored(food.ID).Status; got != "served" {
		t.Errorf("food status = %q, want served", got)
	}
	if len(publisher.Published(pkg.TicketsTopic)) != 0 || len(publisher.Published(pkg.TablesTopic)) != 0 {
		t.Error("failed settlement must not publish")
	}
}

func TestHandlerSettleTableWritesOnce(t *testing.T) {
	repo := NewMockTicketRepo()
	now := time.Now().UTC()
	first := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440071", 8, "served", now.Add(-30*time.Minute))
	second := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440072", 8, "ready", now.Add(-10*time.Minute))

	var batches [][]*ticket.Ticket
	repo.SaveFunc = func(ctx context.Context, t *ticket.Ticket) error {
		return errors.New("settlement must not save tickets one by one")
	}
	repo.SaveAllFunc = func(ctx context.Context, tickets []*ticket.Ticket) error {
		batches = append(batches, tickets)
		return errors.New("connection reset")
	}
	publisher := NewMockPublisher()
	_, router := newTestHandler(repo, publisher)

	w := doRequest(t, router, http.MethodPost, "/api/tables/8/settle", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("SettleTable() status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("SettleTable() wrote %d batches, want one batch of 2", len(batches))
	}
	if repo.stored(first.ID).Status != "served" || repo.stored(second.ID).Status != "ready" {
		t.Error("failed write must leave stored tickets unchanged")
	}
	if len(publisher.Published(pkg.TablesTopic)) != 0 {
		t.Error("failed settlement must not publish")
	}
}

func TestHandlerTableSession(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name       string
		setup      func(*MockTicketRepo)
		path       string
		wantActive bool
		wantGuest  string
		wantStatus string
	}{
		{
			name:       "noTickets",
			setup:      func(*MockTicketRepo) {},
			path:       "/api/tables/4/session",
			wantActive: false,
		},
		{
			name: "newestActiveFoodOrderWins",
			setup: func(repo *MockTicketRepo) {
				older := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440061", 4, "ready", now.Add(-30*time.Minute))
				older.GuestName = "A"
				repo.put(older)
				newer := seedTicket(repo, "550e8400-e29b-41d4-a716-446655440062", 4, "placed", now.Add(-2*time.Minute))
				newer.GuestName = "B"
				repo.put(newer)
			},
			path:       "/api/tables/4/session",
			wantActive: true,
			wantGuest:  "B",
			wantStatus: "placed",
		},
		{
			name: "terminalTicketsAreNotASession",
			setup: func(repo *MockTicketRepo) {
				seedTicket(repo, "550e8400-e29b-41d4-a716-446655440063", 4, "paid", now)
				seedTicket(repo, "550e8400-e29b-41d4-a716-446655440064", 4, "cancelled", now)
			},
			path:       "/api/tables/4/session",
			wantActive: false,
		},
		{
			name: "requestsAreNotASession",
			setup: func(repo *MockTicketRepo) {
				repo.put(ticket.NewServiceRequest(4, "C", requestkind.Kinds.Napkins, ""))
			},
			path:       "/api/tables/4/session",
			wantActive: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockTicketRepo()
			tt.setup(repo)
			_, router := newTestHandler(repo, NewMockPublisher())

			w := doRequest(t, router, http.MethodGet, tt.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("TableSession() status = %d, want %d", w.Code, http.StatusOK)
			}

			var resp SessionResponse
			decodeData(t, w, &resp)
			if resp.Active != tt.wantActive {
				t.Fatalf("TableSession() active = %v, want %v", resp.Active, tt.wantActive)
			}
			if resp.GuestName != tt.wantGuest {
				t.Errorf("TableSession() guestName = %q, want %q", resp.GuestName, tt.wantGuest)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("TableSession() status = %q, want %q", resp.Status, tt.wantStatus)
			}
		})
	}
}

func TestHandlerTableSessionInvalidTable(t *testing.T) {
	_, router := newTestHandler(NewMockTicketRepo(), NewMockPublisher())

	w := doRequest(t, router, http.MethodGet, "/api/tables/-3/session", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("TableSession() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSettleResponseShape(t *testing.T) {
	raw, err := json.Marshal(SettleResponse{Status: clearedStatus, Count: 2})
	if err != nil {
		t.Fatalf("cannot marshal: %v", err)
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("cannot unmarshal: %v", err)
	}
	for _, key := range []string{"status", "count", "bill"} {
		if _, ok := generic[key]; !ok {
			t.Errorf("settle response missing %q", key)
		}
	}
}
