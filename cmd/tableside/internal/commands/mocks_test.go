package commands

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/billing"
	"github.com/appetiteclub/tableside/pkg/client"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

var fixedNow = time.Date(2025, 1, 20, 19, 30, 0, 0, time.UTC)

// MockAPI serves tickets, menu and guests from memory.
type MockAPI struct {
	mu      sync.Mutex
	tickets []ticket.Ticket
	menu    []client.MenuItem
	users   map[string]*client.User
	created []client.CreateOrderRequest
	settled []int

	ListOrdersFunc func(ctx context.Context, status string) ([]ticket.Ticket, error)
}

func NewMockAPI() *MockAPI {
	return &MockAPI{users: make(map[string]*client.User)}
}

func (m *MockAPI) ListOrders(ctx context.Context, status string) ([]ticket.Ticket, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ticket.Ticket(nil), m.tickets...), nil
}

func (m *MockAPI) GetOrder(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, errors.New("order not found")
}

func (m *MockAPI) CreateOrder(ctx context.Context, req client.CreateOrderRequest) (*ticket.Ticket, error) {
	var t *ticket.Ticket
	if req.Request != nil {
		r := *req.Request
		t = &ticket.Ticket{ID: uuid.New(), TableID: req.TableID, GuestName: req.GuestName, Type: req.Type, Request: &r, Status: "placed"}
	} else {
		t = ticket.NewFoodOrder(req.TableID, req.GuestName, req.Items)
	}
	t.CreatedAt = fixedNow
	t.UpdatedAt = fixedNow

	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, req)
	m.tickets = append(m.tickets, *t)
	return t, nil
}

func (m *MockAPI) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor role.Role) (*ticket.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tickets {
		if m.tickets[i].ID == id {
			if err := ticket.Apply(&m.tickets[i], status, actor, fixedNow); err != nil {
				return nil, err
			}
			updated := m.tickets[i]
			return &updated, nil
		}
	}
	return nil, errors.New("order not found")
}

func (m *MockAPI) CancelOrder(ctx context.Context, id uuid.UUID, actor role.Role) (*ticket.Ticket, error) {
	return m.UpdateStatus(ctx, id, "cancelled", actor)
}

func (m *MockAPI) Settle(ctx context.Context, tableID int, couponCode string, actor role.Role) (*client.SettleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var open []ticket.Ticket
	for _, t := range m.tickets {
		if t.TableID == tableID && t.IsActive() {
			open = append(open, t)
		}
	}
	var coupon *billing.Coupon
	if couponCode != "" {
		c, err := billing.Lookup(couponCode)
		if err != nil {
			return nil, err
		}
		coupon = c
	}
	bill, err := billing.Compute(billing.LinesFromTickets(open), coupon)
	if err != nil {
		return nil, err
	}

	m.settled = append(m.settled, tableID)
	return &client.SettleResult{Status: "cleared", Count: len(open), Bill: bill}, nil
}

func (m *MockAPI) TableSession(ctx context.Context, tableID int) (*client.TableSession, error) {
	return &client.TableSession{Active: false}, nil
}

func (m *MockAPI) ListMenu(ctx context.Context) ([]client.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]client.MenuItem(nil), m.menu...), nil
}

func (m *MockAPI) ToggleMenuItem(ctx context.Context, id string) (*client.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.menu {
		if m.menu[i].ID == id {
			m.menu[i].IsAvailable = !m.menu[i].IsAvailable
			item := m.menu[i]
			return &item, nil
		}
	}
	return nil, errors.New("menu item not found")
}

func (m *MockAPI) CheckUser(ctx context.Context, phone string) (*client.UserCheck, error) {
	for _, u := range m.users {
		if u.Phone == phone {
			return &client.UserCheck{Exists: true, Name: u.Name}, nil
		}
	}
	return &client.UserCheck{}, nil
}

func (m *MockAPI) Login(ctx context.Context, req client.LoginRequest) (*client.User, error) {
	for _, u := range m.users {
		if u.Phone == req.Phone {
			u.VisitCount++
			if req.Name != "" {
				u.Name = req.Name
			}
			return u, nil
		}
	}
	name := req.Name
	if name == "" {
		name = "Guest"
	}
	u := &client.User{ID: uuid.NewString(), Phone: req.Phone, Name: name, Preferences: req.Preferences, VisitCount: 1}
	m.users[u.ID] = u
	return u, nil
}

func (m *MockAPI) GetUser(ctx context.Context, id string) (*client.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (m *MockAPI) AddPreferences(ctx context.Context, id string, prefs []string) (*client.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	u.Preferences = append(u.Preferences, prefs...)
	return u, nil
}

func newTestEnv(api *MockAPI) (*Env, *bytes.Buffer) {
	var out bytes.Buffer
	env := NewEnv(apt.NewConfig(), nil, &out)
	env.API = api
	env.Persist = client.NewMemoryPersistence()
	env.Now = func() time.Time { return fixedNow }
	return env, &out
}

func demoAPI() *MockAPI {
	api := NewMockAPI()
	tickets, err := ticket.DemoTickets(fixedNow)
	if err != nil {
		panic(err)
	}
	for _, t := range tickets {
		api.tickets = append(api.tickets, *t)
	}
	return api
}

func intPtr(v int) *int {
	return &v
}

func testMenu() []client.MenuItem {
	return []client.MenuItem{
		{ID: "550e8400-e29b-41d4-a716-446655440011", Name: "Butter Chicken", Category: "Mains", Price: 280, IsAvailable: true},
		{ID: "550e8400-e29b-41d4-a716-446655440012", Name: "Kerala Parotta", Category: "Breads/Rice", Price: 40, IsAvailable: true},
		{ID: "550e8400-e29b-41d4-a716-446655440013", Name: "Beef Fry", Category: "Mains", Price: 380, IsAvailable: false},
		{ID: "550e8400-e29b-41d4-a716-446655440014", Name: "Palada Payasam", Category: "Dessert", Price: 180, IsAvailable: true, Stock: intPtr(0)},
	}
}
