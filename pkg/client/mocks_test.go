package client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

var errOffline = errors.New("connection refused")

// MockAPI is an in-memory API. Func fields override the default behavior.
type MockAPI struct {
	mu      sync.Mutex
	tickets []ticket.Ticket
	menu    []MenuItem
	users   map[string]*User
	session *TableSession
	calls   map[string]int

	ListOrdersFunc   func(ctx context.Context, status string) ([]ticket.Ticket, error)
	CreateOrderFunc  func(ctx context.Context, req CreateOrderRequest) (*ticket.Ticket, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status string, actor role.Role) (*ticket.Ticket, error)
	SettleFunc       func(ctx context.Context, tableID int, couponCode string, actor role.Role) (*SettleResult, error)
	GetUserFunc      func(ctx context.Context, id string) (*User, error)
	TableSessionFunc func(ctx context.Context, tableID int) (*TableSession, error)
	ListMenuFunc     func(ctx context.Context) ([]MenuItem, error)
}

func NewMockAPI() *MockAPI {
	return &MockAPI{
		users: make(map[string]*User),
		calls: make(map[string]int),
	}
}

func (m *MockAPI) count(name string) {
	m.mu.Lock()
	m.calls[name]++
	m.mu.Unlock()
}

func (m *MockAPI) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockAPI) SetTickets(tickets ...ticket.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets = append([]ticket.Ticket(nil), tickets...)
}

func (m *MockAPI) ListOrders(ctx context.Context, status string) ([]ticket.Ticket, error) {
	m.count("ListOrders")
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ticket.Ticket(nil), m.tickets...), nil
}

func (m *MockAPI) GetOrder(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	m.count("GetOrder")
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

func (m *MockAPI) CreateOrder(ctx context.Context, req CreateOrderRequest) (*ticket.Ticket, error) {
	m.count("CreateOrder")
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	t := ticket.NewFoodOrder(req.TableID, req.GuestName, req.Items)
	t.Type = req.Type
	t.Request = req.Request
	t.BeforeCreate()
	m.mu.Lock()
	m.tickets = append(m.tickets, *t)
	m.mu.Unlock()
	return t, nil
}

func (m *MockAPI) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor role.Role) (*ticket.Ticket, error) {
	m.count("UpdateStatus")
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, actor)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tickets {
		if m.tickets[i].ID == id {
			m.tickets[i].Status = status
			updated := m.tickets[i]
			return &updated, nil
		}
	}
	return nil, errors.New("order not found")
}

func (m *MockAPI) CancelOrder(ctx context.Context, id uuid.UUID, actor role.Role) (*ticket.Ticket, error) {
	m.count("CancelOrder")
	return m.UpdateStatus(ctx, id, "cancelled", actor)
}

func (m *MockAPI) Settle(ctx context.Context, tableID int, couponCode string, actor role.Role) (*SettleResult, error) {
	m.count("Settle")
	if m.SettleFunc != nil {
		return m.SettleFunc(ctx, tableID, couponCode, actor)
	}
	return &SettleResult{Status: "cleared"}, nil
}

func (m *MockAPI) TableSession(ctx context.Context, tableID int) (*TableSession, error) {
	m.count("TableSession")
	if m.TableSessionFunc != nil {
		return m.TableSessionFunc(ctx, tableID)
	}
	if m.session != nil {
		return m.session, nil
	}
	return &TableSession{Active: false}, nil
}

func (m *MockAPI) ListMenu(ctx context.Context) ([]MenuItem, error) {
	m.count("ListMenu")
	if m.ListMenuFunc != nil {
		return m.ListMenuFunc(ctx)
	}
	return m.menu, nil
}

func (m *MockAPI) ToggleMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	m.count("ToggleMenuItem")
	for i := range m.menu {
		if m.menu[i].ID == id {
			m.menu[i].IsAvailable = !m.menu[i].IsAvailable
			item := m.menu[i]
			return &item, nil
		}
	}
	return nil, errors.New("menu item not found")
}

func (m *MockAPI) CheckUser(ctx context.Context, phone string) (*UserCheck, error) {
	m.count("CheckUser")
	for _, u := range m.users {
		if u.Phone == phone {
			return &UserCheck{Exists: true, Name: u.Name}, nil
		}
	}
	return &UserCheck{}, nil
}

func (m *MockAPI) Login(ctx context.Context, req LoginRequest) (*User, error) {
	m.count("Login")
	for _, u := range m.users {
		if u.Phone == req.Phone {
			u.VisitCount++
			return u, nil
		}
	}
	name := req.Name
	if name == "" {
		name = "Guest"
	}
	u := &User{ID: uuid.NewString(), Phone: req.Phone, Name: name, Preferences: req.Preferences, VisitCount: 1}
	m.users[u.ID] = u
	return u, nil
}

func (m *MockAPI) GetUser(ctx context.Context, id string) (*User, error) {
	m.count("GetUser")
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (m *MockAPI) AddPreferences(ctx context.Context, id string, prefs []string) (*User, error) {
	m.count("AddPreferences")
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	u.Preferences = append(u.Preferences, prefs...)
	return u, nil
}
