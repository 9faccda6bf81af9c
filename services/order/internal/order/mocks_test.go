package order

import (
	"context"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/ticket"
)

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu          sync.Mutex
	messages    map[string][][]byte
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[topic] = append(m.messages[topic], msg)
	return nil
}

func (m *MockPublisher) Published(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[topic]
}

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

// MockTicketRepo is a mock implementation of TicketRepo for testing
type MockTicketRepo struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]*ticket.Ticket

	CreateFunc func(ctx context.Context, t *ticket.Ticket) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error)
	ListFunc   func(ctx context.Context) ([]*ticket.Ticket, error)
	SaveFunc   func(ctx context.Context, t *ticket.Ticket) error

	SaveAllFunc func(ctx context.Context, tickets []*ticket.Ticket) error
}

func NewMockTicketRepo() *MockTicketRepo {
	return &MockTicketRepo{
		tickets: make(map[uuid.UUID]*ticket.Ticket),
	}
}

func (m *MockTicketRepo) Create(ctx context.Context, t *ticket.Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := clone(t)
	m.tickets[t.ID] = stored
	return nil
}

func (m *MockTicketRepo) Get(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, nil
	}
	return clone(t), nil
}

func (m *MockTicketRepo) List(ctx context.Context) ([]*ticket.Ticket, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.filter(func(*ticket.Ticket) bool { return true }), nil
}

func (m *MockTicketRepo) ListByStatus(ctx context.Context, status string) ([]*ticket.Ticket, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.filter(func(t *ticket.Ticket) bool { return t.Status == status }), nil
}

func (m *MockTicketRepo) ListByTable(ctx context.Context, tableID int) ([]*ticket.Ticket, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.filter(func(t *ticket.Ticket) bool { return t.TableID == tableID }), nil
}

func (m *MockTicketRepo) Save(ctx context.Context, t *ticket.Ticket) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ID]; !ok {
		return fmt.Errorf("order not found")
	}
	stored := clone(t)
	m.tickets[t.ID] = stored
	return nil
}

func (m *MockTicketRepo) SaveAll(ctx context.Context, tickets []*ticket.Ticket) error {
	if m.SaveAllFunc != nil {
		return m.SaveAllFunc(ctx, tickets)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tickets {
		if _, ok := m.tickets[t.ID]; !ok {
			return fmt.Errorf("order %s not found", t.ID)
		}
	}
	for _, t := range tickets {
		m.tickets[t.ID] = clone(t)
	}
	return nil
}

func (m *MockTicketRepo) put(t *ticket.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := clone(t)
	m.tickets[t.ID] = stored
}

func (m *MockTicketRepo) stored(id uuid.UUID) *ticket.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tickets[id]
}

func (m *MockTicketRepo) filter(keep func(*ticket.Ticket) bool) []*ticket.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ticket.Ticket
	for _, t := range m.tickets {
		if keep(t) {
			out = append(out, clone(t))
		}
	}
	return out
}

func clone(t *ticket.Ticket) *ticket.Ticket {
	c := *t
	c.Items = append([]ticket.Item(nil), t.Items...)
	if t.Request != nil {
		r := *t.Request
		c.Request = &r
	}
	return &c
}
