package guest

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockUserRepo keeps users in memory and mimics the unique phone index.
type MockUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User

	CreateFunc      func(ctx context.Context, u *User) error
	FindByPhoneFunc func(ctx context.Context, phone string) (*User, error)
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[uuid.UUID]*User)}
}

func clone(u *User) *User {
	c := *u
	c.Preferences = append([]string(nil), u.Preferences...)
	return &c
}

func (m *MockUserRepo) put(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = clone(u)
}

func (m *MockUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *MockUserRepo) Create(ctx context.Context, u *User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Phone == u.Phone {
			return ErrPhoneTaken
		}
	}
	m.users[u.ID] = clone(u)
	return nil
}

func (m *MockUserRepo) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (m *MockUserRepo) FindByPhone(ctx context.Context, phone string) (*User, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (m *MockUserRepo) Save(ctx context.Context, u *User) error {
	m.put(u)
	return nil
}

func (m *MockUserRepo) AddPreferences(ctx context.Context, id uuid.UUID, prefs []string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	for _, p := range prefs {
		found := false
		for _, have := range u.Preferences {
			if have == p {
				found = true
				break
			}
		}
		if !found {
			u.Preferences = append(u.Preferences, p)
		}
	}
	return clone(u), nil
}
