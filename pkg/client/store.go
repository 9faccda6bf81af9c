// Package client keeps a device's view of the restaurant in step with the
// order service.
//
// The Store is the only writer of the cached ticket and menu lists. Polling
// replaces the ticket list wholesale; user actions insert the ticket returned
// by the server immediately so the device does not wait for the next tick.
// Persistence is injected so the state transitions can be exercised without a
// terminal or a browser.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/billing"
	"github.com/appetiteclub/tableside/pkg/enums/requestkind"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/enums/ticketstatus"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotSignedIn = errors.New("no guest is signed in on this device")
)

type View string

const (
	ViewLanding View = "landing"
	ViewMenu    View = "menu"
	ViewTracker View = "tracker"
	ViewPayment View = "payment"
)

// UserRecord is the single persisted identity of the device's guest.
type UserRecord struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Phone string `yaml:"phone,omitempty"`
}

type sessionRecord struct {
	TableID int  `yaml:"table_id"`
	View    View `yaml:"view"`
}

type State struct {
	Tickets       []ticket.Ticket
	Menu          []MenuItem
	User          *UserRecord
	TableID       int
	View          View
	Offline       bool
	Notifications bool
	Cooking       map[uuid.UUID]bool
}

// Notifier receives poll events that announced new tickets.
type Notifier func(events []Event)

type Option func(*Store)

func WithLogger(logger apt.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithRole sets the actor the device acts as. Guests are the default.
func WithRole(r role.Role) Option {
	return func(s *Store) {
		s.actor = r
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.location = loc
		}
	}
}

type Store struct {
	api      API
	persist  Persistence
	logger   apt.Logger
	notifier Notifier
	actor    role.Role
	location *time.Location

	mu     sync.RWMutex
	state  State
	loaded bool
}

func NewStore(api API, persist Persistence, tableID int, opts ...Option) *Store {
	if persist == nil {
		persist = NewMemoryPersistence()
	}

	s := &Store{
		api:      api,
		persist:  persist,
		logger:   apt.NewNoopLogger(),
		actor:    role.Roles.Guest,
		location: time.Local,
		state: State{
			TableID:       tableID,
			View:          ViewLanding,
			Notifications: true,
			Cooking:       make(map[uuid.UUID]bool),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.state
	out.Tickets = append([]ticket.Ticket(nil), s.state.Tickets...)
	out.Menu = append([]MenuItem(nil), s.state.Menu...)
	out.Cooking = make(map[uuid.UUID]bool, len(s.state.Cooking))
	for id, v := range s.state.Cooking {
		out.Cooking[id] = v
	}
	if s.state.User != nil {
		u := *s.state.User
		out.User = &u
	}
	return out
}

func (s *Store) Role() role.Role {
	return s.actor
}

// Refresh polls every ticket and replaces the cache. A failed poll keeps the
// last good list and marks the store offline until a poll succeeds again.
func (s *Store) Refresh(ctx context.Context) ([]Event, error) {
	tickets, err := s.api.ListOrders(ctx, "")
	if err != nil {
		s.mu.Lock()
		s.state.Offline = true
		s.mu.Unlock()
		s.logger.Info("order poll failed", "error", err)
		return nil, err
	}

	for i := range tickets {
		tickets[i].CreatedAt = tickets[i].CreatedAt.In(s.location)
		tickets[i].UpdatedAt = tickets[i].UpdatedAt.In(s.location)
	}

	s.mu.Lock()
	prev := s.state.Tickets
	loaded := s.loaded
	s.state.Tickets = tickets
	s.state.Offline = false
	s.loaded = true
	s.pruneCookingLocked()
	notify := s.state.Notifications
	s.mu.Unlock()

	events := DiffEvents(prev, tickets, loaded)
	if notify && s.notifier != nil && HasNewTickets(events) {
		s.notifier(events)
	}
	return events, nil
}

// RefreshMenu replaces the cached menu. Failures keep the previous menu.
func (s *Store) RefreshMenu(ctx context.Context) error {
	items, err := s.api.ListMenu(ctx)
	if err != nil {
		s.logger.Info("menu poll failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.state.Menu = items
	s.mu.Unlock()
	return nil
}

// Login upserts the guest by phone and makes it the device's identity.
func (s *Store) Login(ctx context.Context, phone, name string, prefs []string) (*User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}

	if err := s.persist.Delete(KeyUser); err != nil {
		return nil, err
	}

	user, err := s.api.Login(ctx, LoginRequest{Phone: phone, Name: strings.TrimSpace(name), Preferences: prefs})
	if err != nil {
		return nil, err
	}

	rec := &UserRecord{ID: user.ID, Name: user.Name, Phone: user.Phone}
	if err := s.persist.Save(KeyUser, rec); err != nil {
		return nil, err
	}
	if err := s.persist.Save(KeyPreferences, user.Preferences); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.User = rec
	s.mu.Unlock()

	if err := s.SetView(ViewMenu); err != nil {
		return nil, err
	}
	return user, nil
}

// CheckGuest reports whether a phone number already belongs to a guest, so a
// returning guest is not asked for a name again.
func (s *Store) CheckGuest(ctx context.Context, phone string) (*UserCheck, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}
	return s.api.CheckUser(ctx, phone)
}

// AddPreferences merges dietary preferences into the signed-in guest's
// profile and remembers the merged set on the device.
func (s *Store) AddPreferences(ctx context.Context, prefs []string) (*User, error) {
	cleaned := make([]string, 0, len(prefs))
	for _, p := range prefs {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one preference is required", ErrValidation)
	}

	current := s.Snapshot().User
	if current == nil || current.ID == "" {
		return nil, ErrNotSignedIn
	}

	user, err := s.api.AddPreferences(ctx, current.ID, cleaned)
	if err != nil {
		return nil, err
	}
	if err := s.persist.Save(KeyPreferences, user.Preferences); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout forgets the guest and every cached ticket. Orders already on the
// server stay untouched.
func (s *Store) Logout() error {
	for _, key := range []string{KeyUser, KeyGuestSession, KeyPreferences} {
		if err := s.persist.Delete(key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.state.User = nil
	s.state.Tickets = nil
	s.state.View = ViewLanding
	s.state.Cooking = make(map[uuid.UUID]bool)
	s.loaded = false
	s.mu.Unlock()
	return nil
}

// ResetOrderSession keeps the guest but starts a fresh round of ordering.
func (s *Store) ResetOrderSession() error {
	s.mu.Lock()
	s.state.Tickets = nil
	s.loaded = false
	s.mu.Unlock()
	return s.SetView(ViewMenu)
}

func (s *Store) SetView(v View) error {
	s.mu.Lock()
	s.state.View = v
	rec := sessionRecord{TableID: s.state.TableID, View: v}
	s.mu.Unlock()
	return s.persist.Save(KeyGuestSession, rec)
}

func (s *Store) SetNotifications(enabled bool) {
	s.mu.Lock()
	s.state.Notifications = enabled
	s.mu.Unlock()
}

// MarkCooking toggles the kitchen-only cooking overlay of a placed ticket.
func (s *Store) MarkCooking(id uuid.UUID, cooking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cooking {
		s.state.Cooking[id] = true
		return
	}
	delete(s.state.Cooking, id)
}

// PlaceOrder sends the cart and inserts the created ticket into the cache.
func (s *Store) PlaceOrder(ctx context.Context, items []ticket.Item) (*ticket.Ticket, error) {
	snap := s.Snapshot()
	guest := ticket.DefaultGuestName
	if snap.User != nil {
		guest = snap.User.Name
	}

	draft := ticket.NewFoodOrder(snap.TableID, guest, items)
	if errs := draft.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}

	total := draft.TotalAmount
	created, err := s.api.CreateOrder(ctx, CreateOrderRequest{
		TableID:     draft.TableID,
		GuestName:   draft.GuestName,
		Type:        ticket.TypeFood,
		Items:       items,
		TotalAmount: &total,
	})
	if err != nil {
		return nil, err
	}

	s.upsert(*created)
	if err := s.SetView(ViewTracker); err != nil {
		s.logger.Info("cannot persist view", "error", err)
	}
	return created, nil
}

// RequestService raises a zero-price request ticket for the table.
func (s *Store) RequestService(ctx context.Context, kind requestkind.Kind, label string) (*ticket.Ticket, error) {
	snap := s.Snapshot()
	guest := ticket.DefaultGuestName
	if snap.User != nil {
		guest = snap.User.Name
	}

	draft := ticket.NewServiceRequest(snap.TableID, guest, kind, label)
	if errs := draft.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}

	created, err := s.api.CreateOrder(ctx, CreateOrderRequest{
		TableID:   draft.TableID,
		GuestName: draft.GuestName,
		Type:      ticket.TypeRequest,
		Request:   draft.Request,
	})
	if err != nil {
		return nil, err
	}

	s.upsert(*created)
	return created, nil
}

// UpdateStatus moves a ticket. Transitions the cached copy already rules out
// are refused without calling the server.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*ticket.Ticket, error) {
	if cached, ok := s.ticket(id); ok {
		if err := ticket.Check(&cached, status, s.actor); err != nil {
			return nil, err
		}
	}

	updated, err := s.api.UpdateStatus(ctx, id, status, s.actor)
	if err != nil {
		return nil, err
	}

	s.upsert(*updated)
	if status != ticketstatus.Statuses.Placed.Code() {
		s.MarkCooking(id, false)
	}
	return updated, nil
}

// Cancel withdraws a ticket.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	if cached, ok := s.ticket(id); ok && !ticket.CanCancel(&cached, s.actor) {
		return nil, fmt.Errorf("%w: ticket is %s", ticket.ErrForbiddenTransition, cached.Status)
	}

	cancelled, err := s.api.CancelOrder(ctx, id, s.actor)
	if err != nil {
		return nil, err
	}

	s.upsert(*cancelled)
	return cancelled, nil
}

// PreviewBill computes what the table owes from the cached tickets.
func (s *Store) PreviewBill(couponCode string) (billing.Bill, error) {
	snap := s.Snapshot()

	var open []ticket.Ticket
	for _, t := range snap.Tickets {
		if t.TableID == snap.TableID && t.IsActive() {
			open = append(open, t)
		}
	}
	lines := billing.LinesFromTickets(open)

	if strings.TrimSpace(couponCode) == "" {
		return billing.Compute(lines, nil)
	}
	coupon, err := billing.Lookup(couponCode)
	if err != nil {
		bill, _ := billing.Compute(lines, nil)
		return bill, err
	}
	return billing.Compute(lines, coupon)
}

// Settle pays every open ticket of the table and ends the session. A coupon
// the cached cart cannot satisfy is refused locally.
func (s *Store) Settle(ctx context.Context, couponCode string) (*SettleResult, error) {
	if couponCode != "" {
		if _, err := s.PreviewBill(couponCode); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	snap := s.Snapshot()
	result, err := s.api.Settle(ctx, snap.TableID, couponCode, s.actor)
	if err != nil {
		return nil, err
	}

	if s.actor == role.Roles.Guest {
		if err := s.Logout(); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Recover rebuilds the session after a restart from the persisted identity
// and the table's active session on the server.
func (s *Store) Recover(ctx context.Context) (Session, error) {
	local := LocalSession{TableID: s.Snapshot().TableID}

	var rec UserRecord
	ok, err := s.persist.Load(KeyUser, &rec)
	if err != nil {
		return Session{}, err
	}
	if ok {
		local.User = &rec
	}

	var user *User
	var userErr error
	if local.User != nil && local.User.ID != "" {
		user, userErr = s.api.GetUser(ctx, local.User.ID)
		if userErr != nil {
			s.logger.Info("stored guest is no longer valid", "user_id", local.User.ID, "error", userErr)
		}
	}

	remote, err := s.api.TableSession(ctx, local.TableID)
	if err != nil {
		s.logger.Info("table session lookup failed", "table_id", local.TableID, "error", err)
		remote = nil
	}

	resolved := ResolveSession(local, user, userErr, remote)

	if resolved.ClearStoredUser {
		if err := s.persist.Delete(KeyUser); err != nil {
			return resolved, err
		}
	}
	if resolved.User != nil {
		if err := s.persist.Save(KeyUser, resolved.User); err != nil {
			return resolved, err
		}
	}

	s.mu.Lock()
	s.state.User = resolved.User
	s.state.TableID = resolved.TableID
	s.mu.Unlock()

	if err := s.SetView(resolved.View); err != nil {
		return resolved, err
	}
	return resolved, nil
}

func (s *Store) ticket(id uuid.UUID) (ticket.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.state.Tickets {
		if t.ID == id {
			return t, true
		}
	}
	return ticket.Ticket{}, false
}

// upsert replaces the cached ticket with the same id or appends it.
func (s *Store) upsert(t ticket.Ticket) {
	t.CreatedAt = t.CreatedAt.In(s.location)
	t.UpdatedAt = t.UpdatedAt.In(s.location)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Tickets {
		if s.state.Tickets[i].ID == t.ID {
			s.state.Tickets[i] = t
			return
		}
	}
	s.state.Tickets = append(s.state.Tickets, t)
}

func (s *Store) pruneCookingLocked() {
	placed := make(map[uuid.UUID]bool, len(s.state.Tickets))
	for _, t := range s.state.Tickets {
		if t.Status == ticketstatus.Statuses.Placed.Code() {
			placed[t.ID] = true
		}
	}
	for id := range s.state.Cooking {
		if !placed[id] {
			delete(s.state.Cooking, id)
		}
	}
}
