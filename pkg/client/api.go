package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/billing"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

// MenuItem mirrors the resource served by the menu service.
type MenuItem struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Price          float64  `json:"price" yaml:"price"`
	Category       string   `json:"category" yaml:"category"`
	IsAvailable    bool     `json:"isAvailable" yaml:"is_available"`
	Stock          *int     `json:"stock,omitempty" yaml:"stock,omitempty"`
	DietaryType    string   `json:"dietaryType,omitempty" yaml:"dietary_type,omitempty"`
	SpiceLevel     string   `json:"spiceLevel,omitempty" yaml:"spice_level,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	HeroIngredient string   `json:"heroIngredient,omitempty" yaml:"hero_ingredient,omitempty"`
	PrepTime       int      `json:"prepTime,omitempty" yaml:"prep_time,omitempty"`
}

// Orderable reports whether guests may add the item to a cart.
func (m MenuItem) Orderable() bool {
	return m.IsAvailable && (m.Stock == nil || *m.Stock > 0)
}

// User mirrors the guest record served by the guest service.
type User struct {
	ID          string    `json:"id" yaml:"id"`
	Phone       string    `json:"phone" yaml:"phone"`
	Name        string    `json:"name" yaml:"name"`
	Preferences []string  `json:"preferences" yaml:"preferences"`
	VisitCount  int       `json:"visitCount" yaml:"visit_count"`
	LastVisit   time.Time `json:"lastVisit" yaml:"last_visit"`
}

type LoginRequest struct {
	Phone       string   `json:"phone"`
	Name        string   `json:"name,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}

type UserCheck struct {
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
}

type CreateOrderRequest struct {
	TableID     int             `json:"tableId"`
	GuestName   string          `json:"guestName"`
	Type        string          `json:"type"`
	Items       []ticket.Item   `json:"items,omitempty"`
	TotalAmount *float64        `json:"totalAmount,omitempty"`
	Request     *ticket.Request `json:"request,omitempty"`
}

// TableSession is the order service's view of who currently sits at a table.
type TableSession struct {
	Active    bool   `json:"active"`
	GuestName string `json:"guestName,omitempty"`
	TableID   int    `json:"tableId,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
	Status    string `json:"status,omitempty"`
}

type SettleResult struct {
	Status string       `json:"status"`
	Count  int          `json:"count"`
	Bill   billing.Bill `json:"bill"`
}

// API is the backend surface the store depends on.
type API interface {
	ListOrders(ctx context.Context, status string) ([]ticket.Ticket, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*ticket.Ticket, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor role.Role) (*ticket.Ticket, error)
	CancelOrder(ctx context.Context, id uuid.UUID, actor role.Role) (*ticket.Ticket, error)
	Settle(ctx context.Context, tableID int, couponCode string, actor role.Role) (*SettleResult, error)
	TableSession(ctx context.Context, tableID int) (*TableSession, error)

	ListMenu(ctx context.Context) ([]MenuItem, error)
	ToggleMenuItem(ctx context.Context, id string) (*MenuItem, error)

	CheckUser(ctx context.Context, phone string) (*UserCheck, error)
	Login(ctx context.Context, req LoginRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	AddPreferences(ctx context.Context, id string, prefs []string) (*User, error)
}

// DefaultRequestTimeout bounds a single call to a backend service.
const DefaultRequestTimeout = 10 * time.Second

// HTTPAPI talks to the order, menu and guest services through apt HTTP
// clients rooted at each service's /api prefix. Calls are never retried: a
// failed poll marks the store offline at once and the next tick tries again,
// and a failed user action is reported instead of being sent twice.
type HTTPAPI struct {
	orders *apt.HTTPClient
	menu   *apt.HTTPClient
	users  *apt.HTTPClient
}

type Endpoints struct {
	OrderURL string
	MenuURL  string
	GuestURL string
	Timeout  time.Duration
}

func NewHTTPAPI(e Endpoints) *HTTPAPI {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HTTPAPI{
		orders: newServiceClient(e.OrderURL, timeout),
		menu:   newServiceClient(e.MenuURL, timeout),
		users:  newServiceClient(e.GuestURL, timeout),
	}
}

// newServiceClient builds the client by hand because apt.NewHTTPClient turns
// a zero MaxRetries into its default of three.
func newServiceClient(baseURL string, timeout time.Duration) *apt.HTTPClient {
	return &apt.HTTPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		MaxRetries: 0,
	}
}

func (a *HTTPAPI) ListOrders(ctx context.Context, status string) ([]ticket.Ticket, error) {
	path := "/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var resp apt.SuccessResponse
	if err := a.orders.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}

	tickets := []ticket.Ticket{}
	if err := decodeSuccessResponse(&resp, &tickets); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}
	return tickets, nil
}

func (a *HTTPAPI) GetOrder(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	var resp apt.SuccessResponse
	if err := a.orders.Get(ctx, "/orders/"+id.String(), &resp); err != nil {
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return decodeTicket(&resp)
}

func (a *HTTPAPI) CreateOrder(ctx context.Context, req CreateOrderRequest) (*ticket.Ticket, error) {
	var resp apt.SuccessResponse
	if err := a.orders.Post(ctx, "/orders", req, &resp); err != nil {
		return nil, fmt.Errorf("cannot create order: %w", err)
	}
	return decodeTicket(&resp)
}

func (a *HTTPAPI) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor role.Role) (*ticket.Ticket, error) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("actor", actor.Code())
	path := fmt.Sprintf("/orders/%s/status?%s", id, q.Encode())

	var resp apt.SuccessResponse
	if err := a.orders.Patch(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("cannot update order status: %w", err)
	}
	return decodeTicket(&resp)
}

// CancelOrder deletes the ticket and reads it back, since the DELETE
// response body is not decoded.
func (a *HTTPAPI) CancelOrder(ctx context.Context, id uuid.UUID, actor role.Role) (*ticket.Ticket, error) {
	path := fmt.Sprintf("/orders/%s?actor=%s", id, url.QueryEscape(actor.Code()))
	if err := a.orders.Delete(ctx, path); err != nil {
		return nil, fmt.Errorf("cannot cancel order: %w", err)
	}
	return a.GetOrder(ctx, id)
}

func (a *HTTPAPI) Settle(ctx context.Context, tableID int, couponCode string, actor role.Role) (*SettleResult, error) {
	path := fmt.Sprintf("/tables/%d/settle?actor=%s", tableID, url.QueryEscape(actor.Code()))
	body := map[string]string{}
	if couponCode != "" {
		body["couponCode"] = couponCode
	}

	var resp apt.SuccessResponse
	if err := a.orders.Post(ctx, path, body, &resp); err != nil {
		return nil, fmt.Errorf("cannot settle table: %w", err)
	}

	var result SettleResult
	if err := decodeSuccessResponse(&resp, &result); err != nil {
		return nil, fmt.Errorf("cannot decode settlement: %w", err)
	}
	return &result, nil
}

func (a *HTTPAPI) TableSession(ctx context.Context, tableID int) (*TableSession, error) {
	var resp apt.SuccessResponse
	if err := a.orders.Get(ctx, fmt.Sprintf("/tables/%d/session", tableID), &resp); err != nil {
		return nil, fmt.Errorf("cannot get table session: %w", err)
	}

	var session TableSession
	if err := decodeSuccessResponse(&resp, &session); err != nil {
		return nil, fmt.Errorf("cannot decode table session: %w", err)
	}
	return &session, nil
}

func (a *HTTPAPI) ListMenu(ctx context.Context) ([]MenuItem, error) {
	var resp apt.SuccessResponse
	if err := a.menu.Get(ctx, "/menu", &resp); err != nil {
		return nil, fmt.Errorf("cannot list menu: %w", err)
	}

	items := []MenuItem{}
	if err := decodeSuccessResponse(&resp, &items); err != nil {
		return nil, fmt.Errorf("cannot decode menu: %w", err)
	}
	return items, nil
}

func (a *HTTPAPI) ToggleMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	var resp apt.SuccessResponse
	if err := a.menu.Patch(ctx, fmt.Sprintf("/menu/%s/toggle", url.PathEscape(id)), nil, &resp); err != nil {
		return nil, fmt.Errorf("cannot toggle menu item: %w", err)
	}

	var item MenuItem
	if err := decodeSuccessResponse(&resp, &item); err != nil {
		return nil, fmt.Errorf("cannot decode menu item: %w", err)
	}
	return &item, nil
}

func (a *HTTPAPI) CheckUser(ctx context.Context, phone string) (*UserCheck, error) {
	var resp apt.SuccessResponse
	if err := a.users.Post(ctx, "/users/check", map[string]string{"phone": phone}, &resp); err != nil {
		return nil, fmt.Errorf("cannot check user: %w", err)
	}

	var check UserCheck
	if err := decodeSuccessResponse(&resp, &check); err != nil {
		return nil, fmt.Errorf("cannot decode user check: %w", err)
	}
	return &check, nil
}

func (a *HTTPAPI) Login(ctx context.Context, req LoginRequest) (*User, error) {
	var resp apt.SuccessResponse
	if err := a.users.Post(ctx, "/users/login", req, &resp); err != nil {
		return nil, fmt.Errorf("cannot login: %w", err)
	}
	return decodeUser(&resp)
}

func (a *HTTPAPI) GetUser(ctx context.Context, id string) (*User, error) {
	var resp apt.SuccessResponse
	if err := a.users.Get(ctx, "/users/"+url.PathEscape(id), &resp); err != nil {
		return nil, fmt.Errorf("cannot get user: %w", err)
	}
	return decodeUser(&resp)
}

func (a *HTTPAPI) AddPreferences(ctx context.Context, id string, prefs []string) (*User, error) {
	path := fmt.Sprintf("/users/%s/preferences", url.PathEscape(id))
	var resp apt.SuccessResponse
	if err := a.users.Put(ctx, path, map[string][]string{"preferences": prefs}, &resp); err != nil {
		return nil, fmt.Errorf("cannot update preferences: %w", err)
	}
	return decodeUser(&resp)
}

func decodeTicket(resp *apt.SuccessResponse) (*ticket.Ticket, error) {
	var t ticket.Ticket
	if err := decodeSuccessResponse(resp, &t); err != nil {
		return nil, fmt.Errorf("cannot decode order: %w", err)
	}
	return &t, nil
}

func decodeUser(resp *apt.SuccessResponse) (*User, error) {
	var u User
	if err := decodeSuccessResponse(resp, &u); err != nil {
		return nil, fmt.Errorf("cannot decode user: %w", err)
	}
	return &u, nil
}

// ErrEmptyResponse reports a success envelope that carries no data.
var ErrEmptyResponse = errors.New("response has no data")

func decodeSuccessResponse(resp *apt.SuccessResponse, target interface{}) error {
	if resp == nil || resp.Data == nil {
		return ErrEmptyResponse
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, target)
}
