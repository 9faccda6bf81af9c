package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg"
	"github.com/appetiteclub/tableside/pkg/enums/requestkind"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/enums/ticketstatus"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

const (
	MaxBodyBytes = 1 << 20

	// ActorHeader names the caller's role when the actor query parameter is
	// absent.
	ActorHeader = "X-Actor-Role"
)

type Handler struct {
	logger      apt.Logger
	config      *apt.Config
	tlm         *telemetry.HTTP
	tickets     TicketRepo
	catalog     *MenuCatalog
	publisher   events.Publisher
	broadcaster *Broadcaster
	now         func() time.Time
}

type HandlerDeps struct {
	TicketRepo  TicketRepo
	MenuCatalog *MenuCatalog
	Publisher   events.Publisher
	Broadcaster *Broadcaster
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return &Handler{
		config:      config,
		logger:      logger,
		tlm:         telemetry.NewHTTP(),
		tickets:     hd.TicketRepo,
		catalog:     hd.MenuCatalog,
		publisher:   hd.Publisher,
		broadcaster: hd.Broadcaster,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/stream", h.StreamOrders)
			r.Get("/{id}", h.GetOrder)
			r.Patch("/{id}/status", h.UpdateOrderStatus)
			r.Delete("/{id}", h.CancelOrder)
		})

		r.Route("/tables/{id}", func(r chi.Router) {
			r.Post("/settle", h.SettleTable)
			r.Get("/session", h.TableSession)
		})
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeOrderCreatePayload(w, r, log)
	if !ok {
		return
	}

	t, err := req.toTicket()
	if err != nil {
		log.Debug("invalid order request", "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if errs := t.Validate(); len(errs) > 0 {
		log.Debug("order validation failed", "errors", errs)
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	if req.TotalAmount != nil && math.Abs(*req.TotalAmount-t.TotalAmount) > 0.005 {
		log.Info("order total mismatch", "sent", *req.TotalAmount, "computed", t.TotalAmount)
		apt.RespondError(w, http.StatusBadRequest, fmt.Sprintf("totalAmount %.2f does not match items total %.2f", *req.TotalAmount, t.TotalAmount))
		return
	}

	if err := h.ensureItemsOrderable(t.Items); err != nil {
		log.Info("order references unavailable menu item", "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t.BeforeCreate()

	if err := h.tickets.Create(ctx, t); err != nil {
		log.Error("cannot create order", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	h.publishTicketEvent(ctx, t, pkg.EventTicketPlaced, "", "")
	log.Info("order placed", "order_id", t.ID.String(), "table_id", t.TableID, "type", t.Type)

	links := apt.RESTfulLinksFor(t)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, t, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	t, err := h.tickets.Get(ctx, id)
	if err != nil {
		log.Error("error loading order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve order")
		return
	}

	if t == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	links := apt.RESTfulLinksFor(t)
	apt.RespondSuccess(w, t, links...)
}

// ListOrders returns tickets oldest first. Both status and tableId filters
// are optional.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	status := r.URL.Query().Get("status")
	tableIDStr := r.URL.Query().Get("tableId")

	if status != "" {
		s := ticketstatus.ByName(status)
		if s == nil || !s.IsPersisted() {
			log.Debug("invalid status filter", "status", status)
			apt.RespondError(w, http.StatusBadRequest, "Invalid status parameter")
			return
		}
	}

	var tickets []*ticket.Ticket
	var err error

	if tableIDStr != "" {
		tableID, parseErr := parseTableID(tableIDStr)
		if parseErr != nil {
			log.Debug("invalid tableId parameter", "tableId", tableIDStr)
			apt.RespondError(w, http.StatusBadRequest, "Invalid tableId parameter")
			return
		}
		tickets, err = h.tickets.ListByTable(ctx, tableID)
		if err == nil && status != "" {
			tickets = withStatus(tickets, status)
		}
	} else if status != "" {
		tickets, err = h.tickets.ListByStatus(ctx, status)
	} else {
		tickets, err = h.tickets.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving orders", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}

	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	if tickets == nil {
		tickets = []*ticket.Ticket{}
	}

	apt.RespondCollection(w, tickets, "order")
}

// UpdateOrderStatus applies one transition of the status machine. Serving a
// bill request settles the whole table.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrderStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	actor, ok := h.parseActor(w, r, log)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		req, ok := h.decodeStatusPayload(w, r, log)
		if !ok {
			return
		}
		status = req.Status
	}

	t, err := h.tickets.Get(ctx, id)
	if err != nil {
		log.Error("error loading order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve order")
		return
	}
	if t == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	previous := t.Status
	if err := ticket.Apply(t, status, actor, h.now()); err != nil {
		h.respondTransitionError(w, log, err)
		return
	}

	if t.SettlesTable() && t.Status == ticketstatus.Statuses.Served.Code() {
		// A served bill request is only stored as part of the settlement.
		if _, err := h.settleTable(ctx, t.TableID, "", actor, t); err != nil {
			log.Error("cannot settle table after bill request", "table_id", t.TableID, "error", err)
			if errors.Is(err, ticket.ErrForbiddenTransition) {
				h.respondTransitionError(w, log, err)
				return
			}
			apt.RespondError(w, http.StatusInternalServerError, "Could not settle table")
			return
		}
		log.Info("bill request served", "order_id", t.ID.String(), "table_id", t.TableID, "actor", actor.Code())
		links := apt.RESTfulLinksFor(t)
		apt.RespondSuccess(w, t, links...)
		return
	}

	if err := h.tickets.Save(ctx, t); err != nil {
		log.Error("cannot update order", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	h.publishTicketEvent(ctx, t, pkg.EventTicketStatusChanged, previous, actor.Code())
	log.Info("order status changed", "order_id", t.ID.String(), "from", previous, "to", t.Status, "actor", actor.Code())

	links := apt.RESTfulLinksFor(t)
	apt.RespondSuccess(w, t, links...)
}

// CancelOrder withdraws a ticket. The ticket is kept as cancelled for history.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	actor, ok := h.parseActor(w, r, log)
	if !ok {
		return
	}

	t, err := h.tickets.Get(ctx, id)
	if err != nil {
		log.Error("error loading order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve order")
		return
	}
	if t == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	previous := t.Status
	if err := ticket.Apply(t, ticketstatus.Statuses.Cancelled.Code(), actor, h.now()); err != nil {
		h.respondTransitionError(w, log, err)
		return
	}

	if err := h.tickets.Save(ctx, t); err != nil {
		log.Error("cannot cancel order", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not cancel order")
		return
	}

	h.publishTicketEvent(ctx, t, pkg.EventTicketStatusChanged, previous, actor.Code())
	log.Info("order cancelled", "order_id", t.ID.String(), "actor", actor.Code())

	apt.Respond(w, http.StatusOK, t, nil)
}

func (h *Handler) ensureItemsOrderable(items []ticket.Item) error {
	if h.catalog == nil {
		return nil
	}
	for _, item := range items {
		if item.MenuItemID == nil {
			continue
		}
		if orderable, known := h.catalog.Orderable(*item.MenuItemID); known && !orderable {
			return fmt.Errorf("%s is not available right now", item.Name)
		}
	}
	return nil
}

func (h *Handler) publishTicketEvent(ctx context.Context, t *ticket.Ticket, eventType, previous, actor string) {
	evt := pkg.TicketEvent{
		EventType:      eventType,
		TicketID:       t.ID.String(),
		TableID:        t.TableID,
		Type:           t.Type,
		Status:         t.Status,
		PreviousStatus: previous,
		Actor:          actor,
		OccurredAt:     h.now(),
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(evt)
	}

	if h.publisher == nil {
		return
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal ticket event", "error", err)
		return
	}

	if err := h.publisher.Publish(ctx, pkg.TicketsTopic, payload); err != nil {
		h.logger.Error("cannot publish ticket event", "error", err, "ticket_id", evt.TicketID)
	}
}

func (h *Handler) respondTransitionError(w http.ResponseWriter, log apt.Logger, err error) {
	switch {
	case errors.Is(err, ticket.ErrUnknownStatus):
		log.Debug("invalid status", "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ticket.ErrForbiddenTransition):
		log.Info("transition forbidden", "error", err)
		apt.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ticket.ErrInvalidTransition):
		log.Info("transition rejected", "error", err)
		apt.RespondError(w, http.StatusConflict, err.Error())
	default:
		log.Error("cannot apply transition", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
	}
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

// parseActor reads the caller's role. Callers that do not say are staff.
func (h *Handler) parseActor(w http.ResponseWriter, r *http.Request, log apt.Logger) (role.Role, bool) {
	name := r.URL.Query().Get("actor")
	if name == "" {
		name = r.Header.Get(ActorHeader)
	}
	if name == "" {
		return role.Roles.Staff, true
	}

	actor := role.ByName(strings.ToLower(strings.TrimSpace(name)))
	if actor == nil {
		log.Debug("invalid actor", "actor", name)
		apt.RespondError(w, http.StatusBadRequest, "Invalid actor parameter")
		return role.Role{}, false
	}
	return *actor, true
}

func withStatus(tickets []*ticket.Ticket, status string) []*ticket.Ticket {
	var out []*ticket.Ticket
	for _, t := range tickets {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Payload decoders

type OrderCreateRequest struct {
	TableID     int             `json:"tableId"`
	GuestName   string          `json:"guestName"`
	Type        string          `json:"type"`
	Items       []ticket.Item   `json:"items"`
	TotalAmount *float64        `json:"totalAmount,omitempty"`
	Request     *ticket.Request `json:"request,omitempty"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

func (req OrderCreateRequest) toTicket() (*ticket.Ticket, error) {
	switch req.Type {
	case "", ticket.TypeFood:
		return ticket.NewFoodOrder(req.TableID, req.GuestName, req.Items), nil
	case ticket.TypeRequest:
		if req.Request == nil {
			return nil, errors.New("request is required for request tickets")
		}
		kind := requestkind.ByName(req.Request.Kind)
		if kind == nil {
			return nil, fmt.Errorf("unknown request kind %q", req.Request.Kind)
		}
		return ticket.NewServiceRequest(req.TableID, req.GuestName, *kind, req.Request.Label), nil
	default:
		return nil, fmt.Errorf("type must be %q or %q", ticket.TypeFood, ticket.TypeRequest)
	}
}

func (h *Handler) decodeOrderCreatePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (OrderCreateRequest, bool) {
	var req OrderCreateRequest
	ok := h.decodeBody(w, r, log, &req, false)
	return req, ok
}

func (h *Handler) decodeStatusPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (OrderStatusRequest, bool) {
	var req OrderStatusRequest
	if !h.decodeBody(w, r, log, &req, false) {
		return req, false
	}
	if req.Status == "" {
		log.Debug("missing status")
		apt.RespondError(w, http.StatusBadRequest, "status is required")
		return req, false
	}
	return req, true
}

// decodeBody reads a bounded JSON body into out. An empty body is accepted
// only when allowEmpty is set.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, log apt.Logger, out interface{}, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 && allowEmpty {
		return true
	}

	if err := json.Unmarshal(body, out); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
