package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/tableside/pkg"
	"github.com/appetiteclub/tableside/pkg/billing"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

const clearedStatus = "cleared"

var errCouponRejected = errors.New("coupon rejected")

type SettleRequest struct {
	CouponCode string `json:"couponCode,omitempty"`
}

type SettleResponse struct {
	Status string       `json:"status"`
	Count  int          `json:"count"`
	Bill   billing.Bill `json:"bill"`
}

type SessionResponse struct {
	Active    bool   `json:"active"`
	GuestName string `json:"guestName,omitempty"`
	TableID   int    `json:"tableId,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
	Status    string `json:"status,omitempty"`
}

type settlement struct {
	tickets []*ticket.Ticket
	bill    billing.Bill
}

// SettleTable pays every open ticket of a table in one step and returns the
// bill that was charged.
func (h *Handler) SettleTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SettleTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseTableParam(w, r, log)
	if !ok {
		return
	}

	actor, ok := h.parseActor(w, r, log)
	if !ok {
		return
	}

	var req SettleRequest
	if !h.decodeBody(w, r, log, &req, true) {
		return
	}

	result, err := h.settleTable(ctx, tableID, req.CouponCode, actor, nil)
	if err != nil {
		switch {
		case errors.Is(err, errCouponRejected):
			log.Info("coupon rejected at settlement", "table_id", tableID, "coupon", req.CouponCode, "error", err)
			apt.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ticket.ErrForbiddenTransition):
			log.Info("settlement forbidden", "table_id", tableID, "actor", actor.Code())
			apt.RespondError(w, http.StatusForbidden, err.Error())
		default:
			log.Error("cannot settle table", "table_id", tableID, "error", err)
			apt.RespondError(w, http.StatusInternalServerError, "Could not settle table")
		}
		return
	}

	apt.Respond(w, http.StatusOK, SettleResponse{
		Status: clearedStatus,
		Count:  len(result.tickets),
		Bill:   result.bill,
	}, nil)
}

// TableSession reports the newest open food order of a table.
func (h *Handler) TableSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.TableSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseTableParam(w, r, log)
	if !ok {
		return
	}

	tickets, err := h.tickets.ListByTable(ctx, tableID)
	if err != nil {
		log.Error("error retrieving table orders", "table_id", tableID, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve table session")
		return
	}

	values := make([]ticket.Ticket, 0, len(tickets))
	for _, t := range tickets {
		values = append(values, *t)
	}

	current := ticket.CurrentOrder(values, tableID)
	if current == nil {
		apt.Respond(w, http.StatusOK, SessionResponse{Active: false}, nil)
		return
	}

	apt.Respond(w, http.StatusOK, SessionResponse{
		Active:    true,
		GuestName: current.GuestName,
		TableID:   current.TableID,
		OrderID:   current.ID.String(),
		Status:    current.Status,
	}, nil)
}

// settleTable checks the role and the coupon and settles every ticket in
// memory before writing, so a refused settlement leaves the table as it was.
// pending, when set, replaces the stored copy of the same ticket and is
// written in the same batch. The batch is one ordered bulk write: a database
// failure partway through can leave the first tickets paid, and settling the
// table again closes the rest.
func (h *Handler) settleTable(ctx context.Context, tableID int, couponCode string, actor role.Role, pending *ticket.Ticket) (settlement, error) {
	if err := ticket.CheckSettle(actor); err != nil {
		return settlement{}, err
	}

	all, err := h.tickets.ListByTable(ctx, tableID)
	if err != nil {
		return settlement{}, fmt.Errorf("cannot list table orders: %w", err)
	}

	var open []*ticket.Ticket
	var lines []ticket.Ticket
	for _, t := range all {
		if pending != nil && t.ID == pending.ID {
			t = pending
		}
		if ticket.CanSettle(t) {
			open = append(open, t)
			lines = append(lines, *t)
		}
	}

	var coupon *billing.Coupon
	if code := strings.TrimSpace(couponCode); code != "" {
		coupon, err = billing.Lookup(code)
		if err != nil {
			return settlement{}, fmt.Errorf("%w: %v", errCouponRejected, err)
		}
	}

	bill, err := billing.Compute(billing.LinesFromTickets(lines), coupon)
	if err != nil {
		return settlement{}, fmt.Errorf("%w: %v", errCouponRejected, err)
	}

	now := h.now()
	previous := make([]string, len(open))
	for i, t := range open {
		previous[i] = t.Status
		if err := ticket.Settle(t, actor, now); err != nil {
			return settlement{}, err
		}
	}

	if len(open) > 0 {
		if err := h.tickets.SaveAll(ctx, open); err != nil {
			return settlement{}, fmt.Errorf("cannot save settled orders: %w", err)
		}
	}

	for i, t := range open {
		h.publishTicketEvent(ctx, t, pkg.EventTicketStatusChanged, previous[i], actor.Code())
	}
	h.publishTableSettled(ctx, tableID, len(open), bill)
	h.logger.Info("table settled", "table_id", tableID, "count", len(open), "total", bill.Total)

	return settlement{tickets: open, bill: bill}, nil
}

func (h *Handler) publishTableSettled(ctx context.Context, tableID, count int, bill billing.Bill) {
	if h.publisher == nil {
		return
	}

	evt := pkg.TableSettledEvent{
		EventType:  pkg.EventTableSettled,
		TableID:    tableID,
		Count:      count,
		Total:      bill.Total,
		CouponCode: bill.CouponCode,
		OccurredAt: h.now(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal table settled event", "error", err)
		return
	}

	if err := h.publisher.Publish(ctx, pkg.TablesTopic, payload); err != nil {
		h.logger.Error("cannot publish table settled event", "error", err, "table_id", tableID)
	}
}

func (h *Handler) parseTableParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (int, bool) {
	idStr := chi.URLParam(r, "id")
	tableID, err := parseTableID(idStr)
	if err != nil {
		log.Debug("invalid table id", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid table id")
		return 0, false
	}
	return tableID, true
}

func parseTableID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("table id must be positive")
	}
	return id, nil
}
