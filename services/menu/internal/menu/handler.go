package menu

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg"
)

const MaxBodyBytes = 1 << 20

// Handler handles HTTP requests for the Menu service
type Handler struct {
	items     MenuItemRepo
	publisher events.Publisher
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
}

type HandlerDeps struct {
	ItemRepo  MenuItemRepo
	Publisher events.Publisher
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		items:     hd.ItemRepo,
		publisher: hd.Publisher,
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.ListMenuItems)
			r.Post("/", h.CreateMenuItem)
			r.Get("/{id}", h.GetMenuItem)
			r.Patch("/{id}", h.UpdateMenuItem)
			r.Delete("/{id}", h.DeleteMenuItem)
			r.Patch("/{id}/toggle", h.ToggleMenuItem)
		})
	})
}

// ListMenuItems handles GET /api/menu. With available=true only orderable
// items are returned.
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenuItems")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	items, err := h.items.List(ctx)
	if err != nil {
		log.Error("cannot list menu items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list menu items")
		return
	}

	if r.URL.Query().Get("available") == "true" {
		orderable := make([]*MenuItem, 0, len(items))
		for _, item := range items {
			if item.Orderable() {
				orderable = append(orderable, item)
			}
		}
		items = orderable
	}

	if items == nil {
		items = []*MenuItem{}
	}

	apt.RespondCollection(w, items, "menu")
}

// CreateMenuItem handles POST /api/menu
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var item MenuItem
	// Availability defaults to true when the payload omits it.
	item.IsAvailable = true
	if !h.decodeBody(w, r, log, &item) {
		return
	}

	item.ID = uuid.Nil
	item.BeforeCreate()

	if validationErrors := ValidateMenuItem(&item); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		h.respondValidationErrors(w, validationErrors)
		return
	}

	if err := h.items.Create(ctx, &item); err != nil {
		log.Error("cannot create menu item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create menu item")
		return
	}

	h.publishItemEvent(ctx, &item, pkg.EventMenuItemChanged)
	log.Info("menu item created", "id", item.ID.String(), "name", item.Name)

	links := apt.RESTfulLinksFor(&item)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, &item, links...)
}

// GetMenuItem handles GET /api/menu/{id}
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItem")
	defer finish()

	log := h.log(r)

	item, ok := h.loadItem(w, r, log)
	if !ok {
		return
	}

	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, item, links...)
}

// UpdateMenuItem handles PATCH /api/menu/{id}. Only the fields present in
// the payload change.
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	item, ok := h.loadItem(w, r, log)
	if !ok {
		return
	}

	var patch MenuItemPatch
	if !h.decodeBody(w, r, log, &patch) {
		return
	}

	if patch.Empty() {
		apt.RespondError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	item.Apply(patch)

	if validationErrors := ValidateMenuItem(item); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		h.respondValidationErrors(w, validationErrors)
		return
	}

	item.BeforeUpdate()
	if err := h.items.Save(ctx, item); err != nil {
		log.Error("cannot update menu item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update menu item")
		return
	}

	h.publishItemEvent(ctx, item, pkg.EventMenuItemChanged)

	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, item, links...)
}

// ToggleMenuItem handles PATCH /api/menu/{id}/toggle
func (h *Handler) ToggleMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ToggleMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	item, ok := h.loadItem(w, r, log)
	if !ok {
		return
	}

	item.Toggle()
	item.BeforeUpdate()

	if err := h.items.Save(ctx, item); err != nil {
		log.Error("cannot toggle menu item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update menu item")
		return
	}

	h.publishItemEvent(ctx, item, pkg.EventMenuItemChanged)
	log.Info("menu item toggled", "id", item.ID.String(), "available", item.IsAvailable)

	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, item, links...)
}

// DeleteMenuItem handles DELETE /api/menu/{id}. Tickets keep their own copy
// of name and price, so removing an item never alters order history.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	deleted, err := h.items.Delete(ctx, id)
	if err != nil {
		log.Error("cannot delete menu item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete menu item")
		return
	}

	if !deleted {
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	h.publishItemEvent(ctx, &MenuItem{ID: id}, pkg.EventMenuItemDeleted)

	apt.Respond(w, http.StatusOK, map[string]string{"status": "deleted", "id": id.String()}, nil)
}

func (h *Handler) publishItemEvent(ctx context.Context, item *MenuItem, eventType string) {
	if h.publisher == nil {
		return
	}

	evt := pkg.MenuItemEvent{
		EventType:   eventType,
		MenuItemID:  item.ID.String(),
		Name:        item.Name,
		IsAvailable: item.IsAvailable,
		Stock:       item.Stock,
		OccurredAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal menu item event", "error", err)
		return
	}

	if err := h.publisher.Publish(ctx, pkg.MenuTopic, payload); err != nil {
		h.logger.Error("cannot publish menu item event", "error", err, "menu_item_id", evt.MenuItemID)
	}
}

func (h *Handler) loadItem(w http.ResponseWriter, r *http.Request, log apt.Logger) (*MenuItem, bool) {
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return nil, false
	}

	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		log.Error("error loading menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve menu item")
		return nil, false
	}

	if item == nil {
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return nil, false
	}

	return item, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
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
		log.Debug("invalid id parameter", "id", idStr, "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, log apt.Logger, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Request body is required")
		return false
	}

	if err := json.Unmarshal(body, out); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}

	return true
}

func (h *Handler) respondValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  "Validation failed",
		"errors": errors,
	})
}
