package guest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const UserMaxBodyBytes = 1 << 20

type CheckRequest struct {
	Phone string `json:"phone"`
}

type CheckResponse struct {
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
}

type LoginRequest struct {
	Phone       string   `json:"phone"`
	Name        string   `json:"name,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}

// PreferencesRequest accepts either a list or a single preference.
type PreferencesRequest struct {
	Preferences []string `json:"preferences"`
	Preference  string   `json:"preference,omitempty"`
}

func (r PreferencesRequest) all() []string {
	prefs := append([]string(nil), r.Preferences...)
	if r.Preference != "" {
		prefs = append(prefs, r.Preference)
	}
	return cleanPreferences(prefs)
}

type UserHandler struct {
	repo   UserRepo
	logger apt.Logger
	config *apt.Config
	tlm    *telemetry.HTTP
	now    func() time.Time
}

// NewUserHandler creates a new UserHandler for guest users.
func NewUserHandler(repo UserRepo, config *apt.Config, logger apt.Logger) *UserHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &UserHandler{
		repo:   repo,
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/check", h.CheckUser)
		r.Post("/login", h.Login)
		r.Get("/{id}", h.GetUser)
		r.Put("/{id}/preferences", h.AddPreferences)
	})
}

// CheckUser tells the login screen whether a phone number belongs to a
// returning guest.
func (h *UserHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.CheckUser")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req CheckRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	phone, ok := h.parsePhone(w, req.Phone)
	if !ok {
		return
	}

	user, err := h.repo.FindByPhone(ctx, phone)
	if err != nil {
		log.Error("cannot look up phone", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not check user")
		return
	}

	resp := CheckResponse{}
	if user != nil {
		resp.Exists = true
		resp.Name = user.Name
	}

	apt.RespondSuccess(w, resp)
}

// Login upserts by phone: returning guests get a visit recorded, new ones
// are registered.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.Login")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req LoginRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	phone, ok := h.parsePhone(w, req.Phone)
	if !ok {
		return
	}
	prefs := cleanPreferences(req.Preferences)
	now := h.now()

	user, err := h.repo.FindByPhone(ctx, phone)
	if err != nil {
		log.Error("cannot look up phone", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not log in")
		return
	}

	status := http.StatusOK
	if user == nil {
		user = NewUser(phone, req.Name, prefs, now)
		err = h.repo.Create(ctx, user)
		if errors.Is(err, ErrPhoneTaken) {
			// Lost a race with a concurrent first login for the same phone.
			user, err = h.repo.FindByPhone(ctx, phone)
			if err == nil && user != nil {
				user.RecordVisit(req.Name, prefs, now)
				err = h.repo.Save(ctx, user)
			}
		} else if err == nil {
			status = http.StatusCreated
		}
	} else {
		user.RecordVisit(req.Name, prefs, now)
		err = h.repo.Save(ctx, user)
	}

	if err != nil || user == nil {
		log.Error("cannot log in guest", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not log in")
		return
	}

	log.Info("guest logged in", "user_id", user.ID.String(), "visits", user.VisitCount)

	links := apt.RESTfulLinksFor(user)
	if status == http.StatusCreated {
		w.WriteHeader(http.StatusCreated)
	}
	apt.RespondSuccess(w, user, links...)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.GetUser")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.repo.Get(ctx, id)
	if err != nil {
		log.Error("error loading user", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve user")
		return
	}

	if user == nil {
		apt.RespondError(w, http.StatusNotFound, "User not found")
		return
	}

	links := apt.RESTfulLinksFor(user)
	apt.RespondSuccess(w, user, links...)
}

// AddPreferences merges preferences into the stored set without duplicates.
func (h *UserHandler) AddPreferences(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.AddPreferences")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	var req PreferencesRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	prefs := req.all()
	if len(prefs) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "At least one preference is required")
		return
	}

	user, err := h.repo.AddPreferences(ctx, id, prefs)
	if err != nil {
		log.Error("cannot add preferences", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not update preferences")
		return
	}

	if user == nil {
		apt.RespondError(w, http.StatusNotFound, "User not found")
		return
	}

	links := apt.RESTfulLinksFor(user)
	apt.RespondSuccess(w, user, links...)
}

func (h *UserHandler) log(req ...*http.Request) apt.Logger {
	if len(req) > 0 && req[0] != nil {
		r := req[0]
		return h.logger.With(
			"request_id", apt.RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
	}
	return h.logger
}

func (h *UserHandler) parsePhone(w http.ResponseWriter, raw string) (string, bool) {
	phone := NormalizePhone(raw)
	if phone == "" {
		apt.RespondError(w, http.StatusBadRequest, "Phone is required")
		return "", false
	}
	if !ValidPhone(phone) {
		apt.RespondError(w, http.StatusBadRequest, "Invalid phone number")
		return "", false
	}
	return phone, true
}

func (h *UserHandler) parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if strings.TrimSpace(idStr) == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing or invalid id")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid id format")
		return uuid.Nil, false
	}

	return id, true
}

func (h *UserHandler) decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, UserMaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Request body is empty")
		return false
	}

	if err := json.Unmarshal(body, out); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not parse JSON")
		return false
	}

	return true
}
