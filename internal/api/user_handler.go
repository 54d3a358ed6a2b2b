package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/users-qa/internal/api/shared"
	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/platform/logger"
	"github.com/phrazzld/users-qa/internal/store"
)

// UserHandler serves the /user/ resource.
type UserHandler struct {
	store  store.UserStore
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler backed by s.
func NewUserHandler(s store.UserStore, l *slog.Logger) *UserHandler {
	return &UserHandler{
		store:  s,
		logger: logger.Component(l, "sandbox"),
	}
}

func (h *UserHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}

// parseID parses a user id. Ids are positive integers.
func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, invalidField(string(domain.FieldID), "must be a positive integer")
	}
	return id, nil
}

// queryIDs collects ids from repeated or comma separated id parameters.
func queryIDs(r *http.Request) ([]int, error) {
	var ids []int
	for _, value := range r.URL.Query()["id"] {
		for _, raw := range strings.Split(value, ",") {
			id, err := parseID(raw)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// List handles GET /user/. Without id parameters every user is returned;
// otherwise the matching ones. The response is always a JSON array.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDs(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	users, err := h.store.List(r.Context(), ids...)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, users)
}

// Get handles GET /user/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.store.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// Create handles POST /user/.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, false)
	if !ok {
		return
	}

	user, err := h.store.Create(r.Context(), req.Apply(domain.User{}))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	h.log(r).Info("user created", slog.Int("id", user.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, user)
}

// Replace handles PUT /user/{id}. All four fields are required.
func (h *UserHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// Patch handles PATCH /user/{id}. Absent fields are left unchanged.
func (h *UserHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	req, ok := h.decode(w, r, partial)
	if !ok {
		return
	}

	current, err := h.store.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	updated, err := h.store.Update(r.Context(), req.Apply(current))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.log(r).Info("user updated", slog.Int("id", id), slog.Bool("partial", partial))
	shared.RespondWithJSON(w, r, http.StatusOK, updated)
}

// Delete handles DELETE /user/{id} and returns the removed user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.store.Get(r.Context(), id)
	if err == nil {
		err = h.store.Delete(r.Context(), id)
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.log(r).Info("user deleted", slog.Int("id", id))
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// decode reads and validates a UserRequest, writing the error response
// itself when that fails.
func (h *UserHandler) decode(w http.ResponseWriter, r *http.Request, partial bool) (*UserRequest, bool) {
	var req UserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, errors.Join(ErrInvalidPayload, err), "Invalid request format")
		return nil, false
	}
	if err := req.Validate(partial); err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	return &req, true
}
