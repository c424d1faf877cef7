package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/transportmanager/apiserver/internal/logger"
	"github.com/transportmanager/apiserver/internal/services"
	"github.com/transportmanager/apiserver/types"
)

const (
	msgUserCreated     = "user created successfully"
	msgUserUpdated     = "user updated successfully"
	msgUserDeleted     = "user deleted successfully"
	msgAlreadyInactive = "user already inactive"
)

// UserHandler provides HTTP handlers for user administration.
type UserHandler struct {
	userService *services.UserService
	log         *logger.Logger
}

// NewUserHandler constructs a handler with the provided service.
func NewUserHandler(userService *services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// UserRouter registers user routes on the given router. Guards, when given,
// wrap every route.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	log *logger.Logger,
	guards ...func(http.Handler) http.Handler,
) {
	handler := NewUserHandler(userService, log)

	r.Group(func(r chi.Router) {
		r.Use(guards...)

		r.Get("/", handler.ListUsers)
		r.Post("/", handler.CreateUser)
		r.Get("/stats", handler.GetStats)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", handler.GetUser)
			r.Put("/", handler.UpdateUser)
			r.Delete("/", handler.DeleteUser)
		})
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, users, "")
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, "")
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserInput
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	user, err := h.userService.Create(r.Context(), req)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusCreated, user, msgUserCreated)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	var req types.UserUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, req)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, msgUserUpdated)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	deleted, err := h.userService.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	if !deleted {
		writeSuccess(w, http.StatusOK, nil, msgAlreadyInactive)
		return
	}
	writeSuccess(w, http.StatusOK, nil, msgUserDeleted)
}

func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userService.Stats(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats, "")
}
