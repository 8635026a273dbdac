// Package api serves the users resource.
package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/kroma-labs/sqlcommenter-go/example/internal/database"
	"github.com/rs/zerolog"
)

// Handler serves the users API.
type Handler struct {
	db     *database.DB
	logger zerolog.Logger
}

// New creates a Handler.
func New(db *database.DB, logger zerolog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Routes mounts the users API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Post("/users", h.createUser)
	r.Get("/users/{id}", h.getUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.ListUsers(r.Context(), 10)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	user, err := h.db.GetUser(r.Context(), id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.writeError(w, r, http.StatusNotFound, err)
	case err != nil:
		h.writeError(w, r, http.StatusInternalServerError, err)
	default:
		h.writeJSON(w, http.StatusOK, user)
	}
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var user database.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	created, err := h.db.CreateUser(r.Context(), user)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	h.writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}
