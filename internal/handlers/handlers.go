package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"shared-notes/internal/auth"
	"shared-notes/internal/db"
	"shared-notes/internal/metrics"
	"shared-notes/internal/models"
	"shared-notes/internal/sweeper"
	"shared-notes/internal/uploads"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type Handlers struct {
	db         *db.DB
	auth       *auth.Auth
	sweeper    *sweeper.Sweeper
	wallpapers *uploads.Wallpapers
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New wires the HTTP surface. m may be nil to run without metrics.
func New(database *db.DB, a *auth.Auth, s *sweeper.Sweeper, w *uploads.Wallpapers, m *metrics.Metrics) *Handlers {
	return &Handlers{
		db:         database,
		auth:       a,
		sweeper:    s,
		wallpapers: w,
		metrics:    m,
		logger:     slog.Default().With("component", "http"),
	}
}

func (h *Handlers) respond(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.Warn("failed to encode response", "error", err)
		}
	}
}

func (h *Handlers) message(w http.ResponseWriter, text string) {
	h.respond(w, map[string]string{"message": text}, http.StatusOK)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handlers) error(w http.ResponseWriter, code, message string, status int) {
	h.respond(w, errorBody{Error: message, Code: code}, status)
}

// fail maps err onto a status code. Anything not recognised is a storage
// failure: it is logged and the caller gets a generic message.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		h.error(w, "InvalidInput", err.Error(), http.StatusBadRequest)
	case errors.Is(err, db.ErrNotConfigured):
		h.error(w, "NotConfigured", "App password not set", http.StatusNotFound)
	case errors.Is(err, models.ErrNotFound):
		h.error(w, "NotFound", "Note not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrInvalidCredential):
		h.error(w, "InvalidCredential", "Incorrect password", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken):
		h.error(w, "InvalidToken", "Invalid or expired token", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUnauthenticated):
		h.error(w, "Unauthenticated", "Authentication required", http.StatusUnauthorized)
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.error(w, "StorageFailure", "Internal server error", http.StatusInternalServerError)
		return
	}
	h.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", models.ErrInvalidInput)
	}
	return nil
}

// noteID reads the route's numeric id. Ids no note can have, zero or too
// large for int64, are reported as not found.
func noteID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("note %s: %w", raw, models.ErrNotFound)
	}
	return id, nil
}

func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("pong"))
}

// Health reports whether the database answers.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		h.error(w, "StorageFailure", "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	h.respond(w, map[string]string{"status": "ok"}, http.StatusOK)
}
