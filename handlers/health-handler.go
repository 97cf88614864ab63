package handlers

import (
	"context"
	"net/http"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) error {
	if err := h.db.PingContext(r.Context()); err != nil {
		return writeJSON(w, http.StatusServiceUnavailable, JSONResponse{"status": "unavailable"})
	}
	return writeJSON(w, http.StatusOK, JSONResponse{"status": "ok"})
}
