package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/dropDatabas3/workplane/internal/http/errors"
)

// Pinger es lo que el health check necesita del storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler maneja /healthz.
type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Healthz responde 200 si el proceso y el storage están vivos.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	httperrors.WriteJSON(w, code, map[string]string{"status": status})
}
