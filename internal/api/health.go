package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gts-commerce/cart-service/internal/api/respond"
)

// Pinger reports connectivity of the cart store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new health handler probing the given store.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// CheckHealth handles GET /cart/health. Returns 200 when the cart store
// answers a ping, 503 otherwise.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"service": "gts-cart-service",
			"db":      "redis-disconnected",
		})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "gts-cart-service",
		"db":      "redis-connected",
	})
}
