package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/gts-commerce/cart-service/internal/api/recovery"
	"github.com/gts-commerce/cart-service/internal/services"
)

// NewRouter assembles the HTTP surface. The health endpoint sits outside the
// identity middleware so probes need no identity headers.
func NewRouter(svc *services.CartService, store Pinger, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware(log))

	health := NewHealthHandler(store)
	r.HandleFunc("/cart/health", health.CheckHealth).Methods("GET")

	cart := NewCartHandler(svc)
	c := r.PathPrefix("/cart").Subrouter()
	c.Use(IdentityMiddleware)
	c.HandleFunc("", cart.GetCart).Methods("GET")
	c.HandleFunc("", cart.UpsertItem).Methods("POST")
	c.HandleFunc("/merge", cart.MergeCarts).Methods("POST")
	c.HandleFunc("/{productId}", cart.RemoveItem).Methods("DELETE")

	return r
}
