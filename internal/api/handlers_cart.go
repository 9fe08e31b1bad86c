package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gts-commerce/cart-service/internal/api/respond"
	"github.com/gts-commerce/cart-service/internal/model"
	"github.com/gts-commerce/cart-service/internal/services"
)

// CartHandler provides HTTP transport for cart operations.
type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(svc *services.CartService) *CartHandler {
	return &CartHandler{cartService: svc}
}

// GetCart GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respond.WriteBadRequest(w, model.ErrIdentityMissing.Error())
		return
	}

	cart, err := h.cartService.Get(r.Context(), id)
	if err != nil {
		writeCartError(w, err)
		return
	}

	// A session that reads its cart starts watching those products.
	if sessionID := r.Header.Get("X-Session-Id"); sessionID != "" {
		h.cartService.JoinProductGroups(r.Context(), sessionID, cart.Items)
	}

	respond.WriteJSON(w, http.StatusOK, cart)
}

// UpsertItem POST /cart
func (h *CartHandler) UpsertItem(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respond.WriteBadRequest(w, model.ErrIdentityMissing.Error())
		return
	}

	var in model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if in.ProductID == "" || in.Qty < 1 {
		respond.WriteBadRequest(w, "productId and qty are required.")
		return
	}

	item, err := h.cartService.Upsert(r.Context(), id, in)
	if err != nil {
		writeCartError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, item)
}

// RemoveItem DELETE /cart/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respond.WriteBadRequest(w, model.ErrIdentityMissing.Error())
		return
	}
	productID := mux.Vars(r)["productId"]

	if err := h.cartService.Remove(r.Context(), id, productID); err != nil {
		writeCartError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// MergeCarts POST /cart/merge
func (h *CartHandler) MergeCarts(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok || id.UserID == "" || id.GuestID == "" {
		respond.WriteBadRequest(w, "userId and guestId are required for merge.")
		return
	}

	cart, err := h.cartService.Merge(r.Context(), id.GuestID, id.UserID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, cart)
}

// writeCartError maps domain errors onto HTTP statuses: identity problems are
// the caller's fault, insufficient stock is client-correctable, store outages
// are retryable server failures.
func writeCartError(w http.ResponseWriter, err error) {
	var ise *model.InsufficientStockError
	switch {
	case errors.Is(err, model.ErrIdentityMissing):
		respond.WriteBadRequest(w, err.Error())
	case errors.As(err, &ise):
		respond.WriteJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     "Conflict",
			"code":      http.StatusConflict,
			"message":   ise.Error(),
			"available": ise.Available,
		})
	case errors.Is(err, model.ErrStoreUnavailable), errors.Is(err, model.ErrInventoryUnavailable):
		respond.WriteServiceUnavailable(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
