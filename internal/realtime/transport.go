// Package realtime defines the broadcast transport the cart core publishes
// through. The core never holds live connections; it addresses named groups
// and lets the transport manage membership.
package realtime

import (
	"context"
	"fmt"
	"time"
)

// Well-known groups. Product groups collect sessions currently viewing a
// product; user groups address one authenticated user's sessions.
const AdminGroup = "admin_notifications"

// ProductGroup names the broadcast group for one product.
func ProductGroup(productID string) string {
	return fmt.Sprintf("product_watch:%s", productID)
}

// UserGroup names the broadcast group for one user's sessions.
func UserGroup(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// Transport fans events out to live client sessions. Implementations own
// group membership entirely.
type Transport interface {
	// JoinGroups subscribes a session to the given groups.
	JoinGroups(ctx context.Context, sessionID string, groups []string) error
	// Publish emits an event to every session in the group.
	Publish(ctx context.Context, group, event string, payload interface{}) error
}

// Event names emitted by the cart core.
const (
	EventStockUpdate      = "stock_update"
	EventForceCartRefresh = "force_cart_refresh"
	EventStockAlert       = "stock_alert"
	EventCartUpdated      = "cart_updated"
)

// Stock alert types.
const (
	AlertLowStock    = "LOW_STOCK"
	AlertAutoRemoval = "AUTO_REMOVAL"
)

// StockUpdate notifies watchers of a product's new stock level.
type StockUpdate struct {
	ProductID string    `json:"productId"`
	Stock     int       `json:"stock"`
	Timestamp time.Time `json:"timestamp"`
}

// ForceCartRefresh tells clients their cached cart view may be stale.
type ForceCartRefresh struct {
	Message string `json:"message"`
}

// StockAlert is an administrative notification.
type StockAlert struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ProductID string    `json:"productId"`
	Timestamp time.Time `json:"timestamp"`
}

// CartUpdated signals that a cart changed outside the client's own request.
type CartUpdated struct {
	Source string `json:"source"`
}

// StockChange is an inbound message on the external stock-change feed.
type StockChange struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}
