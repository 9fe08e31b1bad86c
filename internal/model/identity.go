package model

import (
	"fmt"
	"time"
)

// Cart TTLs per identity kind. A cart with no writes inside its window
// expires in the store; nothing in this service deletes it explicitly.
const (
	UserCartTTL  = 7 * 24 * time.Hour
	GuestCartTTL = 2 * 24 * time.Hour
)

// Identity addresses exactly one cart. Exactly one of UserID or GuestID is
// expected to be set; UserID wins when both are present.
type Identity struct {
	UserID  string
	GuestID string
}

// CartKey derives the store key for the identity.
func (id Identity) CartKey() (string, error) {
	switch {
	case id.UserID != "":
		return fmt.Sprintf("cart:user:%s", id.UserID), nil
	case id.GuestID != "":
		return fmt.Sprintf("cart:guest:%s", id.GuestID), nil
	default:
		return "", ErrIdentityMissing
	}
}

// TTL returns the retention window for the identity's cart.
func (id Identity) TTL() time.Duration {
	if id.UserID != "" {
		return UserCartTTL
	}
	return GuestCartTTL
}

// IsZero reports whether the identity carries no ID at all.
func (id Identity) IsZero() bool { return id.UserID == "" && id.GuestID == "" }
