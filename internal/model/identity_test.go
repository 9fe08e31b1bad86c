package model

import (
	"errors"
	"testing"
	"time"
)

func TestCartKeyDerivation(t *testing.T) {
	if key, err := (Identity{UserID: "42"}).CartKey(); err != nil || key != "cart:user:42" {
		t.Fatalf("user key: %q err=%v", key, err)
	}
	if key, err := (Identity{GuestID: "g-1"}).CartKey(); err != nil || key != "cart:guest:g-1" {
		t.Fatalf("guest key: %q err=%v", key, err)
	}
	// User ID wins when both are present.
	if key, _ := (Identity{UserID: "42", GuestID: "g-1"}).CartKey(); key != "cart:user:42" {
		t.Fatalf("precedence: %q", key)
	}
}

func TestCartKeyMissingIdentity(t *testing.T) {
	_, err := Identity{}.CartKey()
	if !errors.Is(err, ErrIdentityMissing) {
		t.Fatalf("expected ErrIdentityMissing, got %v", err)
	}
}

func TestIdentityTTL(t *testing.T) {
	if got := (Identity{UserID: "42"}).TTL(); got != 604800*time.Second {
		t.Fatalf("user TTL: %v", got)
	}
	if got := (Identity{GuestID: "g-1"}).TTL(); got != 172800*time.Second {
		t.Fatalf("guest TTL: %v", got)
	}
}
