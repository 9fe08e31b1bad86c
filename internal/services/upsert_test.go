package services

import (
	"context"
	"testing"
	"time"

	"github.com/gts-commerce/cart-service/internal/model"
	"github.com/gts-commerce/cart-service/internal/realtime"
)

func TestUpsertWritesItemAndRefreshesTTL(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{stocks: map[string]int{"A": 10}}
	svc := newTestService(fs, fr, &fakeTransport{}, Options{})

	item, err := svc.Upsert(context.Background(), model.Identity{UserID: "u1"}, model.ItemInput{
		ProductID:    "A",
		Name:         "Alpha",
		RegularPrice: "10",
		Qty:          3,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if item.Qty != 3 || item.RegularPrice != "10.00" || item.SKU != "N/A" {
		t.Fatalf("item: %+v", item)
	}

	stored, err := model.DecodeLineItem(fs.carts["cart:user:u1"]["A"])
	if err != nil {
		t.Fatalf("stored decode: %v", err)
	}
	if stored.Qty != 3 {
		t.Fatalf("stored qty: %d", stored.Qty)
	}
	if fs.ttls["cart:user:u1"] != 604800*time.Second {
		t.Fatalf("user TTL: %v", fs.ttls["cart:user:u1"])
	}
}

func TestUpsertGuestTTL(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{stocks: map[string]int{"A": 10}}
	svc := newTestService(fs, fr, &fakeTransport{}, Options{})

	if _, err := svc.Upsert(context.Background(), model.Identity{GuestID: "g1"}, model.ItemInput{ProductID: "A", Qty: 1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if fs.ttls["cart:guest:g1"] != 172800*time.Second {
		t.Fatalf("guest TTL: %v", fs.ttls["cart:guest:g1"])
	}
}

func TestUpsertReplacesQuantity(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{stocks: map[string]int{"A": 10}}
	svc := newTestService(fs, fr, &fakeTransport{}, Options{})
	id := model.Identity{UserID: "u1"}

	if _, err := svc.Upsert(context.Background(), id, model.ItemInput{ProductID: "A", Qty: 2}); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	// Upserting the same product replaces the quantity, it does not add.
	if _, err := svc.Upsert(context.Background(), id, model.ItemInput{ProductID: "A", Qty: 3}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	stored, _ := model.DecodeLineItem(fs.carts["cart:user:u1"]["A"])
	if stored.Qty != 3 {
		t.Fatalf("replace semantics: want 3, got %d", stored.Qty)
	}
}

func TestUpsertOverwritePreservesAddedAt(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{stocks: map[string]int{"A": 10}}
	svc := newTestService(fs, fr, &fakeTransport{}, Options{})
	id := model.Identity{UserID: "u1"}

	firstAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return firstAt }
	first, err := svc.Upsert(context.Background(), id, model.ItemInput{ProductID: "A", Qty: 1})
	if err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	// The overwrite does not resupply addedAt; the stored value survives.
	secondAt := firstAt.Add(2 * time.Hour)
	svc.now = func() time.Time { return secondAt }
	second, err := svc.Upsert(context.Background(), id, model.ItemInput{ProductID: "A", Qty: 2})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if !second.AddedAt.Equal(first.AddedAt) {
		t.Fatalf("addedAt not preserved: first=%v second=%v", first.AddedAt, second.AddedAt)
	}
	if !second.UpdatedAt.Equal(secondAt) {
		t.Fatalf("updatedAt not restamped: %v", second.UpdatedAt)
	}

	stored, err := model.DecodeLineItem(fs.carts["cart:user:u1"]["A"])
	if err != nil {
		t.Fatalf("stored decode: %v", err)
	}
	if !stored.AddedAt.Equal(firstAt) || stored.Qty != 2 {
		t.Fatalf("stored item: addedAt=%v qty=%d", stored.AddedAt, stored.Qty)
	}
}

func TestUpsertInsufficientStock(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{stocks: map[string]int{"X": 3}}
	svc := newTestService(fs, fr, &fakeTransport{}, Options{})

	_, err := svc.Upsert(context.Background(), model.Identity{UserID: "u1"}, model.ItemInput{ProductID: "X", Qty: 5})
	if !model.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	ise := err.(*model.InsufficientStockError)
	if ise.Available != 3 || ise.Requested != 5 {
		t.Fatalf("error payload: %+v", ise)
	}
	// No field is written on rejection.
	if len(fs.carts["cart:user:u1"]) != 0 {
		t.Fatalf("rejected upsert must not write: %v", fs.carts)
	}
}

func TestUpsertExactStockAllowed(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{stocks: map[string]int{"A": 5}}
	svc := newTestService(fs, fr, &fakeTransport{}, Options{LowStockThreshold: 1})

	if _, err := svc.Upsert(context.Background(), model.Identity{UserID: "u1"}, model.ItemInput{ProductID: "A", Qty: 5}); err != nil {
		t.Fatalf("qty == stock must be accepted: %v", err)
	}
}

func TestUpsertLowStockAlert(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{stocks: map[string]int{"A": 4}}
	ft := &fakeTransport{}
	svc := newTestService(fs, fr, ft, Options{})

	if _, err := svc.Upsert(context.Background(), model.Identity{UserID: "u1"}, model.ItemInput{ProductID: "A", Name: "Alpha", Qty: 2}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	events := ft.eventsFor(realtime.AdminGroup)
	if len(events) != 1 || events[0] != realtime.EventStockAlert {
		t.Fatalf("low stock alert expected: %v", ft.published)
	}
	alert := ft.published[0].payload.(realtime.StockAlert)
	if alert.Type != realtime.AlertLowStock || alert.ProductID != "A" {
		t.Fatalf("alert payload: %+v", alert)
	}
}

func TestUpsertNoAlertAboveThreshold(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{stocks: map[string]int{"A": 5}}
	ft := &fakeTransport{}
	svc := newTestService(fs, fr, ft, Options{})

	if _, err := svc.Upsert(context.Background(), model.Identity{UserID: "u1"}, model.ItemInput{ProductID: "A", Qty: 1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(ft.published) != 0 {
		t.Fatalf("no alert expected at threshold: %v", ft.published)
	}
}

func TestUpsertInventoryOutageRejects(t *testing.T) {
	fs := newFakeStore()
	fr := &fakeReader{err: errBoom}
	svc := newTestService(fs, fr, &fakeTransport{}, Options{})

	// Unreadable stock reads as zero, so the request is refused.
	_, err := svc.Upsert(context.Background(), model.Identity{UserID: "u1"}, model.ItemInput{ProductID: "A", Qty: 1})
	if !model.IsInsufficientStock(err) {
		t.Fatalf("expected fail-closed rejection, got %v", err)
	}
}

func TestUpsertSingleItemOnly(t *testing.T) {
	fs := newFakeStore()
	// A stale entry for another product sits in the cart.
	fs.set("cart:user:u1", "B", mustEncode(t, testItem("B", "Beta", 99)))
	fr := &fakeReader{stocks: map[string]int{"A": 10, "B": 1}}
	svc := newTestService(fs, fr, &fakeTransport{}, Options{})

	if _, err := svc.Upsert(context.Background(), model.Identity{UserID: "u1"}, model.ItemInput{ProductID: "A", Qty: 1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	// Upsert does not reconcile the rest of the cart.
	stored, _ := model.DecodeLineItem(fs.carts["cart:user:u1"]["B"])
	if stored.Qty != 99 {
		t.Fatalf("upsert must not touch other items: %+v", stored)
	}
	if len(fr.batchLog) != 0 {
		t.Fatalf("no batch lookup expected: %v", fr.batchLog)
	}
}
