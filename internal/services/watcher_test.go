package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gts-commerce/cart-service/internal/realtime"
)

func TestWatcherBroadcastsStockUpdate(t *testing.T) {
	ft := &fakeTransport{}
	w := NewStockWatcher(ft, zerolog.Nop())
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.HandleChange(context.Background(), realtime.StockChange{ProductID: "A", Stock: 7})

	events := ft.eventsFor("product_watch:A")
	if len(events) != 1 || events[0] != realtime.EventStockUpdate {
		t.Fatalf("events: %v", ft.published)
	}
	update := ft.published[0].payload.(realtime.StockUpdate)
	if update.ProductID != "A" || update.Stock != 7 || !update.Timestamp.Equal(now) {
		t.Fatalf("payload: %+v", update)
	}
}

func TestWatcherForcesRefreshWhenOutOfStock(t *testing.T) {
	ft := &fakeTransport{}
	w := NewStockWatcher(ft, zerolog.Nop())

	w.HandleChange(context.Background(), realtime.StockChange{ProductID: "A", Stock: 0})

	events := ft.eventsFor("product_watch:A")
	if len(events) != 2 || events[0] != realtime.EventStockUpdate || events[1] != realtime.EventForceCartRefresh {
		t.Fatalf("events: %v", events)
	}
}

func TestWatcherSurvivesPublishFailure(t *testing.T) {
	ft := &fakeTransport{err: errBoom}
	w := NewStockWatcher(ft, zerolog.Nop())

	// Must not panic or propagate.
	w.HandleChange(context.Background(), realtime.StockChange{ProductID: "A", Stock: 0})
}
