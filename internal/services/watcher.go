package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gts-commerce/cart-service/internal/realtime"
)

// StockWatcher fans inbound stock changes out to the sessions watching the
// affected product.
type StockWatcher struct {
	rt  realtime.Transport
	log zerolog.Logger
	now func() time.Time
}

// NewStockWatcher builds a watcher publishing through the given transport.
func NewStockWatcher(rt realtime.Transport, log zerolog.Logger) *StockWatcher {
	return &StockWatcher{rt: rt, log: log, now: time.Now}
}

// HandleChange broadcasts a stock_update to the product's group. When the
// product just went out of stock it also advises watchers to re-fetch their
// cart, since reconciliation will purge the item on their next read.
func (w *StockWatcher) HandleChange(ctx context.Context, change realtime.StockChange) {
	group := realtime.ProductGroup(change.ProductID)

	if err := w.rt.Publish(ctx, group, realtime.EventStockUpdate, realtime.StockUpdate{
		ProductID: change.ProductID,
		Stock:     change.Stock,
		Timestamp: w.now(),
	}); err != nil {
		w.log.Warn().Err(err).Str("product_id", change.ProductID).Msg("stock update publish failed")
	}

	if change.Stock < 1 {
		if err := w.rt.Publish(ctx, group, realtime.EventForceCartRefresh, realtime.ForceCartRefresh{
			Message: "An item in your cart just went out of stock.",
		}); err != nil {
			w.log.Warn().Err(err).Str("product_id", change.ProductID).Msg("cart refresh publish failed")
		}
	}
}
