package services

import (
	"context"
	"fmt"

	"github.com/gts-commerce/cart-service/internal/model"
	"github.com/gts-commerce/cart-service/internal/realtime"
)

// Upsert writes one line item, replacing any existing entry for the product.
// The requested quantity is checked against live stock first and rejected
// with an InsufficientStockError carrying the available count when it cannot
// be satisfied. A successful write re-arms the cart TTL for the identity
// kind.
//
// This is deliberately a single-item path: other entries in the cart are not
// re-validated here, only on the next read.
func (s *CartService) Upsert(ctx context.Context, id model.Identity, in model.ItemInput) (*model.LineItem, error) {
	key, err := id.CartKey()
	if err != nil {
		return nil, err
	}
	if in.ProductID == "" {
		return nil, fmt.Errorf("productId is required")
	}
	if in.Qty < 1 {
		in.Qty = 1
	}

	// Inventory outage reads as zero stock here, so the request is refused
	// rather than over-committing an unreadable product.
	stock, _ := s.inv.Stock(ctx, in.ProductID)

	if stock < in.Qty {
		return nil, &model.InsufficientStockError{ProductID: in.ProductID, Requested: in.Qty, Available: stock}
	}

	if stock < s.opts.LowStockThreshold {
		s.publish(ctx, realtime.AdminGroup, realtime.EventStockAlert, realtime.StockAlert{
			Type:      realtime.AlertLowStock,
			Message:   fmt.Sprintf("Low stock for %s (%s): %d remaining.", in.Name, in.ProductID, stock),
			ProductID: in.ProductID,
			Timestamp: s.now(),
		})
	}

	// An overwrite keeps the original add time without trusting the caller to
	// resupply it. Best effort: a failed read just falls back to stamping now.
	if in.AddedAt == nil {
		if prev, ok, err := s.store.ReadField(ctx, key, in.ProductID); err == nil && ok {
			if existing, decErr := model.DecodeLineItem(prev); decErr == nil {
				in.AddedAt = &existing.AddedAt
			}
		}
	}

	item := model.NewLineItem(in, s.now())
	encoded, err := item.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.store.WriteField(ctx, key, item.ProductID, encoded); err != nil {
		return nil, err
	}
	if err := s.store.RefreshTTL(ctx, key, id.TTL()); err != nil {
		return nil, err
	}
	return &item, nil
}
