package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/gts-commerce/cart-service/internal/model"
	"github.com/gts-commerce/cart-service/internal/realtime"
	"github.com/gts-commerce/cart-service/internal/store"
)

// Merge folds a guest cart into a user cart, typically on authentication.
// Quantities for products present in both carts are summed, the union is
// re-validated against live stock, and the user-cart writes, guest-key
// deletion, and user TTL refresh are committed as one pipelined batch. The
// guest cart is never guaranteed to survive a merge attempt.
//
// Returns the reconciled user cart, so callers see exactly the shape of a
// normal read. Calling without both IDs is a no-op.
func (s *CartService) Merge(ctx context.Context, guestID, userID string) (*model.ReconciledCart, error) {
	if guestID == "" || userID == "" {
		return nil, nil
	}

	guestIdentity := model.Identity{GuestID: guestID}
	userIdentity := model.Identity{UserID: userID}
	guestKey, err := guestIdentity.CartKey()
	if err != nil {
		return nil, err
	}
	userKey, err := userIdentity.CartKey()
	if err != nil {
		return nil, err
	}

	var guestRaw, userRaw map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		guestRaw, err = s.store.ReadAll(gctx, guestKey)
		return err
	})
	g.Go(func() error {
		var err error
		userRaw, err = s.store.ReadAll(gctx, userKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Nothing to fold in: hand back the user cart without wasted writes.
	if len(guestRaw) == 0 {
		return s.Get(ctx, userIdentity)
	}

	// User items first so their non-quantity fields win on collision.
	merged := map[string]model.LineItem{}
	var order []string
	hydrate(userRaw, merged, &order)
	hydrate(guestRaw, merged, &order)

	stocks, invErr := s.inv.StockBatch(ctx, order)
	if invErr != nil && s.opts.OutageMode == OutageSkip {
		// Committing a merge on zeroed stock would purge both carts; without
		// trustworthy counts the safe move is to retry later.
		return nil, fmt.Errorf("merge aborted: %w", invErr)
	}

	ops := make([]store.BatchOp, 0, len(order)+2)
	for _, pid := range order {
		item := merged[pid]
		stock := stocks[pid]
		if stock <= 0 {
			ops = append(ops, store.DeleteFieldOp(userKey, pid))
			continue
		}
		if item.Qty > stock {
			item.Qty = stock
			item.Message = fmt.Sprintf("Qty adjusted to %d (max available).", stock)
		}
		item.UpdatedAt = s.now()
		encoded, err := item.Encode()
		if err != nil {
			s.log.Error().Err(err).Str("product_id", pid).Msg("failed to encode merged item")
			continue
		}
		ops = append(ops, store.WriteFieldOp(userKey, pid, encoded))
	}
	ops = append(ops, store.DeleteKeyOp(guestKey))
	ops = append(ops, store.RefreshTTLOp(userKey, userIdentity.TTL()))

	results, err := s.store.ExecuteBatch(ctx, ops)
	if err != nil {
		return nil, err
	}
	if partial := partialFailure(results); partial != nil {
		// Surface but keep going: the guest cart is not resurrected once the
		// commit has started.
		s.log.Warn().Err(partial).Str("user_key", userKey).Msg("merge commit partially failed")
	}

	s.publish(ctx, realtime.UserGroup(userID), realtime.EventCartUpdated, realtime.CartUpdated{Source: "merge"})

	return s.Get(ctx, userIdentity)
}

// hydrate folds raw hash fields into the merged map, summing quantities on
// collision and recording first-seen order. Corrupt entries are skipped; the
// next read of whichever cart survives purges them.
func hydrate(raw map[string]string, merged map[string]model.LineItem, order *[]string) {
	fields := make([]string, 0, len(raw))
	for f := range raw {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		item, err := model.DecodeLineItem(raw[f])
		if err != nil {
			continue
		}
		if existing, ok := merged[item.ProductID]; ok {
			existing.Qty += item.Qty
			merged[item.ProductID] = existing
			continue
		}
		merged[item.ProductID] = item
		*order = append(*order, item.ProductID)
	}
}
