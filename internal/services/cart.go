// Package services implements the cart operations: reconciled reads, single
// item upserts, guest-to-user merges, and stock-change fan-out.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gts-commerce/cart-service/internal/inventory"
	"github.com/gts-commerce/cart-service/internal/model"
	"github.com/gts-commerce/cart-service/internal/realtime"
	"github.com/gts-commerce/cart-service/internal/store"
)

// OutageMode selects reconcile behavior when the whole inventory batch lookup
// fails. FailClosed treats unreadable stock as zero and purges; Skip leaves
// the cart untouched and reports the outage as a warning.
type OutageMode string

const (
	OutageFailClosed OutageMode = "fail-closed"
	OutageSkip       OutageMode = "skip"
)

// Options tunes the cart service. Zero values fall back to the documented
// defaults.
type Options struct {
	LowStockThreshold int
	OutageMode        OutageMode
}

func (o Options) withDefaults() Options {
	if o.LowStockThreshold == 0 {
		o.LowStockThreshold = 5
	}
	if o.OutageMode == "" {
		o.OutageMode = OutageFailClosed
	}
	return o
}

// CartService orchestrates the cart store, inventory reader, and realtime
// transport.
//
// No per-cart locking exists: two concurrent upserts for the same product can
// race, and a reconcile can write back a value an interleaved upsert just
// replaced. Field writes are individually atomic, so the damage is bounded to
// last-write-wins on one field, never structural corruption of the hash.
type CartService struct {
	store store.Store
	inv   inventory.Reader
	rt    realtime.Transport
	opts  Options
	log   zerolog.Logger
	now   func() time.Time
}

// NewCartService wires a cart service. The transport may be nil in contexts
// that never broadcast (e.g., offline tooling).
func NewCartService(s store.Store, inv inventory.Reader, rt realtime.Transport, opts Options, log zerolog.Logger) *CartService {
	return &CartService{
		store: s,
		inv:   inv,
		rt:    rt,
		opts:  opts.withDefaults(),
		log:   log,
		now:   time.Now,
	}
}

// Get reads the cart and reconciles every line item against live stock:
// out-of-stock items are purged, over-stock quantities clamped, and the
// corrected view written back in one pipelined batch. Corrupt entries are
// purged individually without aborting the pass.
func (s *CartService) Get(ctx context.Context, id model.Identity) (*model.ReconciledCart, error) {
	key, err := id.CartKey()
	if err != nil {
		return nil, err
	}

	raw, err := s.store.ReadAll(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &model.ReconciledCart{Items: []model.LineItem{}, Messages: []model.Message{}}, nil
	}

	items, productIDs := s.parseEntries(ctx, key, raw)

	stocks, invErr := s.inv.StockBatch(ctx, productIDs)
	if invErr != nil && s.opts.OutageMode == OutageSkip {
		s.log.Warn().Err(invErr).Str("key", key).Msg("inventory outage, skipping reconciliation")
		return &model.ReconciledCart{
			Items:    items,
			Messages: []model.Message{{Type: model.MessageWarning, Text: "Stock information is temporarily unavailable."}},
		}, nil
	}

	result, ops, purged := s.reconcile(key, items, stocks)

	if len(ops) > 0 {
		s.applyCorrections(ctx, key, ops, result)
	}
	for _, item := range purged {
		s.publish(ctx, realtime.AdminGroup, realtime.EventStockAlert, realtime.StockAlert{
			Type:      realtime.AlertAutoRemoval,
			Message:   fmt.Sprintf("%s (%s) removed from a cart: out of stock.", item.Name, item.ProductID),
			ProductID: item.ProductID,
			Timestamp: s.now(),
		})
	}
	return result, nil
}

// JoinProductGroups subscribes a session to the broadcast group of every item
// it currently has in view, so stock changes reach it in real time. Failures
// are logged only; a missed join never fails the read that triggered it.
func (s *CartService) JoinProductGroups(ctx context.Context, sessionID string, items []model.LineItem) {
	if s.rt == nil || sessionID == "" || len(items) == 0 {
		return
	}
	groups := make([]string, len(items))
	for i, item := range items {
		groups[i] = realtime.ProductGroup(item.ProductID)
	}
	if err := s.rt.JoinGroups(ctx, sessionID, groups); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("product group join failed")
	}
}

// Remove deletes one line item. Removing an absent product is not an error.
func (s *CartService) Remove(ctx context.Context, id model.Identity, productID string) error {
	key, err := id.CartKey()
	if err != nil {
		return err
	}
	return s.store.DeleteField(ctx, key, productID)
}

// parseEntries decodes raw hash fields in sorted field order. Corrupt fields
// are purged immediately and skipped.
func (s *CartService) parseEntries(ctx context.Context, key string, raw map[string]string) ([]model.LineItem, []string) {
	fields := make([]string, 0, len(raw))
	for f := range raw {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	items := make([]model.LineItem, 0, len(fields))
	productIDs := make([]string, 0, len(fields))
	for _, f := range fields {
		item, err := model.DecodeLineItem(raw[f])
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Str("field", f).Msg("purging corrupt cart entry")
			if delErr := s.store.DeleteField(ctx, key, f); delErr != nil {
				s.log.Error().Err(delErr).Str("key", key).Str("field", f).Msg("failed to purge corrupt entry")
			}
			continue
		}
		items = append(items, item)
		productIDs = append(productIDs, f)
	}
	return items, productIDs
}

// reconcile compares each item against live stock and produces the corrected
// view, the write-back ops, and the items scheduled for purge. Items are
// processed in their parse order so messages are deterministic.
func (s *CartService) reconcile(key string, items []model.LineItem, stocks map[string]int) (*model.ReconciledCart, []store.BatchOp, []model.LineItem) {
	result := &model.ReconciledCart{Items: []model.LineItem{}, Messages: []model.Message{}}
	var ops []store.BatchOp
	var purged []model.LineItem

	for _, item := range items {
		stock := stocks[item.ProductID]
		switch {
		case stock < 1:
			ops = append(ops, store.DeleteFieldOp(key, item.ProductID))
			purged = append(purged, item)
			result.Messages = append(result.Messages, model.Message{
				Type: model.MessageError,
				Text: fmt.Sprintf("%s is now out of stock.", item.Name),
			})
		case item.Qty > stock:
			item.Qty = stock
			item.UpdatedAt = s.now()
			item.Message = fmt.Sprintf("Qty adjusted to %d (max available).", stock)
			encoded, err := item.Encode()
			if err != nil {
				s.log.Error().Err(err).Str("product_id", item.ProductID).Msg("failed to encode corrected item")
				continue
			}
			ops = append(ops, store.WriteFieldOp(key, item.ProductID, encoded))
			item.MaxStock = stock
			result.Items = append(result.Items, item)
			result.Messages = append(result.Messages, model.Message{
				Type: model.MessageWarning,
				Text: fmt.Sprintf("%s quantity adjusted.", item.Name),
			})
		default:
			item.MaxStock = stock
			result.Items = append(result.Items, item)
		}
	}
	return result, ops, purged
}

// applyCorrections writes scheduled corrections back in one batch. The read
// path never fails on write-back problems; they surface as a warning.
func (s *CartService) applyCorrections(ctx context.Context, key string, ops []store.BatchOp, result *model.ReconciledCart) {
	results, err := s.store.ExecuteBatch(ctx, ops)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("cart correction batch failed")
		result.Messages = append(result.Messages, model.Message{
			Type: model.MessageWarning,
			Text: "Some cart corrections could not be saved.",
		})
		return
	}
	if partial := partialFailure(results); partial != nil {
		s.log.Warn().Err(partial).Str("key", key).Msg("cart correction batch partially failed")
		result.Messages = append(result.Messages, model.Message{
			Type: model.MessageWarning,
			Text: "Some cart corrections could not be saved.",
		})
	}
}

// partialFailure summarizes per-op batch failures, or returns nil when the
// batch fully applied.
func partialFailure(results []store.BatchResult) *model.BatchPartialError {
	var failed int
	var first error
	for _, r := range results {
		if r.Err != nil {
			failed++
			if first == nil {
				first = r.Err
			}
		}
	}
	if failed == 0 {
		return nil
	}
	return &model.BatchPartialError{Failed: failed, Total: len(results), First: first}
}

// publish sends a realtime event, logging failures instead of propagating
// them: broadcast is an informational side effect on every path that uses it.
func (s *CartService) publish(ctx context.Context, group, event string, payload interface{}) {
	if s.rt == nil {
		return
	}
	if err := s.rt.Publish(ctx, group, event, payload); err != nil {
		s.log.Warn().Err(err).Str("group", group).Str("event", event).Msg("realtime publish failed")
	}
}
