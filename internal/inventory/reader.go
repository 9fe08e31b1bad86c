// Package inventory reads the externally owned stock snapshot. This service
// only consumes counts; the inventory ledger itself belongs to another system.
package inventory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gts-commerce/cart-service/internal/model"
)

// Reader exposes read-only stock lookups. Both methods are fail-closed: on a
// transport failure the affected products report zero stock and the error is
// returned alongside so callers can tell an outage from a true zero.
type Reader interface {
	Stock(ctx context.Context, productID string) (int, error)
	StockBatch(ctx context.Context, productIDs []string) (map[string]int, error)
}

func stockKey(productID string) string {
	return fmt.Sprintf("product:stock:%s", productID)
}

// NewRedisReader builds a Reader over the inventory key space.
func NewRedisReader(client *redis.Client, log zerolog.Logger) *RedisReader {
	return &RedisReader{client: client, log: log}
}

// RedisReader reads product:stock:{productId} counters with GET / MGET.
type RedisReader struct {
	client *redis.Client
	log    zerolog.Logger
}

var _ Reader = (*RedisReader)(nil)

func (r *RedisReader) Stock(ctx context.Context, productID string) (int, error) {
	val, err := r.client.Get(ctx, stockKey(productID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		r.log.Error().Err(err).Str("product_id", productID).Msg("inventory lookup failed, treating as zero stock")
		return 0, fmt.Errorf("%w: %v", model.ErrInventoryUnavailable, err)
	}
	return parseStock(val), nil
}

func (r *RedisReader) StockBatch(ctx context.Context, productIDs []string) (map[string]int, error) {
	stocks := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		stocks[id] = 0
	}
	if len(productIDs) == 0 {
		return stocks, nil
	}

	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = stockKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		r.log.Error().Err(err).Int("products", len(productIDs)).Msg("inventory batch lookup failed, treating all as zero stock")
		return stocks, fmt.Errorf("%w: %v", model.ErrInventoryUnavailable, err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			stocks[productIDs[i]] = parseStock(s)
		}
	}
	return stocks, nil
}

func parseStock(val string) int {
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
