package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StockFeed subscribes to the external stock-change channel and hands parsed
// changes to a handler. Malformed messages are logged and dropped; the loop
// only exits when the context is cancelled or the subscription closes.
type StockFeed struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

// NewStockFeed builds a feed subscriber for the named channel.
func NewStockFeed(client *redis.Client, channel string, log zerolog.Logger) *StockFeed {
	return &StockFeed{client: client, channel: channel, log: log}
}

// Run blocks consuming the feed until ctx is done.
func (f *StockFeed) Run(ctx context.Context, handle func(ctx context.Context, change StockChange)) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer func() { _ = sub.Close() }()

	f.log.Info().Str("channel", f.channel).Msg("stock feed subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change StockChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				f.log.Warn().Err(err).Str("payload", msg.Payload).Msg("dropping malformed stock change")
				continue
			}
			if change.ProductID == "" {
				f.log.Warn().Str("payload", msg.Payload).Msg("dropping stock change without productId")
				continue
			}
			handle(ctx, change)
		}
	}
}
