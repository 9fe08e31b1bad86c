package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Channel layout: each group maps to one pub/sub channel carrying JSON
// envelopes; edge servers subscribed to a group's channel deliver to their
// local sessions. Joins travel on a control channel so every edge sees them.
const (
	groupChannelPrefix = "rt:group:"
	controlChannel     = "rt:control"
)

type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type joinCommand struct {
	SessionID string   `json:"sessionId"`
	Groups    []string `json:"groups"`
}

// NewRedisTransport builds a Transport over Redis pub/sub.
func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

// RedisTransport publishes group events and join commands through Redis,
// mirroring how a socket server cluster shares fan-out over a Redis adapter.
type RedisTransport struct {
	client *redis.Client
}

var _ Transport = (*RedisTransport)(nil)

func (t *RedisTransport) JoinGroups(ctx context.Context, sessionID string, groups []string) error {
	if sessionID == "" || len(groups) == 0 {
		return nil
	}
	b, err := json.Marshal(joinCommand{SessionID: sessionID, Groups: groups})
	if err != nil {
		return err
	}
	if err := t.client.Publish(ctx, controlChannel, b).Err(); err != nil {
		return fmt.Errorf("join publish: %w", err)
	}
	return nil
}

func (t *RedisTransport) Publish(ctx context.Context, group, event string, payload interface{}) error {
	b, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return err
	}
	if err := t.client.Publish(ctx, groupChannelPrefix+group, b).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event, group, err)
	}
	return nil
}
