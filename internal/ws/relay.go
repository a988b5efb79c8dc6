package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RelayChannel is the Redis pub/sub channel carrying push events.
const RelayChannel = "pedidos:events"

// Relay fans events out through Redis so every replica's hub delivers them.
type Relay struct {
	hub     *Hub
	rdb     *redis.Client
	channel string
}

// NewRelay creates a Relay publishing on RelayChannel.
func NewRelay(hub *Hub, rdb *redis.Client) *Relay {
	return &Relay{hub: hub, rdb: rdb, channel: RelayChannel}
}

// Publish sends ev to Redis. If Redis is unreachable the event still reaches
// this replica's clients.
func (r *Relay) Publish(ctx context.Context, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("ws: marshal event")
		return
	}
	if err := r.rdb.Publish(ctx, r.channel, msg).Err(); err != nil {
		log.Warn().Err(err).Msg("ws: redis publish failed, delivering locally")
		r.hub.deliver(ctx, ev.Source, msg)
	}
}

// Run subscribes to the channel and hands every event to the local hub
// until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var head struct {
				Source string `json:"source"`
			}
			if err := json.Unmarshal([]byte(m.Payload), &head); err != nil {
				log.Warn().Err(err).Msg("ws: bad relay payload")
				continue
			}
			r.hub.deliver(ctx, head.Source, []byte(m.Payload))
		}
	}
}
