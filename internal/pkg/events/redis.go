package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisChannel = "storefront:catalog_events"

// RedisBus fans events out to every API instance through Redis Pub/Sub. Each
// instance delivers what it receives to its local subscribers.
type RedisBus struct {
	*LocalBus
	rdb    *redis.Client
	pubsub *redis.PubSub
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{LocalBus: NewLocalBus(), rdb: rdb}
}

// Publish sends the event to Redis. If Redis is unreachable the event is still
// delivered to this instance.
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, redisChannel, data).Err(); err != nil {
		log.Error().Err(err).Str("channel", redisChannel).Msg("Redis publish failed, delivering locally")
		b.dispatch(ctx, e)
	}
	return nil
}

// Run consumes the channel until ctx is done (call in goroutine).
func (b *RedisBus) Run(ctx context.Context) {
	b.pubsub = b.rdb.Subscribe(ctx, redisChannel)
	defer b.pubsub.Close()

	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed catalog event")
				continue
			}
			b.dispatch(ctx, e)
		}
	}
}
