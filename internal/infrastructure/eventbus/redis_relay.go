package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRelay publishes events on a Redis pub/sub channel and rebroadcasts
// everything received on it, including its own events, into the local hub.
type RedisRelay struct {
	redisClient *redis.Client
	channel     string
	hub         *Hub
	log         *logrus.Logger

	pubsub *redis.PubSub
}

func NewRedisRelay(redisClient *redis.Client, channel string, hub *Hub, log *logrus.Logger) *RedisRelay {
	return &RedisRelay{
		redisClient: redisClient,
		channel:     channel,
		hub:         hub,
		log:         log,
	}
}

func (r *RedisRelay) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Name, err)
	}
	if err := r.redisClient.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", event.Name, err)
	}
	return nil
}

// Run subscribes to the channel and forwards messages until ctx ends
func (r *RedisRelay) Run(ctx context.Context) error {
	r.pubsub = r.redisClient.Subscribe(ctx, r.channel)
	if _, err := r.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	r.log.Infof("Relaying events from redis channel %s", r.channel)

	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Warnf("Ignoring malformed event on %s: %+v", r.channel, err)
				continue
			}
			r.hub.Broadcast(event)
		}
	}
}

func (r *RedisRelay) Close() error {
	if r.pubsub == nil {
		return nil
	}
	return r.pubsub.Close()
}
