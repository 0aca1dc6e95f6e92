package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"quizrush/internal/domain"
	"quizrush/internal/logger"
)

// ControlChannel carries control events over Redis Pub/Sub so every instance
// sees round changes and new results.
type ControlChannel struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

func NewControlChannel(client *redis.Client, channel string, log *logger.Logger) *ControlChannel {
	if channel == "" {
		channel = "quiz:control"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ControlChannel{client: client, channel: channel, log: log.With("component", "redis_control")}
}

func (c *ControlChannel) Publish(ctx context.Context, event domain.ControlEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, c.channel, raw).Err()
}

func (c *ControlChannel) Subscribe(ctx context.Context) (<-chan domain.ControlEvent, func(), error) {
	sub := c.client.Subscribe(ctx, c.channel)
	// ensures the subscription is live before returning
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan domain.ControlEvent, 16)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}

	go func() {
		defer close(out)
		defer sub.Close()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case m, ok := <-messages:
				if !ok || m == nil {
					return
				}
				var event domain.ControlEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					c.log.Warn("bad control payload", "error", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()
	return out, cancel, nil
}
