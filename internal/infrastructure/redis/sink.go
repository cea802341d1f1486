package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"stockledger/internal/config"
	"stockledger/internal/domain/notify"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

// Sink is a notify.Sink that publishes event payloads as JSON.
// Stock events and dashboard events go to separate channels.
type Sink struct {
	client   publisher
	channels map[string]string
}

var _ notify.Sink = (*Sink)(nil)

// NewSink creates a sink on top of an existing client.
func NewSink(client *goredis.Client, cfg config.RedisConfig) *Sink {
	return &Sink{
		client: client,
		channels: map[string]string{
			notify.EventStockUpdate:     cfg.StockChannel,
			notify.EventDashboardUpdate: cfg.DashboardChannel,
		},
	}
}

func (s *Sink) Name() string { return "redis" }

// Channel returns the channel an event name is published on.
func (s *Sink) Channel(eventName string) (string, bool) {
	ch, ok := s.channels[eventName]
	return ch, ok && ch != ""
}

// Deliver implements notify.Sink.
func (s *Sink) Deliver(ctx context.Context, event notify.Event) error {
	payload, err := event.MarshalPayload()
	if err != nil {
		return err
	}
	return s.PublishRaw(ctx, event.Name, payload)
}

// PublishRaw publishes an already encoded payload. The outbox relay uses it
// to forward stored rows without decoding them.
func (s *Sink) PublishRaw(ctx context.Context, eventName string, payload []byte) error {
	channel, ok := s.Channel(eventName)
	if !ok {
		return fmt.Errorf("no redis channel for event %q", eventName)
	}
	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}
