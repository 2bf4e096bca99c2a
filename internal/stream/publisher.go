// Package stream publishes match events to a redis pub/sub channel for
// external consumers. Publishing is best-effort: a broker failure is logged
// and never reaches the tick loop.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

// Publisher forwards engine events to one redis channel.
type Publisher struct {
	client  *redis.Client
	channel string
	log     *logrus.Entry
}

// NewPublisher connects a publisher to the redis instance at addr.
func NewPublisher(addr, channel string, log *logrus.Logger) (*Publisher, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if channel == "" {
		return nil, fmt.Errorf("redis channel is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &Publisher{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		log:     log.WithField("component", "stream"),
	}, nil
}

// Ping verifies the broker is reachable.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Sink adapts the publisher to the engine's event sink signature.
func (p *Publisher) Sink() engine.EventSink {
	return func(ev engine.Event) {
		buf, err := json.Marshal(ev)
		if err != nil {
			p.log.WithError(err).Error("marshal event")
			return
		}
		if err := p.client.Publish(context.Background(), p.channel, buf).Err(); err != nil {
			p.log.WithError(err).WithField("type", ev.Type).Warn("publish event")
		}
	}
}

// Close releases the redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
