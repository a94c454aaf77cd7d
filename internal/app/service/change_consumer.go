package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/merchkit/countdown/internal/app/model"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ChangeConsumer consumes timer change events from NATS JetStream and keeps
// this instance's read-side state (active cache, product filter) in step with
// writes made anywhere in the fleet. Events carry no timer fields, so the
// consumer only ever invalidates; the next storefront read repopulates.
type ChangeConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	cache  *ActiveCache
	filter *ProductFilter
}

// NewChangeConsumer creates a new timer change consumer.
func NewChangeConsumer(js nats.JetStreamContext, logger *zap.Logger, cache *ActiveCache, filter *ProductFilter) *ChangeConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeConsumer{js: js, logger: logger, cache: cache, filter: filter}
}

// Start ensures the stream and durable consumer exist, then begins consuming.
func (c *ChangeConsumer) Start() error {
	_, err := c.js.StreamInfo(model.TimerStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.TimerStreamName,
			Subjects: []string{model.TimerStreamSubject},
			MaxBytes: model.TimerStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.TimerStreamName, model.TimerConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.TimerStreamName, &nats.ConsumerConfig{
			Durable:   model.TimerConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.TimerStreamSubject, model.TimerConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *ChangeConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch timer change events", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.TimerChangedEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal timer change event", zap.Error(err))
				msg.Nak()
				continue
			}

			c.apply(ctx, event)

			c.logger.Debug("timer change applied",
				zap.String("op", event.Op),
				zap.String("timer_id", event.TimerID),
				zap.String("store_domain", event.StoreDomain),
				zap.String("product_id", event.ProductID),
			)

			msg.Ack()
		}
	}
}

func (c *ChangeConsumer) apply(ctx context.Context, event model.TimerChangedEvent) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, event.StoreDomain, event.ProductID)
	}
	if c.filter != nil && event.Op != model.TimerOpDelete {
		c.filter.Add(event.StoreDomain, event.ProductID)
	}
}
