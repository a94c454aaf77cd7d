package service

import (
	"encoding/json"
	"time"

	"github.com/merchkit/countdown/internal/app/model"
	"github.com/nats-io/nats.go"
)

// ChangePublisher publishes timer change events to NATS JetStream.
type ChangePublisher struct {
	js nats.JetStreamContext
}

// NewChangePublisher creates a new timer change publisher.
func NewChangePublisher(js nats.JetStreamContext) *ChangePublisher {
	return &ChangePublisher{js: js}
}

// Publish announces a successful write on the timer change stream.
func (p *ChangePublisher) Publish(op string, timer *model.Timer) error {
	event := model.TimerChangedEvent{
		Op:          op,
		TimerID:     timer.ID,
		StoreDomain: timer.StoreDomain,
		ProductID:   timer.ProductID,
		OccurredAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.TimerStreamSubject, data)
	return err
}
