package model

import "time"

// TimerChangedEvent announces a successful write so other instances can
// invalidate their storefront caches. It carries no field values: the
// change stream is not an edit history.
type TimerChangedEvent struct {
	Op          string    `json:"op"`
	TimerID     string    `json:"timer_id"`
	StoreDomain string    `json:"store_domain"`
	ProductID   string    `json:"product_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

const (
	TimerOpCreate = "create"
	TimerOpUpdate = "update"
	TimerOpDelete = "delete"
)

const (
	TimerStreamName     = "TIMERS"
	TimerStreamSubject  = "timers.changed"
	TimerConsumerName   = "timer-cache-invalidator"
	TimerStreamMaxBytes = 1024 * 1024 * 32 // 32MB
)
