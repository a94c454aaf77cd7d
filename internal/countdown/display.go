package countdown

import (
	"context"
	"time"

	"github.com/merchkit/countdown/internal/app/model"
)

// Snapshot is one rendered frame of the countdown.
type Snapshot struct {
	Clock   string
	Urgent  bool
	Message string
	Styles  Styles
	Done    bool
}

// Renderer consumes countdown frames. Empty is drawn when there is nothing
// to show, which is also the silent-degradation state for fetch failures.
type Renderer interface {
	Render(s Snapshot)
	Empty()
}

// Source supplies the soonest-ending active timer for a product, or nil when
// there is none.
type Source interface {
	ActiveTimer(ctx context.Context, storeDomain, productID string) (*model.Timer, error)
}

// Display drives a Renderer for one (store, product) pair: a single fetch at
// start, then a local clock tick once per interval. The tick never waits on
// the fetch, and a cancelled context discards whatever the fetch returns.
type Display struct {
	src       Source
	renderer  Renderer
	overrides map[string]any

	// interval and now exist so tests can run the loop deterministically.
	interval time.Duration
	now      func() time.Time
}

// NewDisplay builds a display over the given source and renderer. overrides
// is the local display configuration that outranks the timer's own styles.
func NewDisplay(src Source, renderer Renderer, overrides map[string]any) *Display {
	return &Display{
		src:       src,
		renderer:  renderer,
		overrides: overrides,
		interval:  time.Second,
		now:       time.Now,
	}
}

type fetchResult struct {
	timer *model.Timer
	err   error
}

// Run fetches the timer once and ticks the countdown until it reaches zero
// or ctx is cancelled. A failed or empty fetch renders the empty state and
// returns nil: the display never surfaces errors to the shopper.
func (d *Display) Run(ctx context.Context, storeDomain, productID string) error {
	results := make(chan fetchResult, 1)
	go func() {
		timer, err := d.src.ActiveTimer(ctx, storeDomain, productID)
		results <- fetchResult{timer: timer, err: err}
	}()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var timer *model.Timer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-results:
			if res.err != nil || res.timer == nil {
				d.renderer.Empty()
				return nil
			}
			timer = res.timer
			if done := d.tick(timer); done {
				return nil
			}
		case <-ticker.C:
			if timer == nil {
				continue
			}
			if done := d.tick(timer); done {
				return nil
			}
		}
	}
}

// tick renders one frame and reports whether the countdown has finished.
// Urgency is recomputed from scratch every frame.
func (d *Display) tick(timer *model.Timer) bool {
	remaining := Remaining(timer.EndTime, d.now())
	s := Snapshot{
		Clock:   FormatClock(remaining),
		Urgent:  Urgent(timer.UrgencyMinutes, remaining),
		Message: timer.Message,
		Styles:  ResolveStyles(d.overrides, timer.Styles),
		Done:    remaining == 0,
	}
	d.renderer.Render(s)
	return s.Done
}
