// Package countdown implements the storefront display side of a timer: the
// remaining-time arithmetic, the clock formatting, the urgency predicate and
// the style precedence rules, plus a polling display loop that drives a
// renderer once per second.
package countdown

import (
	"fmt"
	"time"
)

// Remaining returns the time left until end, clamped at zero.
func Remaining(end, now time.Time) time.Duration {
	d := end.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// FormatClock renders a duration as MM:SS, switching to HH:MM:SS once the
// duration reaches one hour.
func FormatClock(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	hh := total / 3600
	mm := (total % 3600) / 60
	ss := total % 60
	if hh > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
	}
	return fmt.Sprintf("%02d:%02d", mm, ss)
}

// Urgent reports whether the remaining time has entered the urgency window.
// It is a pure function of its inputs so the flag tracks edits to the
// threshold instead of latching.
func Urgent(urgencyMinutes int, remaining time.Duration) bool {
	if urgencyMinutes <= 0 {
		return false
	}
	return remaining <= time.Duration(urgencyMinutes)*time.Minute
}

// Styles is the resolved visual configuration for a countdown. The fields
// mirror the keys merchants put in a timer's style bag.
type Styles struct {
	Background     string
	TextColor      string
	Title          string
	Size           string
	Position       string
	UrgencyDisplay string
}

// DefaultStyles are the built-in fallbacks.
var DefaultStyles = Styles{
	Background:     "#ffffff",
	TextColor:      "#111111",
	Title:          "Offer ends in",
	Size:           "medium",
	Position:       "inline",
	UrgencyDisplay: "color_pulse",
}

func pick(key string, override, timerStyles map[string]any, fallback string) string {
	if s, ok := override[key].(string); ok && s != "" {
		return s
	}
	if s, ok := timerStyles[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// ResolveStyles merges a local display override, the timer's own style bag
// and the built-in defaults, in that order of precedence.
func ResolveStyles(override, timerStyles map[string]any) Styles {
	return Styles{
		Background:     pick("background_color", override, timerStyles, DefaultStyles.Background),
		TextColor:      pick("text_color", override, timerStyles, DefaultStyles.TextColor),
		Title:          pick("title", override, timerStyles, DefaultStyles.Title),
		Size:           pick("size", override, timerStyles, DefaultStyles.Size),
		Position:       pick("position", override, timerStyles, DefaultStyles.Position),
		UrgencyDisplay: pick("urgency_display", override, timerStyles, DefaultStyles.UrgencyDisplay),
	}
}
