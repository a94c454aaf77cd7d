package countdown

import (
	"testing"
	"time"
)

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{5 * time.Second, "00:05"},
		{5 * time.Minute, "05:00"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Second, "01:00:01"},
		{25*time.Hour + 4*time.Minute + 5*time.Second, "25:04:05"},
	}
	for _, tc := range cases {
		if got := FormatClock(tc.d); got != tc.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestRemaining(t *testing.T) {
	end := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)

	if got := Remaining(end, end.Add(-5*time.Minute)); got != 5*time.Minute {
		t.Fatalf("Remaining before end = %v, want 5m", got)
	}
	if got := Remaining(end, end); got != 0 {
		t.Fatalf("Remaining at end = %v, want 0", got)
	}
	if got := Remaining(end, end.Add(time.Second)); got != 0 {
		t.Fatalf("Remaining past end = %v, want 0 (clamped)", got)
	}
}

func TestUrgent(t *testing.T) {
	cases := []struct {
		name      string
		minutes   int
		remaining time.Duration
		want      bool
	}{
		{"outside window", 10, 11 * time.Minute, false},
		{"exactly at threshold", 10, 10 * time.Minute, true},
		{"inside window", 10, 5 * time.Minute, true},
		{"zero remaining", 10, 0, true},
		{"urgency disabled", 0, time.Second, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Urgent(tc.minutes, tc.remaining); got != tc.want {
				t.Fatalf("Urgent(%d, %v) = %v, want %v", tc.minutes, tc.remaining, got, tc.want)
			}
		})
	}
}

// Five minutes before a 10-minute urgency window closes: urgent, and the
// clock reads 05:00.
func TestUrgencyScenario(t *testing.T) {
	end := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 1, 0, 55, 0, 0, time.UTC)

	remaining := Remaining(end, now)
	if remaining != 5*time.Minute {
		t.Fatalf("remaining = %v, want 5m", remaining)
	}
	if !Urgent(10, remaining) {
		t.Fatal("expected urgency flag at 5m remaining with a 10m window")
	}
	if got := FormatClock(remaining); got != "05:00" {
		t.Fatalf("clock = %q, want 05:00", got)
	}
}

func TestResolveStyles(t *testing.T) {
	timerStyles := map[string]any{
		"background_color": "#000000",
		"title":            "Flash sale",
	}
	override := map[string]any{
		"title": "Hurry!",
	}

	got := ResolveStyles(override, timerStyles)
	if got.Title != "Hurry!" {
		t.Fatalf("override must win, got title %q", got.Title)
	}
	if got.Background != "#000000" {
		t.Fatalf("timer styles must beat defaults, got background %q", got.Background)
	}
	if got.TextColor != DefaultStyles.TextColor {
		t.Fatalf("defaults must fill the gaps, got text color %q", got.TextColor)
	}
}

func TestResolveStyles_IgnoresNonStringValues(t *testing.T) {
	got := ResolveStyles(nil, map[string]any{
		"background_color": 42,
		"title":            "",
	})
	if got.Background != DefaultStyles.Background {
		t.Fatalf("non-string style must fall back, got %q", got.Background)
	}
	if got.Title != DefaultStyles.Title {
		t.Fatalf("empty style must fall back, got %q", got.Title)
	}
}
