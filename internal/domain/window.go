package domain

import (
	"fmt"
	"time"
)

// WindowKind selects the time-interval semantics used to aggregate
// session durations.
type WindowKind string

const (
	WindowRolling7d    WindowKind = "rolling_7d"
	WindowRolling24h   WindowKind = "rolling_24h"
	WindowCalendarWeek WindowKind = "calendar_week"
	WindowPerSession   WindowKind = "per_session"
)

// Valid reports whether k names a known window kind.
func (k WindowKind) Valid() bool {
	switch k {
	case WindowRolling7d, WindowRolling24h, WindowCalendarWeek, WindowPerSession:
		return true
	}
	return false
}

// Calendar reports whether the window is calendar-aligned, meaning dedup
// state re-arms on a period-key change rather than by hysteresis.
func (k WindowKind) Calendar() bool {
	return k == WindowCalendarWeek
}

// Start returns the beginning of the window ending at the reference
// instant. Meaningless for per-session windows, which are not intervals.
func (k WindowKind) Start(at time.Time) time.Time {
	switch k {
	case WindowRolling7d:
		return at.Add(-7 * 24 * time.Hour)
	case WindowRolling24h:
		return at.Add(-24 * time.Hour)
	case WindowCalendarWeek:
		return StartOfWeek(at)
	default:
		return at
	}
}

// PeriodKey identifies the discrete period containing the evaluation
// instant. Only calendar-aligned windows have one; rolling windows re-arm
// by hysteresis instead. For a session spanning a period boundary, the key
// is the period containing the evaluation instant, not the session start.
func (k WindowKind) PeriodKey(at time.Time) string {
	if k == WindowCalendarWeek {
		return StartOfWeek(at).Format("2006-01-02")
	}
	return ""
}

// StartOfWeek returns Monday 00:00 UTC of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	days := int(t.Weekday()+6) % 7 // Monday=0 .. Sunday=6
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -days)
}

// Interval is a half-open [From, To) slice of time used by window
// clipping and group overlap merging.
type Interval struct {
	From time.Time
	To   time.Time
}

// Clip restricts the interval to [from, to]; the zero Interval is
// returned when there is no overlap.
func (iv Interval) Clip(from, to time.Time) Interval {
	if iv.From.Before(from) {
		iv.From = from
	}
	if iv.To.After(to) {
		iv.To = to
	}
	if !iv.From.Before(iv.To) {
		return Interval{}
	}
	return iv
}

// Duration returns the interval's length, zero for the zero Interval.
func (iv Interval) Duration() time.Duration {
	if iv.From.IsZero() || iv.To.IsZero() {
		return 0
	}
	return iv.To.Sub(iv.From)
}

// MergeIntervals coalesces overlapping or touching intervals so each
// instant is counted once. Input order does not matter.
func MergeIntervals(ivs []Interval) []Interval {
	if len(ivs) <= 1 {
		return ivs
	}
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].From.Before(sorted[j-1].From); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	merged := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.From.After(last.To) {
			if iv.To.After(last.To) {
				last.To = iv.To
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// ParseWindowKind converts the wire representation into a WindowKind.
func ParseWindowKind(raw string) (WindowKind, error) {
	k := WindowKind(raw)
	if !k.Valid() {
		return "", fmt.Errorf("%w: window kind %q", ErrInvalidRule, raw)
	}
	return k, nil
}
