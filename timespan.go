package engine

import (
	"fmt"
	"time"
)

// TimeSpan is a (started, ended?) interval; open if Ended is zero.
type TimeSpan struct {
	Started time.Time
	Ended   time.Time
}

// Open reports whether the span has not yet been closed.
func (s TimeSpan) Open() bool {
	return s.Ended.IsZero()
}

// TimerDirection is "up" or "down".
type TimerDirection string

const (
	DirectionUp   TimerDirection = "up"
	DirectionDown TimerDirection = "down"
)

// TimerRole distinguishes the primary display timer from secondary/auto
// ones.
type TimerRole string

const (
	RolePrimary   TimerRole = "primary"
	RoleSecondary TimerRole = "secondary"
	RoleAuto      TimerRole = "auto"
)

// TimerState is the value carried by a Timer fragment.
type TimerState struct {
	Spans        []TimeSpan
	DurationMs   int64
	HasDuration  bool
	Direction    TimerDirection
	Label        string
	Role         TimerRole
}

// Elapsed computes Σ (span.Ended ?? now) − span.Started, pause-aware: a
// closed span contributes only its own duration, so time between spans
// (a paused interval) is excluded.
func (t TimerState) Elapsed(now time.Time) time.Duration {
	var total time.Duration
	for _, span := range t.Spans {
		end := now
		if !span.Ended.IsZero() {
			end = span.Ended
		}
		if end.Before(span.Started) {
			continue
		}
		total += end.Sub(span.Started)
	}
	return total
}

// Total computes the wall-clock bracket from the first span's start to the
// last span's end (or now, if open); it includes paused gaps.
func (t TimerState) Total(now time.Time) time.Duration {
	if len(t.Spans) == 0 {
		return 0
	}
	first := t.Spans[0].Started
	last := t.Spans[len(t.Spans)-1]
	end := now
	if !last.Ended.IsZero() {
		end = last.Ended
	}
	if end.Before(first) {
		return 0
	}
	return end.Sub(first)
}

// LastOpenIndex returns the index of the trailing open span, or -1 when no
// span is open (invariant: at most one open span, and only the last may be
// open).
func (t TimerState) LastOpenIndex() int {
	if len(t.Spans) == 0 {
		return -1
	}
	last := len(t.Spans) - 1
	if t.Spans[last].Open() {
		return last
	}
	return -1
}

// RoundState tracks iteration progress.
type RoundState struct {
	Current    int
	Total      int
	HasTotal   bool
}

// Exhausted reports whether a bounded round state has run past its total.
func (r RoundState) Exhausted() bool {
	return r.HasTotal && r.Current > r.Total
}

// DisplayMode controls how the UI should render a block's primary value.
type DisplayMode string

const (
	DisplayClock     DisplayMode = "clock"
	DisplayTimer     DisplayMode = "timer"
	DisplayCountdown DisplayMode = "countdown"
	DisplayHidden    DisplayMode = "hidden"
)

// DisplayHints is the value carried by the "display" memory tag.
type DisplayHints struct {
	Mode          DisplayMode
	Label         string
	Subtitle      string
	RoundDisplay  string
	ActionDisplay string
}

// ChildrenStatus is the value carried by the "children:status" memory tag.
type ChildrenStatus struct {
	ChildIndex    int
	TotalChildren int
	AllExecuted   bool
	AllCompleted  bool
}

// ButtonConfig describes one control button.
type ButtonConfig struct {
	ID      string
	Label   string
	Event   string
}

// ControlsState is the value carried by the "controls" memory tag.
type ControlsState struct {
	Buttons     []ButtonConfig
	DisplayMode string
}

// FormatDuration renders ms as "H:MM:SS" once the duration reaches an hour,
// otherwise "M:SS", zero-padded seconds; non-positive or absent durations
// render as "0:00".
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "0:00"
	}
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if ms >= 3600000 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// SpansImage renders the SpansFragment display string: a single closed span
// collapses to a timestamp, an open span renders its start time, and
// multiple spans render as "N spans".
func SpansImage(spans []TimeSpan) string {
	switch len(spans) {
	case 0:
		return ""
	case 1:
		s := spans[0]
		if s.Open() {
			return s.Started.Format("15:04:05")
		}
		return s.Ended.Format("15:04:05")
	default:
		return fmt.Sprintf("%d spans", len(spans))
	}
}

// SystemTimeImage renders t as an ISO-8601 (RFC 3339) timestamp; it uses
// whatever time the caller passes in.
func SystemTimeImage(t time.Time) string {
	return t.Format(time.RFC3339)
}
