// Package behavior implements the standard vocabulary of block behaviors:
// time, iteration, child dispatch, display, and controls. Each behavior is
// a small, stateful struct bound to exactly one compiled block; none holds
// a reference to any other frame on the stack.
package behavior

import (
	"time"

	"github.com/wod-wiki/engine"
)

// TimerConfig configures the timer aspect of a block.
type TimerConfig struct {
	Direction     engine.TimerDirection
	DurationMs    int64
	HasDuration   bool
	Label         string
	Role          engine.TimerRole
	AddCompletion bool
}

// TimerInit writes the block's Timer fragment on mount with one open span.
type TimerInit struct {
	Config TimerConfig
}

func (TimerInit) Name() string { return "TimerInit" }

func (t TimerInit) OnMount(ctx engine.BehaviorContext) []engine.Action {
	state := engine.TimerState{
		Spans:       []engine.TimeSpan{{Started: ctx.Clock().Now()}},
		DurationMs:  t.Config.DurationMs,
		HasDuration: t.Config.HasDuration,
		Direction:   t.Config.Direction,
		Label:       t.Config.Label,
		Role:        t.Config.Role,
	}
	fragment := engine.NewFragment(engine.FragmentTimer, state, t.Config.Label, engine.OriginRuntime)
	ctx.PushMemory(engine.TagTimer, []engine.Fragment{fragment})
	return nil
}

var _ engine.MountBehavior = TimerInit{}

// TimerTick keeps a timer's elapsed value live by subscribing to tick; the
// elapsed value itself is derived on read, so the subscription does no
// memory write. On unmount it closes the trailing open span.
type TimerTick struct{}

func (TimerTick) Name() string { return "TimerTick" }

func (TimerTick) Subscriptions(ctx engine.BehaviorContext) []engine.Subscription {
	return []engine.Subscription{{
		Event: engine.EventTick,
		Scope: engine.ScopeBubble,
		Handler: func(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
			return nil
		},
	}}
}

func (TimerTick) OnUnmount(ctx engine.BehaviorContext) []engine.Action {
	closeOpenSpan(ctx, ctx.Clock().Now())
	return nil
}

var (
	_ engine.SubscribingBehavior = TimerTick{}
	_ engine.UnmountBehavior     = TimerTick{}
)

// TimerPause closes the open span on timer:pause and opens a fresh one on
// timer:resume, idempotently.
type TimerPause struct{}

func (TimerPause) Name() string { return "TimerPause" }

func (TimerPause) Subscriptions(ctx engine.BehaviorContext) []engine.Subscription {
	return []engine.Subscription{
		{
			Event: engine.EventTimerPause,
			Scope: engine.ScopeBubble,
			Handler: func(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
				closeOpenSpan(ctx, ctx.Clock().Now())
				return nil
			},
		},
		{
			Event: engine.EventTimerResume,
			Scope: engine.ScopeBubble,
			Handler: func(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
				state, ok := readTimer(ctx)
				if !ok || state.LastOpenIndex() >= 0 {
					return nil
				}
				state.Spans = append(state.Spans, engine.TimeSpan{Started: ctx.Clock().Now()})
				writeTimer(ctx, state)
				return nil
			},
		},
	}
}

var _ engine.SubscribingBehavior = TimerPause{}

// TimerCompletion marks the block complete when a down timer's duration has
// elapsed, including immediately on mount for a non-positive duration.
type TimerCompletion struct{}

func (TimerCompletion) Name() string { return "TimerCompletion" }

func (TimerCompletion) OnMount(ctx engine.BehaviorContext) []engine.Action {
	state, ok := readTimer(ctx)
	if !ok || state.Direction != engine.DirectionDown {
		return nil
	}
	if state.HasDuration && state.DurationMs <= 0 {
		ctx.MarkComplete(engine.ReasonTimerExpired)
	}
	return nil
}

func (TimerCompletion) Subscriptions(ctx engine.BehaviorContext) []engine.Subscription {
	return []engine.Subscription{{
		// Bubble-scoped so a timer with an active child (AMRAP, EMOM, any
		// timed container) keeps checking expiry on every tick even while
		// that child, not this frame, is the top of the stack.
		Event: engine.EventTick,
		Scope: engine.ScopeBubble,
		Handler: func(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
			state, ok := readTimer(ctx)
			if !ok || !state.HasDuration || state.Direction != engine.DirectionDown {
				return nil
			}
			now := event.Timestamp
			if now.IsZero() {
				now = ctx.Clock().Now()
			}
			if state.Elapsed(now).Milliseconds() >= state.DurationMs {
				ctx.MarkComplete(engine.ReasonTimerExpired)
			}
			return nil
		},
	}}
}

var (
	_ engine.MountBehavior       = TimerCompletion{}
	_ engine.SubscribingBehavior = TimerCompletion{}
)

func readTimer(ctx engine.BehaviorContext) (engine.TimerState, bool) {
	f, ok := ctx.GetMemory(engine.TagTimer)
	if !ok {
		return engine.TimerState{}, false
	}
	state, ok := f.Value.(engine.TimerState)
	return state, ok
}

func writeTimer(ctx engine.BehaviorContext, state engine.TimerState) {
	fragment := engine.NewFragment(engine.FragmentTimer, state, state.Label, engine.OriginRuntime)
	ctx.SetMemory(engine.TagTimer, fragment)
}

// closeOpenSpan closes the trailing open span (if any) at now; a no-op if
// no span is open, matching the idempotent pause/resume contract.
func closeOpenSpan(ctx engine.BehaviorContext, now time.Time) {
	state, ok := readTimer(ctx)
	if !ok {
		return
	}
	idx := state.LastOpenIndex()
	if idx < 0 {
		return
	}
	state.Spans[idx].Ended = now
	writeTimer(ctx, state)
}
