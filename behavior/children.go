package behavior

import "github.com/wod-wiki/engine"

// LoopCondition controls whether ChildSelection restarts its dispatch once
// every child group has executed.
type LoopCondition string

const (
	LoopAlways          LoopCondition = "always"
	LoopTimerActive     LoopCondition = "timer-active"
	LoopRoundsRemaining LoopCondition = "rounds-remaining"
)

// LoopSpec configures looping for ChildSelection.
type LoopSpec struct {
	Enabled   bool
	Condition LoopCondition
}

// ChildSelectionConfig configures a container block's child dispatch.
//
// The source contract groups statement ids per dispatch
// (`childGroups: int[][]`); this implementation compiles one statement per
// dispatch step, so ChildGroups is a flat id list and each entry is handed
// to CompileChildBlockAction directly. A strategy wanting a multi-statement
// dispatch step composes that into a single container statement instead.
type ChildSelectionConfig struct {
	ChildGroups []int
	Loop        LoopSpec
	InjectRest  bool
	// RestDuration computes the rest block's countdown in ms, typically
	// from remaining time on a parent AMRAP timer. Nil disables rest sizing
	// and skips injection even if InjectRest is set.
	RestDuration func(ctx engine.BehaviorContext) int64
	SkipOnMount  bool
}

// ChildSelection owns the child-dispatch state machine.
type ChildSelection struct {
	Config       ChildSelectionConfig
	childIndex   int
	awaitingRest bool
}

func (*ChildSelection) Name() string { return "ChildSelection" }

func (c *ChildSelection) OnMount(ctx engine.BehaviorContext) []engine.Action {
	if c.Config.SkipOnMount || len(c.Config.ChildGroups) == 0 {
		return nil
	}
	actions := c.dispatch(ctx)
	c.writeStatus(ctx, false, false)
	return actions
}

func (c *ChildSelection) OnNext(ctx engine.BehaviorContext) []engine.Action {
	if c.childIndex < len(c.Config.ChildGroups) {
		actions := c.dispatch(ctx)
		c.writeStatus(ctx, false, false)
		return actions
	}

	// Every child group for this pass has dispatched and popped. Mark the
	// pass complete unconditionally so a sibling ReEntry behavior composed
	// after this one in the same phase sees allCompleted=true and bumps
	// round.current within this same onNext call.
	if c.Config.Loop.Enabled && c.shouldLoop(ctx) {
		if c.Config.InjectRest && !c.awaitingRest {
			if rest := c.buildRest(ctx); rest != nil {
				c.childIndex = 0
				c.awaitingRest = true
				c.writeStatus(ctx, true, true)
				return []engine.Action{PushBlockAction(rest)}
			}
		}
		c.awaitingRest = false
		c.childIndex = 0
		actions := c.dispatch(ctx)
		c.writeStatus(ctx, true, true)
		return actions
	}

	c.writeStatus(ctx, true, true)
	if !c.Config.Loop.Enabled {
		// A non-looping container (ChildrenStrategy, a single-pass rep
		// scheme's children) owns its own completion; a looping container
		// that stopped looping defers to whichever sibling behavior owns the
		// stopping condition (RoundsEnd, composed after this one, or
		// TimerCompletion through its tick subscription) to mark the frame
		// complete with the right reason.
		ctx.MarkComplete(engine.ReasonChildrenComplete)
	}
	return nil
}

var (
	_ engine.MountBehavior = (*ChildSelection)(nil)
	_ engine.NextBehavior  = (*ChildSelection)(nil)
)

func (c *ChildSelection) dispatch(ctx engine.BehaviorContext) []engine.Action {
	id := c.Config.ChildGroups[c.childIndex]
	c.childIndex++
	// The preview is queued ahead of the compile so it runs while this
	// container is still the top frame, before the child is pushed.
	var actions []engine.Action
	if c.childIndex < len(c.Config.ChildGroups) {
		next := c.Config.ChildGroups[c.childIndex]
		preview := engine.NewFragment(engine.FragmentAction, next, "", engine.OriginRuntime)
		actions = append(actions, engine.UpdateNextPreviewAction{Tag: engine.TagPreview, Fragments: []engine.Fragment{preview}})
	}
	return append(actions, engine.CompileChildBlockAction{StatementID: id})
}

func (c *ChildSelection) shouldLoop(ctx engine.BehaviorContext) bool {
	if !c.Config.Loop.Enabled {
		return false
	}
	if ctx.Block().IsComplete() {
		return false
	}
	if c.Config.Loop.Condition == LoopRoundsRemaining {
		// ChildSelection is composed ahead of ReEntry/RoundsEnd, so round
		// has not advanced for this pass yet; peek at whether the pass about
		// to start would still be in bounds rather than dispatching one
		// extra child before RoundsEnd gets a chance to see it exhausted.
		state, ok := readRound(ctx)
		if !ok {
			return true
		}
		return !state.HasTotal || state.Current+1 <= state.Total
	}
	// For a timer-driven loop (timer-active), TimerCompletion marks the
	// block complete independently via a tick-event subscription, which the
	// IsComplete check above already observes.
	return true
}

func (c *ChildSelection) buildRest(ctx engine.BehaviorContext) *engine.RuntimeBlock {
	if c.Config.RestDuration == nil {
		return nil
	}
	durationMs := c.Config.RestDuration(ctx)
	if durationMs <= 0 {
		return nil
	}
	builder := ctx.NewChildBuilder("rest").WithTag("rest").WithLabel("Rest")
	AsTimer(builder, TimerConfig{
		Direction:     engine.DirectionDown,
		DurationMs:    durationMs,
		HasDuration:   true,
		Label:         "Rest",
		Role:          engine.RoleSecondary,
		AddCompletion: true,
	})
	// Injected rest bypasses the strategy chain, so it needs the same
	// output/history/completion-timestamp wiring an authored RestBlock
	// picks up from RestStrategy, HistoryStrategy and the compiler's
	// finalizer.
	builder.Use(
		DisplayInit{Config: DisplayConfig{Mode: engine.DisplayCountdown, Label: "Rest"}},
		TimerOutput{Target: engine.TagTracked},
		SegmentOutput{EmitHeader: true},
		HistoryRecord{},
		&CompletionTimestampBehavior{},
	)
	rest, err := builder.Build()
	if err != nil {
		ctx.Logger().Error("rest block build failed", "err", err)
		return nil
	}
	return rest
}

func (c *ChildSelection) writeStatus(ctx engine.BehaviorContext, allExecuted, allCompleted bool) {
	status := engine.ChildrenStatus{
		ChildIndex:    c.childIndex,
		TotalChildren: len(c.Config.ChildGroups),
		AllExecuted:   allExecuted,
		AllCompleted:  allCompleted,
	}
	fragment := engine.NewFragment(engine.FragmentGroup, status, "", engine.OriginRuntime)
	ctx.SetMemory(engine.TagChildrenStatus, fragment)
}

// PushBlockAction adapts a *engine.RuntimeBlock into the engine's
// PushBlockAction, kept as a function so callers read naturally at the call
// site above.
func PushBlockAction(block *engine.RuntimeBlock) engine.Action {
	return engine.PushBlockAction{Block: block}
}

// LeafExit completes its block on the next user-driven advance, or on any of
// a configured set of custom completion events.
type LeafExit struct {
	CompletionEvents []string
}

func (LeafExit) Name() string { return "LeafExit" }

func (LeafExit) OnNext(ctx engine.BehaviorContext) []engine.Action {
	ctx.MarkComplete(engine.ReasonUserAdvance)
	return nil
}

func (l LeafExit) Subscriptions(ctx engine.BehaviorContext) []engine.Subscription {
	subs := make([]engine.Subscription, 0, len(l.CompletionEvents))
	for _, name := range l.CompletionEvents {
		eventName := name
		subs = append(subs, engine.Subscription{
			Event: eventName,
			Scope: engine.ScopeLocal,
			Handler: func(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
				ctx.MarkComplete(engine.ReasonEvent(eventName))
				return nil
			},
		})
	}
	return subs
}

var (
	_ engine.NextBehavior        = LeafExit{}
	_ engine.SubscribingBehavior = LeafExit{}
)

// CancelOnEvent marks its block cancelled when a "cancel" event reaches it,
// unwinding the stack in LIFO order via normal unmount/dispose.
type CancelOnEvent struct{}

func (CancelOnEvent) Name() string { return "CancelOnEvent" }

func (CancelOnEvent) Subscriptions(ctx engine.BehaviorContext) []engine.Subscription {
	return []engine.Subscription{{
		Event: engine.EventCancel,
		Scope: engine.ScopeGlobal,
		Handler: func(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
			ctx.MarkComplete(engine.ReasonCancelled)
			return nil
		},
	}}
}

var _ engine.SubscribingBehavior = CancelOnEvent{}
