package strategy

import (
	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/behavior"
)

// AmrapStrategy compiles an "as many rounds/reps as possible" block: a
// countdown that completes the whole block on expiry, an unbounded round
// counter, and a looping child dispatcher that injects rest in whatever
// time remains once a round's children finish early.
type AmrapStrategy struct{}

func (AmrapStrategy) Name() string   { return "Amrap" }
func (AmrapStrategy) Priority() int  { return PriorityLogic }
func (AmrapStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return stmt.HasHint(HintAmrap)
}

func (AmrapStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	duration, _ := durationMs(stmt)
	builder.WithType("amrap").WithTag("amrap").WithLabel(labelOf(stmt))
	behavior.AsTimer(builder, behavior.TimerConfig{
		Direction:     engine.DirectionDown,
		DurationMs:    duration,
		HasDuration:   true,
		Label:         labelOf(stmt),
		Role:          engine.RolePrimary,
		AddCompletion: true,
	})
	behavior.AsContainer(builder, behavior.ChildSelectionConfig{
		ChildGroups: stmt.ChildIDs,
		Loop:        behavior.LoopSpec{Enabled: true, Condition: behavior.LoopTimerActive},
		InjectRest:  true,
		RestDuration: func(ctx engine.BehaviorContext) int64 {
			f, ok := ctx.GetMemory(engine.TagTimer)
			if !ok {
				return 0
			}
			timer, ok := f.Value.(engine.TimerState)
			if !ok || !timer.HasDuration {
				return 0
			}
			remaining := timer.DurationMs - timer.Elapsed(ctx.Clock().Now()).Milliseconds()
			if remaining < 0 {
				return 0
			}
			return remaining
		},
	})
	// Composed after ChildSelection so ReEntry's status read within the same
	// onNext call sees this pass's freshly written AllCompleted flag.
	behavior.AsRepeater(builder, behavior.RepeaterConfig{StartRound: 1}, false)
	builder.Use(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: engine.DisplayCountdown, Label: labelOf(stmt)}})
	builder.Use(behavior.RoundDisplay{}, &behavior.RoundOutput{})
	builder.Use(behavior.TimerOutput{Target: engine.TagTracked}, behavior.SegmentOutput{EmitHeader: true})
	return nil
}

// IntervalStrategy compiles an EMOM-style repeating interval: one countdown
// of the authored duration, started on mount and not restarted between
// rounds (its expiry completes the whole block), a bounded round counter,
// and a looping child dispatcher keyed on rounds remaining rather than
// timer expiry.
type IntervalStrategy struct{}

func (IntervalStrategy) Name() string  { return "Interval" }
func (IntervalStrategy) Priority() int { return PriorityLogic }
func (IntervalStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return stmt.HasHint(HintInterval)
}

func (IntervalStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	duration, _ := durationMs(stmt)
	total, hasTotal := roundsTotal(stmt)
	builder.WithType("interval").WithTag("emom").WithLabel(labelOf(stmt))
	behavior.AsTimer(builder, behavior.TimerConfig{
		Direction:     engine.DirectionDown,
		DurationMs:    duration,
		HasDuration:   true,
		Label:         labelOf(stmt),
		Role:          engine.RolePrimary,
		AddCompletion: true,
	})
	behavior.AsContainer(builder, behavior.ChildSelectionConfig{
		ChildGroups: stmt.ChildIDs,
		Loop:        behavior.LoopSpec{Enabled: true, Condition: behavior.LoopRoundsRemaining},
	})
	// Composed after ChildSelection so ReEntry/RoundsEnd see this pass's
	// freshly written AllCompleted flag within the same onNext call.
	behavior.AsRepeater(builder, behavior.RepeaterConfig{StartRound: 1, TotalRounds: total, HasTotal: hasTotal}, true)
	builder.Use(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: engine.DisplayCountdown, Label: labelOf(stmt)}})
	builder.Use(behavior.RoundDisplay{}, &behavior.RoundOutput{})
	builder.Use(behavior.TimerOutput{Target: engine.TagTracked}, behavior.SegmentOutput{EmitHeader: true})
	return nil
}

// GenericTimerStrategy compiles a plain, non-repeating timer block (an
// explicit countdown or stopwatch statement with no children), the
// "GenericTimer" component recipe.
type GenericTimerStrategy struct{}

func (GenericTimerStrategy) Name() string  { return "GenericTimer" }
func (GenericTimerStrategy) Priority() int { return PriorityComponents }
func (GenericTimerStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return stmt.HasHint(HintTimerUp) || stmt.HasHint(HintTimerDown)
}

func (GenericTimerStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	direction := engine.DirectionUp
	mode := engine.DisplayClock
	addCompletion := false
	if stmt.HasHint(HintTimerDown) {
		direction = engine.DirectionDown
		mode = engine.DisplayCountdown
		addCompletion = true
	}
	duration, hasDuration := durationMs(stmt)
	builder.WithType("timer").WithLabel(labelOf(stmt))
	behavior.AsTimer(builder, behavior.TimerConfig{
		Direction:     direction,
		DurationMs:    duration,
		HasDuration:   hasDuration,
		Label:         labelOf(stmt),
		Role:          engine.RolePrimary,
		AddCompletion: addCompletion,
	})
	if len(stmt.ChildIDs) > 0 {
		builder.UseIfMissing(&behavior.ChildSelection{Config: behavior.ChildSelectionConfig{ChildGroups: stmt.ChildIDs}})
	} else {
		builder.Use(behavior.LeafExit{})
	}
	builder.Use(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: mode, Label: labelOf(stmt)}})
	builder.Use(behavior.TimerOutput{Target: engine.TagTracked}, behavior.SegmentOutput{EmitHeader: true})
	return nil
}

// RestStrategy compiles an explicit rest statement authored in the script
// (as opposed to one ChildSelection injects dynamically): a countdown that
// completes the block on expiry.
type RestStrategy struct{}

func (RestStrategy) Name() string  { return "RestBlock" }
func (RestStrategy) Priority() int { return PriorityComponents }
func (RestStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return stmt.HasHint(HintRest)
}

func (RestStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	duration, _ := durationMs(stmt)
	label := labelOf(stmt)
	if label == "" {
		label = "Rest"
	}
	builder.WithType("rest").WithTag("rest").WithLabel(label)
	behavior.AsTimer(builder, behavior.TimerConfig{
		Direction:     engine.DirectionDown,
		DurationMs:    duration,
		HasDuration:   true,
		Label:         label,
		Role:          engine.RoleSecondary,
		AddCompletion: true,
	})
	builder.Use(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: engine.DisplayCountdown, Label: label}})
	builder.Use(behavior.TimerOutput{Target: engine.TagTracked}, behavior.SegmentOutput{EmitHeader: true})
	return nil
}
