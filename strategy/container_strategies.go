package strategy

import (
	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/behavior"
)

// WaitingToStartStrategy compiles the script's lobby block: it dispatches no
// children on mount and waits for an explicit "next" (the athlete pressing
// start) before handing off to the first real child.
type WaitingToStartStrategy struct{}

func (WaitingToStartStrategy) Name() string  { return "WaitingToStart" }
func (WaitingToStartStrategy) Priority() int { return PriorityLogic }
func (WaitingToStartStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return stmt.HasHint(HintWaitingToStart)
}

func (WaitingToStartStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	label := labelOf(stmt)
	if label == "" {
		label = "Ready"
	}
	builder.WithType("waiting").WithTag("waiting").WithLabel(label)
	behavior.AsContainer(builder, behavior.ChildSelectionConfig{
		ChildGroups: stmt.ChildIDs,
		SkipOnMount: true,
	})
	builder.Use(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: engine.DisplayHidden, Label: label, ActionDisplay: "Start"}})
	return nil
}

// rootStrategy is the shared implementation behind RootStrategy,
// SessionRootStrategy and WorkoutRootStrategy: a non-looping container that
// times its own lifetime and records history for the whole run.
type rootStrategy struct {
	hint      string
	name      string
	blockType string
}

func (r rootStrategy) Name() string  { return r.name }
func (rootStrategy) Priority() int   { return PriorityLogic }
func (r rootStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return stmt.HasHint(r.hint)
}

func (r rootStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	label := labelOf(stmt)
	if label == "" {
		label = r.name
	}
	builder.WithType(r.blockType).WithTag(r.blockType).WithLabel(label)
	behavior.AsTimer(builder, behavior.TimerConfig{
		Direction: engine.DirectionUp,
		Label:     label,
		Role:      engine.RolePrimary,
	})
	behavior.AsContainer(builder, behavior.ChildSelectionConfig{ChildGroups: stmt.ChildIDs})
	builder.Use(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: engine.DisplayClock, Label: label}})
	builder.Use(behavior.TimerOutput{Target: engine.TagTracked}, behavior.SegmentOutput{EmitHeader: true}, behavior.HistoryRecord{})
	return nil
}

// RootStrategy compiles the implicit top-level container wrapping a
// script's whole statement tree.
var RootStrategy = rootStrategy{hint: HintRoot, name: "Root", blockType: "root"}

// SessionRootStrategy compiles a labeled session boundary within a script
// (e.g. a named block of supersets), distinct from the implicit script
// root.
var SessionRootStrategy = rootStrategy{hint: HintSessionRoot, name: "SessionRoot", blockType: "session"}

// WorkoutRootStrategy compiles the single named workout section of a
// script, the unit history persistence keys off of.
var WorkoutRootStrategy = rootStrategy{hint: HintWorkoutRoot, name: "WorkoutRoot", blockType: "workout"}

// ChildrenStrategy is the generic container fallback: any statement with
// children that no higher-priority Logic strategy claimed gets a plain,
// non-looping child dispatcher.
type ChildrenStrategy struct{}

func (ChildrenStrategy) Name() string  { return "Children" }
func (ChildrenStrategy) Priority() int { return PriorityComponents }
func (ChildrenStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return len(stmt.ChildIDs) > 0
}

func (ChildrenStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	// A Logic strategy that already composed its own dispatcher keeps its
	// type, label and dispatch configuration.
	if builder.HasBehavior("ChildSelection") {
		return nil
	}
	builder.WithType("group").WithLabel(labelOf(stmt))
	builder.UseIfMissing(&behavior.ChildSelection{Config: behavior.ChildSelectionConfig{ChildGroups: stmt.ChildIDs}})
	builder.UseIfMissing(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: engine.DisplayHidden, Label: labelOf(stmt)}})
	return nil
}
