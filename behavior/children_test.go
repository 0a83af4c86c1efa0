package behavior_test

import (
	"testing"
	"time"

	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/behavior"
)

// countingEffort is a minimal childless leaf a ChildSelection dispatch
// compiles to, completing on its first advance.
type countingEffort struct{}

func (countingEffort) Name() string { return "countingEffort" }

func (countingEffort) OnNext(ctx engine.BehaviorContext) []engine.Action {
	ctx.MarkComplete(engine.ReasonUserAdvance)
	return nil
}

var _ engine.NextBehavior = countingEffort{}

func newChildSelectionDriver(t *testing.T, clock engine.Clock, childIDs []int) (engine.Driver, *engine.BlockKeyRegistry) {
	t.Helper()
	statements := make(map[int]engine.CodeStatement, len(childIDs))
	for _, id := range childIDs {
		statements[id] = engine.CodeStatement{ID: id}
	}
	store := engine.NewScriptStore(statements, nil)
	compiler := engine.NewCompiler(leafStrategy{})
	driver, err := engine.NewDriver(store, compiler)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	driver, err = driver.Builder().WithClock(clock).Build()
	if err != nil {
		t.Fatalf("build driver: %v", err)
	}
	return driver, engine.NewBlockKeyRegistry()
}

// leafStrategy compiles every statement id to a countingEffort leaf,
// standing in for the real Effort recipe so ChildSelection's
// CompileChildBlockAction has somewhere to resolve its ids.
type leafStrategy struct{}

func (leafStrategy) Name() string  { return "leaf" }
func (leafStrategy) Priority() int { return 0 }
func (leafStrategy) Matches(engine.CodeStatement, engine.ScriptStore) bool { return true }
func (leafStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	builder.WithType("leaf").Use(countingEffort{})
	return nil
}

func TestChildSelectionNonLoopingCompletesAfterLastGroup(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newChildSelectionDriver(t, clock, []int{1, 2, 3})

	block, err := engine.NewBlockBuilder(registry).WithType("group").
		Use(&behavior.ChildSelection{Config: behavior.ChildSelectionConfig{ChildGroups: []int{1, 2, 3}}}).
		Build()
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	if err := driver.Push(block); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := len(driver.Snapshot()); got != 2 {
		t.Fatalf("expected the group plus its first child on the stack, got %d", got)
	}

	// Each of the 3 children costs 2 advances (pop it, dispatch the next),
	// except the last, whose "no more groups" discovery both writes final
	// status and completes the block in the same call: 5 advances to run
	// the 3 children plus 1 final advance for the group to complete itself.
	for i := 0; i < 5; i++ {
		if err := driver.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
	}
	if got := len(driver.Snapshot()); got != 1 {
		t.Fatalf("expected the group still on the stack before its final advance, got %d frames", got)
	}

	if err := driver.Advance(); err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if got := len(driver.Snapshot()); got != 0 {
		t.Fatalf("expected the non-looping group to self-complete once every child group has run, got %d frames left", got)
	}
}

func TestChildSelectionLoopsExactlyRoundsRemaining(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newChildSelectionDriver(t, clock, []int{1})

	block, err := engine.NewBlockBuilder(registry).WithType("group").
		Use(
			&behavior.ChildSelection{Config: behavior.ChildSelectionConfig{
				ChildGroups: []int{1},
				Loop:        behavior.LoopSpec{Enabled: true, Condition: behavior.LoopRoundsRemaining},
			}},
			behavior.ReEntry{Config: behavior.RepeaterConfig{StartRound: 1, TotalRounds: 2, HasTotal: true}},
			behavior.RoundsEnd{},
		).
		Build()
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	if err := driver.Push(block); err != nil {
		t.Fatalf("push: %v", err)
	}

	// Round 1: pop its child, then the group dispatches round 2's child.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance 1: %v", err)
	}
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance 2: %v", err)
	}
	if got := len(driver.Snapshot()); got != 2 {
		t.Fatalf("expected round 2's child still dispatched, got %d frames", got)
	}

	// Round 2: pop its child, then the group finds rounds exhausted.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance 3: %v", err)
	}
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance 4: %v", err)
	}
	if got := len(driver.Snapshot()); got != 0 {
		t.Fatalf("expected the loop to stop after exactly 2 rounds, got %d frames left", got)
	}
}
