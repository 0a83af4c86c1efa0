package behavior_test

import (
	"testing"
	"time"

	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/behavior"
)

// advanceableLeaf completes on its first OnNext, the minimal child a
// ChildSelection dispatch can mount and immediately finish.
type advanceableLeaf struct{}

func (advanceableLeaf) Name() string { return "advanceableLeaf" }

func (advanceableLeaf) OnNext(ctx engine.BehaviorContext) []engine.Action {
	ctx.MarkComplete(engine.ReasonUserAdvance)
	return nil
}

var _ engine.NextBehavior = advanceableLeaf{}

func readRoundState(t *testing.T, view engine.BlockView) engine.RoundState {
	t.Helper()
	fragments, ok := view.GetMemoryByTag(engine.TagRound)
	if !ok || len(fragments) == 0 {
		t.Fatalf("expected a round fragment")
	}
	state, ok := fragments[len(fragments)-1].Value.(engine.RoundState)
	if !ok {
		t.Fatalf("round fragment did not carry a RoundState")
	}
	return state
}

func TestReEntryAdvancesWhenChildrenStatusAbsent(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newDriver(t, clock)

	// Compose ReEntry without ChildSelection, so TagChildrenStatus is never
	// written: OnNext must treat an absent status as "fully executed" and
	// advance every call, as childrenFullyExecuted does for a missing
	// status.
	block, err := engine.NewBlockBuilder(registry).WithType("repeat").
		Use(behavior.ReEntry{Config: behavior.RepeaterConfig{StartRound: 1, TotalRounds: 2, HasTotal: true}}).
		Build()
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	if err := driver.Push(block); err != nil {
		t.Fatalf("push: %v", err)
	}

	state := readRoundState(t, driver.Snapshot()[0])
	if state.Current != 1 {
		t.Fatalf("expected round.current to start at 1, got %d", state.Current)
	}

	if err := driver.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	state = readRoundState(t, driver.Snapshot()[0])
	if state.Current != 2 {
		t.Fatalf("expected round.current to advance to 2 with no children status present, got %d", state.Current)
	}
}

func TestRoundsEndCompletesOnlyOnceExhausted(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newDriver(t, clock)

	block, err := engine.NewBlockBuilder(registry).WithType("repeat").
		Use(behavior.ReEntry{Config: behavior.RepeaterConfig{StartRound: 1, TotalRounds: 1, HasTotal: true}}, behavior.RoundsEnd{}).
		Build()
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	if err := driver.Push(block); err != nil {
		t.Fatalf("push: %v", err)
	}

	// A single next bumps round.current to 2, which is past total 1.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := len(driver.Snapshot()); got != 0 {
		t.Fatalf("expected a 1-round block to complete on its first advance, got %d frames", got)
	}
}

func TestRoundsEndNeverCompletesWithoutATotal(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newDriver(t, clock)

	block, err := engine.NewBlockBuilder(registry).WithType("repeat").
		Use(behavior.ReEntry{Config: behavior.RepeaterConfig{StartRound: 1}}, behavior.RoundsEnd{}).
		Build()
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	if err := driver.Push(block); err != nil {
		t.Fatalf("push: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := driver.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
	}
	if got := len(driver.Snapshot()); got != 1 {
		t.Fatalf("an unbounded round counter must never reach rounds-exhausted, got %d frames", got)
	}
}
