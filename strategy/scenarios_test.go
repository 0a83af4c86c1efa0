package strategy_test

import (
	"testing"
	"time"

	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/strategy"
)

// TestWaitingToStartThenExerciseCompletesWithElapsed drives the
// WaitingToStart -> Exercise shape a "wait for it, then an up-timer
// exercise" script compiles to: a lobby block that holds on mount and
// dispatches its single child only once the athlete sends the first
// "next", then an up-timer leaf that records wall-clock elapsed time until
// a second "next" ends it.
func TestWaitingToStartThenExerciseCompletesWithElapsed(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	statements := map[int]engine.CodeStatement{
		1: {
			ID:       1,
			Hints:    []string{strategy.HintRoot},
			ChildIDs: []int{2},
		},
		2: {
			ID:       2,
			Hints:    []string{strategy.HintWaitingToStart},
			ChildIDs: []int{3},
		},
		3: {
			ID:           3,
			ExerciseName: "30 Clean & Jerks",
			Hints:        []string{strategy.HintTimerUp},
		},
	}
	store := engine.NewScriptStore(statements, []int{1})

	driver, err := engine.NewDriver(store, strategy.NewStandardCompiler())
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	driver, err = driver.Builder().WithClock(clock).Build()
	if err != nil {
		t.Fatalf("build driver: %v", err)
	}

	root, err := driver.Compile(1)
	if err != nil {
		t.Fatalf("compile root: %v", err)
	}
	if err := driver.Push(root); err != nil {
		t.Fatalf("push root: %v", err)
	}
	if got := len(driver.Snapshot()); got != 2 {
		t.Fatalf("expected root + waiting on the stack after push, got %d frames", got)
	}

	// First "next": waiting dispatches the exercise child.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (dispatch exercise): %v", err)
	}
	if got := len(driver.Snapshot()); got != 3 {
		t.Fatalf("expected root + waiting + exercise on the stack, got %d frames", got)
	}

	clock.Advance(45 * time.Second)

	// Second "next": the exercise leaf ends via LeafExit.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (finish exercise): %v", err)
	}

	// The waiting block's own dispatch list is now exhausted, so it
	// completes on the following advance, and then root's does too.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (finish waiting): %v", err)
	}
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (finish root): %v", err)
	}
	if got := len(driver.Snapshot()); got != 0 {
		t.Fatalf("expected the stack to be fully unwound, got %d frames left", got)
	}

	var exerciseElapsed int64 = -1
	for _, record := range driver.Sink().Records() {
		if record.Kind != engine.OutputCompletion {
			continue
		}
		if record.Metadata["label"] != "30 Clean & Jerks" {
			continue
		}
		for _, f := range record.Fragments {
			if f.Type == engine.FragmentElapsed {
				ms, ok := f.Value.(int64)
				if !ok {
					t.Fatalf("elapsed fragment value was not int64: %T", f.Value)
				}
				exerciseElapsed = ms
			}
		}
	}
	if exerciseElapsed != 45_000 {
		t.Fatalf("expected the exercise completion record to carry elapsed=45000ms, got %d", exerciseElapsed)
	}
}

// TestAmrapInjectsRestSizedToRemainingTime exercises ChildSelection's
// rest-injection tie-break: once a round's children finish well inside an
// AMRAP's countdown, a Rest block sized to whatever time is left gets
// pushed before the next round's children dispatch again.
func TestAmrapInjectsRestSizedToRemainingTime(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	statements := map[int]engine.CodeStatement{
		1: {
			ID:    1,
			Hints: []string{strategy.HintAmrap},
			Fragments: []engine.Fragment{
				engine.NewFragment(engine.FragmentDuration, int64(60_000), "1:00", engine.OriginParser),
			},
			ChildIDs: []int{2},
		},
		2: {ID: 2, ExerciseName: "Burpees"},
	}
	store := engine.NewScriptStore(statements, []int{1})

	driver, err := engine.NewDriver(store, strategy.NewStandardCompiler())
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	driver, err = driver.Builder().WithClock(clock).Build()
	if err != nil {
		t.Fatalf("build driver: %v", err)
	}

	root, err := driver.Compile(1)
	if err != nil {
		t.Fatalf("compile root: %v", err)
	}
	if err := driver.Push(root); err != nil {
		t.Fatalf("push root: %v", err)
	}

	// 12s of work: the child dispatches on mount; advance past it 12s later.
	clock.Advance(12 * time.Second)
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (finish first child, auto-pop): %v", err)
	}
	if got := len(driver.Snapshot()); got != 1 {
		t.Fatalf("expected only the amrap frame left after the child pops, got %d frames", got)
	}

	// A second advance runs the amrap's own ChildSelection.OnNext, which
	// discovers the dispatched group exhausted and, since a timer-active
	// loop still has time left, injects a Rest sized to the remainder.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (inject rest): %v", err)
	}
	snapshot := driver.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected amrap + injected rest on the stack, got %d frames", len(snapshot))
	}
	amrap := snapshot[0]
	rest := snapshot[len(snapshot)-1]
	if rest.BlockType() != "rest" {
		t.Fatalf("expected the injected frame to be a rest block, got %q", rest.BlockType())
	}

	// The rest is sized to exactly the remaining 48s on the amrap's own
	// countdown, so when it expires by timer the amrap's own duration has
	// simultaneously run out: both complete on the same tick, and the
	// driver unwinds the rest first (it is the current top), then the
	// already-complete amrap on the next advance, rather than looping back
	// into a fresh round.
	clock.Advance(48 * time.Second)
	if err := driver.Handle(engine.NewTickEvent(clock.Now())); err != nil {
		t.Fatalf("tick past rest expiry: %v", err)
	}
	if got := len(driver.Snapshot()); got != 1 {
		t.Fatalf("expected the rest frame to have popped on expiry, got %d frames left", got)
	}
	if !amrap.IsComplete() {
		t.Fatalf("expected the amrap's own countdown to have expired on the same tick that closed out the rest")
	}
	if reason := amrap.CompletionReason(); reason != engine.ReasonTimerExpired {
		t.Fatalf("expected the amrap to complete with reason %q, got %q", engine.ReasonTimerExpired, reason)
	}

	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (unwind the already-complete amrap): %v", err)
	}
	if got := len(driver.Snapshot()); got != 0 {
		t.Fatalf("expected the stack to be fully unwound, got %d frames left", got)
	}

	var sawRestCompletion bool
	for _, record := range driver.Sink().Records() {
		if record.Kind == engine.OutputCompletion && record.Metadata["label"] == "Rest" {
			sawRestCompletion = true
		}
	}
	if !sawRestCompletion {
		t.Fatalf("expected a completion output record for the injected rest block")
	}
}

// TestRepSchemeSplitsElapsedProportionally compiles a childless 21-15-9
// statement and checks that ReportOutput's proportional split accounts for
// the whole elapsed duration across the three rep groups, weighted
// 21:15:9, matching within rounding.
func TestRepSchemeSplitsElapsedProportionally(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	statements := map[int]engine.CodeStatement{
		1: {
			ID: 1,
			Fragments: []engine.Fragment{
				engine.NewFragment(engine.FragmentRep, 21, "21", engine.OriginParser),
				engine.NewFragment(engine.FragmentRep, 15, "15", engine.OriginParser),
				engine.NewFragment(engine.FragmentRep, 9, "9", engine.OriginParser),
			},
			ExerciseName: "Thrusters/Pull-ups",
		},
	}
	store := engine.NewScriptStore(statements, []int{1})

	driver, err := engine.NewDriver(store, strategy.NewStandardCompiler())
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	driver, err = driver.Builder().WithClock(clock).Build()
	if err != nil {
		t.Fatalf("build driver: %v", err)
	}

	root, err := driver.Compile(1)
	if err != nil {
		t.Fatalf("compile root: %v", err)
	}
	if root.BlockType() != "repscheme" {
		t.Fatalf("expected a multi-rep statement to compile to a repscheme block, got %q", root.BlockType())
	}
	if err := driver.Push(root); err != nil {
		t.Fatalf("push root: %v", err)
	}

	// Advance through all three rounds, with elapsed wall-clock time moving
	// between each, for a total of 900s.
	clock.Advance(300 * time.Second)
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance round 1: %v", err)
	}
	clock.Advance(300 * time.Second)
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance round 2: %v", err)
	}
	clock.Advance(300 * time.Second)
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance round 3 (rounds-exhausted): %v", err)
	}
	if got := len(driver.Snapshot()); got != 0 {
		t.Fatalf("expected the repscheme block to have completed and popped, got %d frames left", got)
	}

	var splits []int64
	for _, record := range driver.Sink().Records() {
		if record.Kind != engine.OutputCompletion {
			continue
		}
		for _, f := range record.Fragments {
			if f.Type == engine.FragmentElapsed && f.Behavior == engine.RoleCalculated {
				ms, ok := f.Value.(int64)
				if !ok {
					t.Fatalf("split elapsed fragment value was not int64: %T", f.Value)
				}
				splits = append(splits, ms)
			}
		}
	}
	if len(splits) != 3 {
		t.Fatalf("expected 3 calculated elapsed splits (21-15-9), got %d: %v", len(splits), splits)
	}
	var sum int64
	for _, s := range splits {
		sum += s
	}
	const totalElapsed = int64(900 * time.Second / time.Millisecond)
	if diff := sum - totalElapsed; diff < -1 || diff > 1 {
		t.Fatalf("expected split elapsed values to sum to %dms within 1ms, got %dms (%v)", totalElapsed, sum, splits)
	}
}
