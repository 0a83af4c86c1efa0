package scriptfile_test

import (
	"testing"
	"time"

	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/scriptfile"
	"github.com/wod-wiki/engine/strategy"
)

func TestLoadYAMLRejectsUnknownChildReference(t *testing.T) {
	data := []byte(`
root: [1]
statements:
  - id: 1
    children: [2]
`)
	if _, err := scriptfile.LoadYAML(data); err == nil {
		t.Fatalf("expected an error for a child id with no matching statement")
	}
}

func TestLoadYAMLDistinguishesAuthoredZeroFromAbsent(t *testing.T) {
	data := []byte(`
root: [1]
statements:
  - id: 1
    duration_ms: 0
    exercise: "Plank hold"
`)
	store, err := scriptfile.LoadYAML(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	stmt, ok := store.Statement(1)
	if !ok {
		t.Fatalf("expected statement 1 to resolve")
	}
	var sawDuration bool
	for _, f := range stmt.Fragments {
		if f.Type == engine.FragmentDuration {
			sawDuration = true
			if f.Value.(int64) != 0 {
				t.Fatalf("expected the authored zero duration to round-trip, got %v", f.Value)
			}
		}
	}
	if !sawDuration {
		t.Fatalf("expected an authored duration_ms: 0 to still compile a duration fragment")
	}
}

// TestLoadGraceRunsWaitingToStartThenExercise loads the Grace fixture —
// a lobby block holding for the athlete's first "next" before dispatching a
// single up-timer exercise — and drives it end to end through the compiled
// driver, the same shape a CLI harness runs interactively.
func TestLoadGraceRunsWaitingToStartThenExercise(t *testing.T) {
	store, err := scriptfile.Load("testdata/grace.yaml")
	if err != nil {
		t.Fatalf("load grace.yaml: %v", err)
	}

	clock := engine.NewFixedClock(time.Unix(0, 0))
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
	if root.BlockType() != "waiting" {
		t.Fatalf("expected the Grace document to compile to a waiting block, got %q", root.BlockType())
	}
	if err := driver.Push(root); err != nil {
		t.Fatalf("push root: %v", err)
	}
	if got := len(driver.Snapshot()); got != 1 {
		t.Fatalf("expected waiting to hold with no child dispatched on mount, got %d frames", got)
	}

	// First "next": the athlete starts the clock, dispatching the exercise.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (dispatch exercise): %v", err)
	}
	if got := len(driver.Snapshot()); got != 2 {
		t.Fatalf("expected waiting + exercise on the stack, got %d frames", got)
	}

	clock.Advance(30 * time.Second)

	// Second "next": the athlete ends the up-timer exercise.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (finish exercise): %v", err)
	}
	// Third "next": waiting's own dispatch list is exhausted, so it completes.
	if err := driver.Advance(); err != nil {
		t.Fatalf("advance (finish waiting): %v", err)
	}
	if got := len(driver.Snapshot()); got != 0 {
		t.Fatalf("expected the stack to be fully unwound, got %d frames left", got)
	}
}
