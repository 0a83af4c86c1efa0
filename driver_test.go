package engine_test

import (
	"testing"
	"time"

	"github.com/wod-wiki/engine"
)

// countingLeaf completes after a configured number of OnNext calls and
// records every phase invocation it sees, a minimal stand-in for the
// behaviors in the behavior package.
type countingLeaf struct {
	completeAfter int
	calls         int
	mounted       bool
	unmounted     bool
}

func (*countingLeaf) Name() string { return "countingLeaf" }

func (c *countingLeaf) OnMount(ctx engine.BehaviorContext) []engine.Action {
	c.mounted = true
	return nil
}

func (c *countingLeaf) OnNext(ctx engine.BehaviorContext) []engine.Action {
	c.calls++
	if c.calls >= c.completeAfter {
		ctx.MarkComplete(engine.ReasonUserAdvance)
	}
	return nil
}

func (c *countingLeaf) OnUnmount(ctx engine.BehaviorContext) []engine.Action {
	c.unmounted = true
	return nil
}

var (
	_ engine.MountBehavior   = (*countingLeaf)(nil)
	_ engine.NextBehavior    = (*countingLeaf)(nil)
	_ engine.UnmountBehavior = (*countingLeaf)(nil)
)

func emptyStore() engine.ScriptStore {
	return engine.NewScriptStore(map[int]engine.CodeStatement{}, nil)
}

func newTestDriver(t *testing.T, clock engine.Clock) (engine.Driver, *engine.BlockKeyRegistry) {
	t.Helper()
	driver, err := engine.NewDriver(emptyStore(), engine.NewCompiler())
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	driver, err = driver.Builder().WithClock(clock).Build()
	if err != nil {
		t.Fatalf("build driver: %v", err)
	}
	return driver, engine.NewBlockKeyRegistry()
}

func TestDriverPushAdvancePopLifecycle(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newTestDriver(t, clock)

	leaf := &countingLeaf{completeAfter: 2}
	block, err := engine.NewBlockBuilder(registry).WithType("leaf").Use(leaf).Build()
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	if err := driver.Push(block); err != nil {
		t.Fatalf("push: %v", err)
	}
	if !leaf.mounted {
		t.Fatalf("expected OnMount to run")
	}
	if len(driver.Snapshot()) != 1 {
		t.Fatalf("expected one frame on the stack")
	}

	if err := driver.Advance(); err != nil {
		t.Fatalf("advance 1: %v", err)
	}
	if len(driver.Snapshot()) != 1 {
		t.Fatalf("frame should still be on the stack after one advance")
	}

	if err := driver.Advance(); err != nil {
		t.Fatalf("advance 2: %v", err)
	}
	if len(driver.Snapshot()) != 0 {
		t.Fatalf("frame should auto-pop once complete")
	}
	if !leaf.unmounted {
		t.Fatalf("expected OnUnmount to run on auto-pop")
	}
}

func TestDriverAdvanceRunsOnNextOnceThenPopsCompletedFrame(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newTestDriver(t, clock)

	leaf := &countingLeaf{completeAfter: 1}
	block, err := engine.NewBlockBuilder(registry).WithType("leaf").Use(leaf).Build()
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	if err := driver.Push(block); err != nil {
		t.Fatalf("push: %v", err)
	}
	// The leaf completes on its first OnNext: one Advance runs that phase
	// exactly once and then pops the completed frame.

	if err := driver.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(driver.Snapshot()) != 0 {
		t.Fatalf("expected frame to be popped")
	}
	if leaf.calls != 1 {
		t.Fatalf("expected exactly one OnNext call, got %d", leaf.calls)
	}
}

func TestDriverMaxDepthReturnsStackOverflow(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newTestDriver(t, clock)
	driver, err := driver.Builder().WithMaxDepth(1).Build()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	first, err := engine.NewBlockBuilder(registry).WithType("first").Use(&countingLeaf{completeAfter: 100}).Build()
	if err != nil {
		t.Fatalf("build first: %v", err)
	}
	if err := driver.Push(first); err != nil {
		t.Fatalf("push first: %v", err)
	}

	second, err := engine.NewBlockBuilder(registry).WithType("second").Use(&countingLeaf{completeAfter: 100}).Build()
	if err != nil {
		t.Fatalf("build second: %v", err)
	}
	if err := driver.Push(second); err == nil {
		t.Fatalf("expected push beyond max depth to fail")
	}
}

func TestNewRuntimeBlockStartsIncomplete(t *testing.T) {
	registry := engine.NewBlockKeyRegistry()
	block := engine.NewRuntimeBlock(registry.Allocate("leaf"), "leaf", nil, nil)
	if block.IsComplete() {
		t.Fatalf("fresh block should not be complete")
	}
}

// bubbleListener records every bubble-scoped event it observes, letting a
// test assert an ancestor frame receives events from a descendant.
type bubbleListener struct {
	seen []string
}

func (*bubbleListener) Name() string { return "bubbleListener" }

func (b *bubbleListener) Subscriptions(ctx engine.BehaviorContext) []engine.Subscription {
	return []engine.Subscription{{
		Event: engine.EventTick,
		Scope: engine.ScopeBubble,
		Handler: func(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
			b.seen = append(b.seen, "tick")
			return nil
		},
	}}
}

var _ engine.SubscribingBehavior = (*bubbleListener)(nil)

func TestHandleDeliversBubbleScopedEventsToAncestors(t *testing.T) {
	clock := engine.NewFixedClock(time.Unix(0, 0))
	driver, registry := newTestDriver(t, clock)

	parentListener := &bubbleListener{}
	parent, err := engine.NewBlockBuilder(registry).WithType("parent").Use(parentListener).Build()
	if err != nil {
		t.Fatalf("build parent: %v", err)
	}
	if err := driver.Push(parent); err != nil {
		t.Fatalf("push parent: %v", err)
	}

	child, err := engine.NewBlockBuilder(registry).WithType("child").Use(&countingLeaf{completeAfter: 100}).Build()
	if err != nil {
		t.Fatalf("build child: %v", err)
	}
	if err := driver.Push(child); err != nil {
		t.Fatalf("push child: %v", err)
	}

	if err := driver.Handle(engine.NewTickEvent(clock.Now())); err != nil {
		t.Fatalf("handle tick: %v", err)
	}
	if len(parentListener.seen) != 1 {
		t.Fatalf("expected the parent's bubble subscription to fire once, got %d", len(parentListener.seen))
	}
}
