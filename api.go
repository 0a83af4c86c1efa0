// Package engine implements the deterministic workout-script runtime: a
// stack of stateful frames (blocks), each composed at compile time from an
// ordered list of behaviors, driven by a single-threaded event loop.
package engine

import (
	"context"
	"time"
)

// Driver owns the clock, event bus, output sink, compiler, script store and
// the stack of blocks.
type Driver interface {
	// Compile runs a single statement through the registered strategy
	// chain without pushing the result, letting a caller compile the
	// script's root statement before starting the run.
	Compile(statementID int) (*RuntimeBlock, error)
	// Push appends a block and runs its mount phase.
	Push(block *RuntimeBlock) error
	// Handle dispatches an event to subscribed handlers across the stack,
	// honoring each subscription's scope.
	Handle(event Event) error
	// Advance runs the next phase on the top frame and auto-pops it if it
	// completed as a result.
	Advance() error
	// Pop unmounts and disposes the top frame, removing it from the stack.
	Pop() error
	// Snapshot returns an ordered, read-only view of the stack (bottom to top).
	Snapshot() []BlockView
	// Sink returns the output sink accumulating records for this run.
	Sink() *OutputSink
	// RunID identifies this driver instance for history/telemetry correlation.
	RunID() string
	// Builder returns a builder that can mutate driver configuration.
	Builder() DriverBuilder
}

// DriverBuilder configures a Driver prior to construction.
type DriverBuilder interface {
	WithClock(clock Clock) DriverBuilder
	WithLogger(logger Logger) DriverBuilder
	WithScriptStore(store ScriptStore) DriverBuilder
	WithCompiler(compiler *Compiler) DriverBuilder
	WithMaxDepth(depth int) DriverBuilder
	Build() (Driver, error)
}

// Clock supplies the injected notion of "now" the engine reads. No behavior
// may read wall-clock time directly.
type Clock interface {
	Now() time.Time
}

// EventSource is the host abstraction that feeds tick and user events into
// a Driver. The engine does not poll or schedule; it only reacts.
type EventSource interface {
	// Next blocks until an event is available or ctx is done.
	Next(ctx context.Context) (Event, error)
}

// ScriptStore resolves statement ids to statements and supplies the root
// sequence consumed by the compiler.
type ScriptStore interface {
	Statement(id int) (CodeStatement, bool)
	Root() []int
}

// BlockView is the read-only projection of a RuntimeBlock exposed to the UI
// snapshot API and to behaviors inspecting their own block.
type BlockView interface {
	Key() BlockKey
	BlockType() string
	Label() string
	SourceIDs() []int
	IsComplete() bool
	CompletionReason() string
	GetMemoryByTag(tag MemoryTag) ([]Fragment, bool)
	Locations() []*MemoryLocation
}

// Behavior is a composable unit contributing mount/next/unmount/dispose
// logic and event subscriptions to a block. Behaviors hold no reference to
// ancestor frames; cross-frame coordination is via memory visible through
// ctx.Block().GetMemoryByTag and via events.
type Behavior interface {
	Name() string
}

// MountBehavior runs once when a block is pushed onto the stack.
type MountBehavior interface {
	OnMount(ctx BehaviorContext) []Action
}

// NextBehavior runs on every "next" advance of its owning frame.
type NextBehavior interface {
	OnNext(ctx BehaviorContext) []Action
}

// UnmountBehavior runs once when a block is about to be popped.
type UnmountBehavior interface {
	OnUnmount(ctx BehaviorContext) []Action
}

// DisposeBehavior runs after unmount, immediately before the frame is
// removed from the stack.
type DisposeBehavior interface {
	OnDispose(ctx BehaviorContext)
}

// SubscribingBehavior registers event handlers during mount.
type SubscribingBehavior interface {
	Subscriptions(ctx BehaviorContext) []Subscription
}

// Subscription pairs an event name and scope with a handler invoked when a
// matching event reaches the owning frame.
type Subscription struct {
	Event   string
	Scope   EventScope
	Handler func(ctx BehaviorContext, event Event) []Action
}

// BehaviorContext is the capability surface handed to a behavior on every
// phase invocation.
type BehaviorContext interface {
	Block() BlockView
	Clock() Clock
	StackLevel() int
	GetMemory(tag MemoryTag) (Fragment, bool)
	SetMemory(tag MemoryTag, fragment Fragment)
	PushMemory(tag MemoryTag, fragments []Fragment) *MemoryLocation
	UpdateMemory(tag MemoryTag, fragments []Fragment) error
	EmitEvent(event Event)
	EmitOutput(kind OutputKind, fragments []Fragment, metadata map[string]any)
	MarkComplete(reason string)
	Subscribe(event string, scope EventScope, handler func(ctx BehaviorContext, event Event) []Action)
	Logger() Logger
	// NewChildBuilder starts a BlockBuilder sharing the driver's key
	// registry, for behaviors that assemble a block at runtime instead of
	// compiling one from a statement id (e.g. a Rest block sized to a
	// remaining countdown).
	NewChildBuilder(blockType string) *BlockBuilder
}

// Action is a deferred stack mutation returned by a behavior phase and
// executed by the driver in FIFO order after the behavior chain for that
// phase has run in full.
type Action interface {
	Execute(d *driverImpl) error
}

// Logger captures structured log output from the driver, compiler and
// behaviors.
type Logger interface {
	With(key string, value any) Logger
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}
