package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NewDriver constructs a Driver wired to store and compiler, with a wall
// clock, a no-op logger and a default max depth.
func NewDriver(store ScriptStore, compiler *Compiler) (Driver, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: driver requires a non-nil script store")
	}
	if compiler == nil {
		compiler = NewCompiler()
	}
	d := &driverImpl{
		scriptStore: store,
		compiler:    compiler,
		clock:       NewWallClock(),
		logger:      NewNoopLogger(),
		maxDepth:    64,
		keyRegistry: NewBlockKeyRegistry(),
		sink:        NewOutputSink(),
		runID:       uuid.NewString(),
	}
	return d, nil
}

type driverImpl struct {
	mu          sync.Mutex
	stack       []*RuntimeBlock
	scriptStore ScriptStore
	compiler    *Compiler
	clock       Clock
	logger      Logger
	maxDepth    int
	keyRegistry *BlockKeyRegistry
	sink        *OutputSink
	runID       string
	pending     []Action
}

type driverBuilderImpl struct {
	driver *driverImpl
}

func (d *driverImpl) Builder() DriverBuilder {
	return &driverBuilderImpl{driver: d}
}

func (b *driverBuilderImpl) WithClock(clock Clock) DriverBuilder {
	if clock != nil {
		b.driver.mu.Lock()
		b.driver.clock = clock
		b.driver.mu.Unlock()
	}
	return b
}

func (b *driverBuilderImpl) WithLogger(logger Logger) DriverBuilder {
	if logger != nil {
		b.driver.mu.Lock()
		b.driver.logger = logger
		b.driver.mu.Unlock()
	}
	return b
}

func (b *driverBuilderImpl) WithScriptStore(store ScriptStore) DriverBuilder {
	if store != nil {
		b.driver.mu.Lock()
		b.driver.scriptStore = store
		b.driver.mu.Unlock()
	}
	return b
}

func (b *driverBuilderImpl) WithCompiler(compiler *Compiler) DriverBuilder {
	if compiler != nil {
		b.driver.mu.Lock()
		b.driver.compiler = compiler
		b.driver.mu.Unlock()
	}
	return b
}

func (b *driverBuilderImpl) WithMaxDepth(depth int) DriverBuilder {
	if depth > 0 {
		b.driver.mu.Lock()
		b.driver.maxDepth = depth
		b.driver.mu.Unlock()
	}
	return b
}

func (b *driverBuilderImpl) Build() (Driver, error) {
	return b.driver, nil
}

func (d *driverImpl) RunID() string        { return d.runID }
func (d *driverImpl) Sink() *OutputSink    { return d.sink }

func (d *driverImpl) top() *RuntimeBlock {
	if len(d.stack) == 0 {
		return nil
	}
	return d.stack[len(d.stack)-1]
}

// compileInternal runs a single statement through the compiler chain.
func (d *driverImpl) compileInternal(statementID int) (*RuntimeBlock, error) {
	return d.compiler.Compile(d.keyRegistry, d.scriptStore, statementID)
}

// Compile exposes compileInternal under the driver's lock, for a caller
// assembling the initial root block before the first Push.
func (d *driverImpl) Compile(statementID int) (*RuntimeBlock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.compileInternal(statementID)
}

// Push appends a compiled block and runs its mount phase; a block that
// completes during mount is popped straight away. Depth is enforced before
// mount runs so a StackOverflowError never leaves a half-mounted frame
// behind; on overflow the current top frame is completed with
// error:max-depth.
func (d *driverImpl) Push(block *RuntimeBlock) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pushInternal(block)
}

func (d *driverImpl) pushInternal(block *RuntimeBlock) error {
	if block == nil {
		return fmt.Errorf("engine: push nil block")
	}
	if len(d.stack) >= d.maxDepth {
		err := newStackOverflowError(block.key)
		d.logger.Error("stack overflow", "block", block.key.String(), "depth", len(d.stack))
		if top := d.top(); top != nil {
			top.markComplete(ReasonMaxDepth)
		}
		return err
	}
	d.stack = append(d.stack, block)
	level := len(d.stack) - 1
	if err := d.runPhase(block, level, phaseMount); err != nil {
		return err
	}
	if err := d.drainActions(); err != nil {
		return err
	}
	if d.top() == block && block.IsComplete() {
		return d.popInternal()
	}
	return nil
}

// Pop unmounts and disposes the top frame.
func (d *driverImpl) Pop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.popInternal()
}

func (d *driverImpl) popInternal() error {
	if len(d.stack) == 0 {
		return fmt.Errorf("engine: pop on empty stack")
	}
	block := d.stack[len(d.stack)-1]
	level := len(d.stack) - 1
	if err := d.runPhase(block, level, phaseUnmount); err != nil {
		d.logger.Error("unmount failed", "block", block.key.String(), "err", err)
	}
	for _, behavior := range block.behaviors {
		if dispose, ok := behavior.(DisposeBehavior); ok {
			ctx := &behaviorContext{driver: d, block: block, level: level}
			dispose.OnDispose(ctx)
		}
	}
	block.memory.ReleaseAll()
	d.stack = d.stack[:len(d.stack)-1]
	d.keyRegistry.Release(block.key)
	return d.drainActions()
}

// Advance runs the next phase on the top frame. If the frame completed as a
// result, it is auto-popped.
func (d *driverImpl) Advance() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	block := d.top()
	if block == nil {
		return fmt.Errorf("engine: advance on empty stack")
	}
	if block.IsComplete() {
		// onNext on an already-complete frame is a no-op; the driver just
		// finishes unwinding it.
		return d.popInternal()
	}
	level := len(d.stack) - 1
	if err := d.runPhase(block, level, phaseNext); err != nil {
		return err
	}
	if err := d.drainActions(); err != nil {
		return err
	}
	if block.IsComplete() {
		return d.popInternal()
	}
	return nil
}

type phaseKind int

const (
	phaseMount phaseKind = iota
	phaseNext
	phaseUnmount
)

func (p phaseKind) String() string {
	switch p {
	case phaseMount:
		return "mount"
	case phaseNext:
		return "next"
	case phaseUnmount:
		return "unmount"
	default:
		return "unknown"
	}
}

// runPhase invokes every behavior's handler for the given phase, in
// composition order, collecting deferred actions without executing them
// until the whole phase has run.
func (d *driverImpl) runPhase(block *RuntimeBlock, level int, phase phaseKind) (err error) {
	ctx := &behaviorContext{driver: d, block: block, level: level}
	var current string
	defer func() {
		if r := recover(); r != nil {
			ferr := &FrameError{Kind: KindBehaviorContract, BlockKey: block.key, Phase: phase.String(), Behavior: current, Err: fmt.Errorf("panic: %v", r)}
			d.logger.Error("behavior failed", "block", block.key.String(), "phase", ferr.Phase, "behavior", current, "err", ferr.Err)
			block.markComplete(ferr.CompletionReason())
			err = ferr
		}
	}()

	for _, behavior := range block.behaviors {
		current = behavior.Name()
		var actions []Action
		switch phase {
		case phaseMount:
			if mb, ok := behavior.(MountBehavior); ok {
				actions = mb.OnMount(ctx)
			}
			if sb, ok := behavior.(SubscribingBehavior); ok {
				for _, sub := range sb.Subscriptions(ctx) {
					block.subs = append(block.subs, registeredSubscription(sub))
				}
			}
		case phaseNext:
			if nb, ok := behavior.(NextBehavior); ok {
				actions = nb.OnNext(ctx)
			}
		case phaseUnmount:
			if ub, ok := behavior.(UnmountBehavior); ok {
				actions = ub.OnUnmount(ctx)
			}
		}
		if len(actions) > 0 {
			d.pending = append(d.pending, actions...)
		}
	}
	return nil
}

// drainActions executes queued actions FIFO, only after the phase that
// produced them has fully run.
func (d *driverImpl) drainActions() error {
	for len(d.pending) > 0 {
		action := d.pending[0]
		d.pending = d.pending[1:]
		if err := action.Execute(d); err != nil {
			d.logger.Error("action failed", "err", err)
			return err
		}
	}
	return nil
}

// Handle dispatches an event to every subscribed frame honoring scope:
// local delivers only to the frame that owns the subscription, bubble
// delivers to the owner and everything below it on the stack (its
// ancestors), global delivers to every frame.
func (d *driverImpl) Handle(event Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatchLocked(event)
}

// dispatchFrom handles an event a behavior emitted through its context: the
// event is recorded on the sink's event stream and delivered to the matching
// subscriptions of every frame except the emitting one. Handler actions are
// queued and run when the phase or dispatch in progress drains; no frame is
// popped here.
func (d *driverImpl) dispatchFrom(origin *RuntimeBlock, event Event) {
	d.sink.EmitEvent(event)
	for level := len(d.stack) - 1; level >= 0; level-- {
		block := d.stack[level]
		if block == origin {
			continue
		}
		for _, sub := range block.subs {
			if sub.event == event.Name && d.scopeMatches(sub.scope, level) {
				ctx := &behaviorContext{driver: d, block: block, level: level}
				d.pending = append(d.pending, sub.handler(ctx, event)...)
			}
		}
	}
}

func (d *driverImpl) dispatchLocked(event Event) error {
	for level := len(d.stack) - 1; level >= 0; level-- {
		block := d.stack[level]
		for _, sub := range block.subs {
			if sub.event != event.Name {
				continue
			}
			if !d.scopeMatches(sub.scope, level) {
				continue
			}
			ctx := &behaviorContext{driver: d, block: block, level: level}
			actions := sub.handler(ctx, event)
			if len(actions) > 0 {
				d.pending = append(d.pending, actions...)
			}
		}
	}
	if err := d.drainActions(); err != nil {
		return err
	}
	if top := d.top(); top != nil && top.IsComplete() {
		return d.popInternal()
	}
	return nil
}

// scopeMatches reports whether a subscription at stackLevel should receive
// an event, given the currently executing frame is the top of the stack.
func (d *driverImpl) scopeMatches(scope EventScope, stackLevel int) bool {
	switch scope {
	case ScopeGlobal:
		return true
	case ScopeBubble:
		return true
	case ScopeLocal:
		return stackLevel == len(d.stack)-1
	default:
		return false
	}
}

// Snapshot returns a read-only, bottom-to-top view of the stack.
func (d *driverImpl) Snapshot() []BlockView {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]BlockView, len(d.stack))
	for i, block := range d.stack {
		out[i] = block
	}
	return out
}

var _ Driver = (*driverImpl)(nil)
