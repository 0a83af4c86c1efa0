package engine

import "fmt"

// PushBlockAction appends an already-compiled block to the stack and runs
// its mount phase. Behaviors never push directly; they
// return this action and the driver applies it after the phase finishes.
type PushBlockAction struct {
	Block *RuntimeBlock
}

func (a PushBlockAction) Execute(d *driverImpl) error {
	return d.pushInternal(a.Block)
}

// PopBlockAction unmounts and disposes the top frame.
type PopBlockAction struct{}

func (a PopBlockAction) Execute(d *driverImpl) error {
	return d.popInternal()
}

// CompileChildBlockAction compiles the given statement id through the
// driver's strategy chain and pushes the resulting block, used by container
// behaviors advancing to their next child.
type CompileChildBlockAction struct {
	StatementID int
}

func (a CompileChildBlockAction) Execute(d *driverImpl) error {
	block, err := d.compileInternal(a.StatementID)
	if err != nil {
		return err
	}
	return d.pushInternal(block)
}

// UpdateNextPreviewAction refreshes the current top frame's "next" lookahead
// state, used by ChildSelection to expose the upcoming child before it is
// actually compiled and pushed.
type UpdateNextPreviewAction struct {
	Tag       MemoryTag
	Fragments []Fragment
}

func (a UpdateNextPreviewAction) Execute(d *driverImpl) error {
	top := d.top()
	if top == nil {
		return fmt.Errorf("engine: update preview with empty stack")
	}
	if loc, ok := top.memory.ByTag(a.Tag); ok {
		return loc.Update(a.Fragments)
	}
	_, err := top.memory.Push(a.Tag, a.Fragments)
	return err
}

// EmitOutputAction appends a record to the sink; behaviors use
// BehaviorContext.EmitOutput rather than constructing this directly, but it
// is exported so a strategy compiling a block can seed initial output.
type EmitOutputAction struct {
	Kind      OutputKind
	Fragments []Fragment
	Metadata  map[string]any
	Source    BlockKey
}

func (a EmitOutputAction) Execute(d *driverImpl) error {
	d.sink.Emit(OutputRecord{
		Kind:           a.Kind,
		Fragments:      a.Fragments,
		Metadata:       a.Metadata,
		Timestamp:      d.clock.Now(),
		SourceBlockKey: a.Source,
	})
	return nil
}

// behaviorContext is the concrete BehaviorContext bound to one block during
// one phase invocation.
type behaviorContext struct {
	driver *driverImpl
	block  *RuntimeBlock
	level  int
}

func (c *behaviorContext) Block() BlockView { return c.block }
func (c *behaviorContext) Clock() Clock     { return c.driver.clock }
func (c *behaviorContext) StackLevel() int  { return c.level }

func (c *behaviorContext) GetMemory(tag MemoryTag) (Fragment, bool) {
	loc, ok := c.block.memory.ByTag(tag)
	if !ok {
		return Fragment{}, false
	}
	fragments := loc.Fragments()
	if len(fragments) == 0 {
		return Fragment{}, false
	}
	return fragments[len(fragments)-1], true
}

func (c *behaviorContext) SetMemory(tag MemoryTag, fragment Fragment) {
	if loc, ok := c.block.memory.ByTag(tag); ok {
		_ = loc.Update([]Fragment{fragment})
		return
	}
	_, _ = c.block.memory.Push(tag, []Fragment{fragment})
}

func (c *behaviorContext) PushMemory(tag MemoryTag, fragments []Fragment) *MemoryLocation {
	loc, err := c.block.memory.Push(tag, fragments)
	if err != nil {
		c.driver.logger.Error("push memory rejected", "tag", string(tag), "err", err)
		return nil
	}
	return loc
}

func (c *behaviorContext) UpdateMemory(tag MemoryTag, fragments []Fragment) error {
	loc, ok := c.block.memory.ByTag(tag)
	if !ok {
		return newInvalidMemoryAccess("update of absent tag " + string(tag))
	}
	return loc.Update(fragments)
}

func (c *behaviorContext) EmitEvent(event Event) {
	c.driver.dispatchFrom(c.block, event)
}

func (c *behaviorContext) EmitOutput(kind OutputKind, fragments []Fragment, metadata map[string]any) {
	c.driver.sink.Emit(OutputRecord{
		Kind:           kind,
		Fragments:      fragments,
		Metadata:       metadata,
		Timestamp:      c.driver.clock.Now(),
		SourceBlockKey: c.block.key,
	})
}

func (c *behaviorContext) MarkComplete(reason string) {
	c.block.markComplete(reason)
}

func (c *behaviorContext) Subscribe(event string, scope EventScope, handler func(ctx BehaviorContext, ev Event) []Action) {
	c.block.subs = append(c.block.subs, registeredSubscription{event: event, scope: scope, handler: handler})
}

func (c *behaviorContext) Logger() Logger {
	return c.driver.logger.With("block", c.block.key.String())
}

func (c *behaviorContext) NewChildBuilder(blockType string) *BlockBuilder {
	return NewBlockBuilder(c.driver.keyRegistry).WithType(blockType)
}

var _ BehaviorContext = (*behaviorContext)(nil)
