package engine

import "time"

// RuntimeBlock is one frame on the stack: a behavior list, a memory list,
// and lifecycle bookkeeping. Blocks never reference their
// parent directly; a behavior that needs ancestor state reaches it through
// bubble-scoped events or through memory the driver exposes on Snapshot.
type RuntimeBlock struct {
	key         BlockKey
	blockType   string
	label       string
	sourceIDs   []int
	behaviors   []Behavior
	memory      *MemoryList
	subs        []registeredSubscription
	complete    bool
	reason      string
	mounted     bool
	createdAt   time.Time
}

type registeredSubscription struct {
	event   string
	scope   EventScope
	handler func(ctx BehaviorContext, event Event) []Action
}

// NewRuntimeBlock constructs an unmounted block with the given behaviors,
// composed in the order the compiler decided.
func NewRuntimeBlock(key BlockKey, blockType string, sourceIDs []int, behaviors []Behavior) *RuntimeBlock {
	return &RuntimeBlock{
		key:       key,
		blockType: blockType,
		sourceIDs: append([]int(nil), sourceIDs...),
		behaviors: append([]Behavior(nil), behaviors...),
		memory:    NewMemoryList(),
	}
}

func (b *RuntimeBlock) Key() BlockKey       { return b.key }
func (b *RuntimeBlock) BlockType() string   { return b.blockType }
func (b *RuntimeBlock) SourceIDs() []int    { return append([]int(nil), b.sourceIDs...) }
func (b *RuntimeBlock) IsComplete() bool    { return b.complete }
func (b *RuntimeBlock) CompletionReason() string { return b.reason }

// Label reads the single fragment:label location, if one exists.
func (b *RuntimeBlock) Label() string {
	if b.label != "" {
		return b.label
	}
	loc, ok := b.memory.ByTag(TagLabel)
	if !ok {
		return ""
	}
	if f, ok := FindByType(loc.Fragments(), FragmentLabel); ok {
		if s, ok := f.Value.(string); ok {
			return s
		}
	}
	return ""
}

// GetMemoryByTag resolves a single-valued tag's fragments directly; for
// multi-valued tags it returns the first location's fragments.
func (b *RuntimeBlock) GetMemoryByTag(tag MemoryTag) ([]Fragment, bool) {
	loc, ok := b.memory.ByTag(tag)
	if !ok {
		return nil, false
	}
	return loc.Fragments(), true
}

// Locations returns every memory location the block owns, in insertion
// order.
func (b *RuntimeBlock) Locations() []*MemoryLocation {
	return b.memory.All()
}

// markComplete marks the frame complete with the given reason; idempotent,
// keeping the first reason recorded.
func (b *RuntimeBlock) markComplete(reason string) {
	if b.complete {
		return
	}
	b.complete = true
	b.reason = reason
}

var _ BlockView = (*RuntimeBlock)(nil)
