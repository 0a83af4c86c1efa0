package engine

// BlockBuilder is the fluent constructor a Strategy uses to assemble a
// RuntimeBlock from a matched statement. Named aspect
// composers such as "as a timer" or "as a container" live in the behavior
// package as plain functions operating on *BlockBuilder; BlockBuilder
// itself stays generic so it has no dependency on any concrete behavior
// implementation (it would otherwise import behavior, which imports
// engine, a cycle).
type BlockBuilder struct {
	registry      *BlockKeyRegistry
	tag           string
	blockType     string
	sourceIDs     []int
	behaviors     []Behavior
	seed          []seededMemory
	displayGroups [][]Fragment
	label         string
}

type seededMemory struct {
	tag       MemoryTag
	fragments []Fragment
}

// NewBlockBuilder starts a builder that allocates its key from registry.
func NewBlockBuilder(registry *BlockKeyRegistry) *BlockBuilder {
	return &BlockBuilder{registry: registry}
}

// WithType sets the block's reported BlockType (e.g. "timer", "amrap").
func (b *BlockBuilder) WithType(blockType string) *BlockBuilder {
	b.blockType = blockType
	return b
}

// WithTag sets the human-readable tag embedded in the block's key.
func (b *BlockBuilder) WithTag(tag string) *BlockBuilder {
	b.tag = tag
	return b
}

// WithSourceIDs records which statement ids this block was compiled from.
func (b *BlockBuilder) WithSourceIDs(ids []int) *BlockBuilder {
	b.sourceIDs = append([]int(nil), ids...)
	return b
}

// Use appends behaviors to the block's composed list, in execution order.
func (b *BlockBuilder) Use(behaviors ...Behavior) *BlockBuilder {
	b.behaviors = append(b.behaviors, behaviors...)
	return b
}

// HasBehavior reports whether a behavior with the given name is already
// composed onto this builder.
func (b *BlockBuilder) HasBehavior(name string) bool {
	for _, existing := range b.behaviors {
		if existing.Name() == name {
			return true
		}
	}
	return false
}

// UseIfMissing appends behavior only if no behavior with the same name is
// already composed, letting lower-priority enhancement strategies defer to
// higher-priority ones.
func (b *BlockBuilder) UseIfMissing(behavior Behavior) *BlockBuilder {
	if b.HasBehavior(behavior.Name()) {
		return b
	}
	return b.Use(behavior)
}

// RemoveBehavior drops every behavior with the given name.
func (b *BlockBuilder) RemoveBehavior(name string) *BlockBuilder {
	kept := b.behaviors[:0]
	for _, existing := range b.behaviors {
		if existing.Name() != name {
			kept = append(kept, existing)
		}
	}
	b.behaviors = kept
	return b
}

// Behaviors returns the behaviors composed so far, in order.
func (b *BlockBuilder) Behaviors() []Behavior {
	return append([]Behavior(nil), b.behaviors...)
}

// WithDisplayGroups records the plan-fragment groups Build will push as
// separate fragment:display locations, one per compiled sub-group.
func (b *BlockBuilder) WithDisplayGroups(groups [][]Fragment) *BlockBuilder {
	b.displayGroups = append(b.displayGroups, groups...)
	return b
}

// WithLabel records the label Build will push as the block's single
// fragment:label fragment.
func (b *BlockBuilder) WithLabel(label string) *BlockBuilder {
	b.label = label
	return b
}

// Seed pre-populates a memory location at construction time, before mount
// runs, letting a strategy hand compiled plan data (a duration, a round
// count) straight to the behaviors that will read it.
func (b *BlockBuilder) Seed(tag MemoryTag, fragments ...Fragment) *BlockBuilder {
	b.seed = append(b.seed, seededMemory{tag: tag, fragments: fragments})
	return b
}

// Build allocates a key and returns the assembled, still-unmounted block.
// Every compiled block gets its plan-fragment groups pushed to
// fragment:display and its label pushed to fragment:label, regardless of
// which strategies ran.
func (b *BlockBuilder) Build() (*RuntimeBlock, error) {
	key := b.registry.Allocate(b.tag)
	block := NewRuntimeBlock(key, b.blockType, b.sourceIDs, b.behaviors)
	for _, s := range b.seed {
		if _, err := block.memory.Push(s.tag, s.fragments); err != nil {
			return nil, err
		}
	}
	for _, group := range b.displayGroups {
		if _, err := block.memory.Push(TagDisplayPlan, group); err != nil {
			return nil, err
		}
	}
	if b.label != "" {
		label := NewFragment(FragmentLabel, b.label, b.label, OriginCompiler)
		if _, err := block.memory.Push(TagLabel, []Fragment{label}); err != nil {
			return nil, err
		}
	}
	return block, nil
}
