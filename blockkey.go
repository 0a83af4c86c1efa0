package engine

import (
	"fmt"
	"sync"
)

// BlockKey is the opaque, totally ordered identity of a block instance. It
// encodes a generation so a stale handle captured before a pop can be
// detected, the same index/generation scheme an entity registry uses to
// recycle slots.
type BlockKey struct {
	index      uint32
	generation uint32
	tag        string
}

// Index returns the backing slot of the key.
func (k BlockKey) Index() uint32 { return k.index }

// Generation returns the generation counter associated with the key.
func (k BlockKey) Generation() uint32 { return k.generation }

// Tag returns the short, human-readable tag attached at allocation time
// (e.g. "squats:1"), used in logs and debugging.
func (k BlockKey) Tag() string { return k.tag }

// IsZero reports whether the key is the zero value.
func (k BlockKey) IsZero() bool {
	return k.index == 0 && k.generation == 0
}

// String renders the key for debugging purposes.
func (k BlockKey) String() string {
	if k.tag != "" {
		return fmt.Sprintf("%s#%d:%d", k.tag, k.index, k.generation)
	}
	return fmt.Sprintf("block#%d:%d", k.index, k.generation)
}

// BlockKeyRegistry allocates and recycles block identities for a single
// Driver's stack.
type BlockKeyRegistry struct {
	mu          sync.Mutex
	generations []uint32
	free        []uint32
}

// NewBlockKeyRegistry constructs an empty registry.
func NewBlockKeyRegistry() *BlockKeyRegistry {
	return &BlockKeyRegistry{}
}

// Allocate issues a new BlockKey tagged for logs, recycling slots from
// popped frames when possible.
func (r *BlockKeyRegistry) Allocate(tag string) BlockKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.generations)) + 1
		r.generations = append(r.generations, 0)
	}

	r.generations[index-1]++
	return BlockKey{index: index, generation: r.generations[index-1], tag: tag}
}

// Release returns a key's slot to the free list so it can be recycled.
func (r *BlockKeyRegistry) Release(key BlockKey) {
	if key.IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.free = append(r.free, key.index)
}
