package engine

import "sync"

// MemoryTag is one of the closed set of standard tags a block's memory
// locations may carry.
type MemoryTag string

const (
	TagLabel          MemoryTag = "fragment:label"
	TagDisplayPlan    MemoryTag = "fragment:display"
	TagResult         MemoryTag = "fragment:result"
	TagTracked        MemoryTag = "fragment:tracked"
	TagPromote        MemoryTag = "fragment:promote"
	TagRound          MemoryTag = "round"
	TagTimer          MemoryTag = "timer"
	TagDisplay        MemoryTag = "display"
	TagChildrenStatus MemoryTag = "children:status"
	TagControls       MemoryTag = "controls"
	// TagPreview holds the "up next" lookahead UpdateNextPreviewAction
	// writes, so the UI can show what will be compiled before it is pushed.
	TagPreview MemoryTag = "children:preview"
)

// singleValuedTags is the set of tags a block may carry at most one
// location for.
var singleValuedTags = map[MemoryTag]bool{
	TagTimer:          true,
	TagRound:          true,
	TagDisplay:        true,
	TagControls:       true,
	TagChildrenStatus: true,
	TagLabel:          true,
	TagPreview:        true,
}

// IsSingleValued reports whether tag may have at most one location on a
// block.
func IsSingleValued(tag MemoryTag) bool {
	return singleValuedTags[tag]
}

// MemoryLocation is a tagged, subscribable list of fragments owned by a
// block. A block exclusively owns its locations;
// a location's lifetime is the stack lifetime of its owning block.
type MemoryLocation struct {
	mu          sync.Mutex
	tag         MemoryTag
	fragments   []Fragment
	subscribers map[int]func([]Fragment)
	nextSubID   int
	released    bool
}

// NewMemoryLocation constructs a location with the given tag and initial
// fragments.
func NewMemoryLocation(tag MemoryTag, fragments []Fragment) *MemoryLocation {
	return &MemoryLocation{
		tag:         tag,
		fragments:   append([]Fragment(nil), fragments...),
		subscribers: make(map[int]func([]Fragment)),
	}
}

// Tag returns the location's tag.
func (m *MemoryLocation) Tag() MemoryTag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tag
}

// Fragments returns a defensive copy of the location's current fragments.
// Callers must treat memory locations as immutable between notifications.
func (m *MemoryLocation) Fragments() []Fragment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Fragment(nil), m.fragments...)
}

// Update replaces the location's fragments and notifies subscribers.
func (m *MemoryLocation) Update(newFragments []Fragment) error {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return newInvalidMemoryAccess("update on released location")
	}
	m.fragments = append([]Fragment(nil), newFragments...)
	snapshot := append([]Fragment(nil), m.fragments...)
	subs := make([]func([]Fragment), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}

// Subscribe registers fn to be called after every Update, returning an
// unsubscribe function.
func (m *MemoryLocation) Subscribe(fn func([]Fragment)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

func (m *MemoryLocation) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
	m.subscribers = nil
}

// MemoryList is the ordered list of memory locations a block owns. It
// enforces the single-valued-tag invariant (I5) on Push.
type MemoryList struct {
	mu        sync.Mutex
	locations []*MemoryLocation
}

// NewMemoryList constructs an empty memory list.
func NewMemoryList() *MemoryList {
	return &MemoryList{}
}

// Push appends a new location, rejecting a second location for a
// single-valued tag.
func (l *MemoryList) Push(tag MemoryTag, fragments []Fragment) (*MemoryLocation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if IsSingleValued(tag) {
		for _, loc := range l.locations {
			if loc.Tag() == tag {
				return nil, newBehaviorContractError("tag " + string(tag) + " already has a location")
			}
		}
	}
	loc := NewMemoryLocation(tag, fragments)
	l.locations = append(l.locations, loc)
	return loc, nil
}

// ByTag returns the first location with the given tag, if present.
func (l *MemoryList) ByTag(tag MemoryTag) (*MemoryLocation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, loc := range l.locations {
		if loc.Tag() == tag {
			return loc, true
		}
	}
	return nil, false
}

// AllByTag returns every location with the given tag, in insertion order
// (used for multi-valued tags such as fragment:display).
func (l *MemoryList) AllByTag(tag MemoryTag) []*MemoryLocation {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*MemoryLocation
	for _, loc := range l.locations {
		if loc.Tag() == tag {
			out = append(out, loc)
		}
	}
	return out
}

// All returns every location, in insertion order.
func (l *MemoryList) All() []*MemoryLocation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*MemoryLocation(nil), l.locations...)
}

// ReleaseAll marks every location released, rejecting further mutation
// (used on frame disposal).
func (l *MemoryList) ReleaseAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, loc := range l.locations {
		loc.release()
	}
}
