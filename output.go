package engine

import (
	"sync"
	"time"
)

// OutputKind is the closed set of output record types.
type OutputKind string

const (
	OutputSegment    OutputKind = "segment"
	OutputMilestone  OutputKind = "milestone"
	OutputCompletion OutputKind = "completion"
)

// OutputRecord is one entry in the append-only output log consumed by the
// UI, sound cues, and history persistence.
type OutputRecord struct {
	Kind           OutputKind
	Fragments      []Fragment
	Metadata       map[string]any
	Timestamp      time.Time
	SourceBlockKey BlockKey
}

// HistoryData is the payload of a history:record event.
type HistoryData struct {
	BlockKey          BlockKey
	BlockType         string
	Label             string
	CompletedAt       time.Time
	ElapsedMs         int64
	HasElapsedMs      bool
	TimerDirection    TimerDirection
	HasTimerDirection bool
	TimerDurationMs   int64
	HasTimerDuration  bool
	CompletedRounds   int
	HasCompletedRounds bool
	TotalRounds       int
	HasTotalRounds    bool
}

// Observer receives every record and event as the sink accumulates them,
// giving logging, metrics, and tracing integrations a single hook point
type Observer interface {
	RecordEmitted(OutputRecord)
	EventEmitted(Event)
}

// OutputSink is the ordered, append-only log of output records plus a
// parallel event stream.
type OutputSink struct {
	mu        sync.Mutex
	records   []OutputRecord
	events    []Event
	observers []Observer
}

// NewOutputSink constructs an empty sink with the given observers attached.
func NewOutputSink(observers ...Observer) *OutputSink {
	return &OutputSink{observers: observers}
}

// Emit appends an output record and notifies observers.
func (s *OutputSink) Emit(record OutputRecord) {
	s.mu.Lock()
	s.records = append(s.records, record)
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, obs := range observers {
		obs.RecordEmitted(record)
	}
}

// EmitEvent appends an event to the parallel stream and notifies observers.
func (s *OutputSink) EmitEvent(event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, obs := range observers {
		obs.EventEmitted(event)
	}
}

// Records returns a defensive copy of the accumulated output log.
func (s *OutputSink) Records() []OutputRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OutputRecord(nil), s.records...)
}

// Events returns a defensive copy of the accumulated event stream.
func (s *OutputSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// AddObserver attaches an additional observer to the sink.
func (s *OutputSink) AddObserver(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}
