package engine

// FragmentType enumerates the closed set of fragment variants a block's
// memory can carry.
type FragmentType string

const (
	FragmentDuration     FragmentType = "duration"
	FragmentRep          FragmentType = "rep"
	FragmentRounds       FragmentType = "rounds"
	FragmentTimer        FragmentType = "timer"
	FragmentElapsed      FragmentType = "elapsed"
	FragmentTotal        FragmentType = "total"
	FragmentSpans        FragmentType = "spans"
	FragmentSystemTime   FragmentType = "system_time"
	FragmentCurrentRound FragmentType = "current_round"
	FragmentText         FragmentType = "text"
	FragmentLabel        FragmentType = "label"
	FragmentAction       FragmentType = "action"
	FragmentEffort       FragmentType = "effort"
	FragmentResistance   FragmentType = "resistance"
	FragmentDistance     FragmentType = "distance"
	FragmentIncrement    FragmentType = "increment"
	FragmentLap          FragmentType = "lap"
	FragmentGroup        FragmentType = "group"
)

// Origin identifies who produced a fragment.
type Origin string

const (
	OriginParser    Origin = "parser"
	OriginCompiler  Origin = "compiler"
	OriginRuntime   Origin = "runtime"
	OriginUser      Origin = "user"
	OriginCollected Origin = "collected"
)

// originRank orders precedence for same-type fragment resolution: user >
// runtime > compiler > parser.
var originRank = map[Origin]int{
	OriginUser:      4,
	OriginRuntime:   3,
	OriginCompiler:  2,
	OriginParser:    1,
	OriginCollected: 0,
}

// MetricRole describes the role a fragment plays as a metric.
type MetricRole string

const (
	RoleDefined    MetricRole = "defined"
	RoleRecorded   MetricRole = "recorded"
	RoleCalculated MetricRole = "calculated"
	RoleHint       MetricRole = "hint"
)

// Fragment is a tagged value node: a plan value, a runtime measurement, or
// display text.
type Fragment struct {
	Type          FragmentType
	Value         any
	Image         string
	Origin        Origin
	Behavior      MetricRole
	SourceBlock   BlockKey
	HasSourceKey  bool
	Timestamp     int64
	HasTimestamp  bool
}

// NewFragment constructs a fragment with the given type, value and origin.
func NewFragment(t FragmentType, value any, image string, origin Origin) Fragment {
	return Fragment{Type: t, Value: value, Image: image, Origin: origin}
}

// WithMetricRole returns a copy of the fragment tagged with the given role.
func (f Fragment) WithMetricRole(role MetricRole) Fragment {
	f.Behavior = role
	return f
}

// WithSource returns a copy of the fragment stamped with the block it came
// from.
func (f Fragment) WithSource(key BlockKey) Fragment {
	f.SourceBlock = key
	f.HasSourceKey = true
	return f
}

// WithTimestamp returns a copy of the fragment stamped with an epoch-millis
// timestamp.
func (f Fragment) WithTimestamp(ts int64) Fragment {
	f.Timestamp = ts
	f.HasTimestamp = true
	return f
}

// ResolveByPrecedence picks, for each FragmentType present in fragments, the
// single fragment with the highest-precedence Origin. Order
// of first appearance within a type is preserved for ties broken by origin
// rank; the result is returned in the order types were first seen.
func ResolveByPrecedence(fragments []Fragment) []Fragment {
	best := make(map[FragmentType]Fragment, len(fragments))
	order := make([]FragmentType, 0, len(fragments))
	for _, f := range fragments {
		cur, ok := best[f.Type]
		if !ok {
			best[f.Type] = f
			order = append(order, f.Type)
			continue
		}
		if originRank[f.Origin] > originRank[cur.Origin] {
			best[f.Type] = f
		}
	}
	out := make([]Fragment, 0, len(order))
	for _, t := range order {
		out = append(out, best[t])
	}
	return out
}

// FindByType returns the first fragment of the given type, if present.
func FindByType(fragments []Fragment, t FragmentType) (Fragment, bool) {
	for _, f := range fragments {
		if f.Type == t {
			return f, true
		}
	}
	return Fragment{}, false
}
