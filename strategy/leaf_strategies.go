package strategy

import (
	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/behavior"
)

// RepSchemeStrategy compiles a childless statement carrying more than one
// rep fragment (21-15-9, 10-9-8...1) into a bounded round counter: each
// user advance moves to the next rep group directly, with no children to
// dispatch, and the final completion output splits the elapsed time
// proportionally by rep weight.
type RepSchemeStrategy struct{}

func (RepSchemeStrategy) Name() string  { return "RepScheme" }
func (RepSchemeStrategy) Priority() int { return PriorityComponents }
func (RepSchemeStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return len(stmt.ChildIDs) == 0 && len(repWeights(stmt)) > 1
}

func (RepSchemeStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	weights := repWeights(stmt)
	label := labelOf(stmt)
	builder.WithType("repscheme").WithTag("reps").WithLabel(label)

	groups := make([][]engine.Fragment, 0, len(weights))
	for _, w := range weights {
		groups = append(groups, []engine.Fragment{engine.NewFragment(engine.FragmentRep, w, itoaHelper(w), engine.OriginParser)})
	}
	builder.WithDisplayGroups(groups)

	behavior.AsTimer(builder, behavior.TimerConfig{
		Direction: engine.DirectionUp,
		Label:     label,
		Role:      engine.RoleSecondary,
	})
	behavior.AsRepeater(builder, behavior.RepeaterConfig{StartRound: 1, TotalRounds: len(weights), HasTotal: true}, true)

	builder.Use(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: engine.DisplayClock, Label: label}})
	builder.Use(behavior.RoundDisplay{}, &behavior.RoundOutput{})
	builder.Use(behavior.ReportOutput{RepWeights: weights})
	return nil
}

// EffortStrategy is the priority-0 fallback: any statement with no
// children and no higher-priority hint compiles to a plain leaf, a single
// exercise the athlete advances past manually.
type EffortStrategy struct{}

func (EffortStrategy) Name() string  { return "Effort" }
func (EffortStrategy) Priority() int { return PriorityFallback }
func (EffortStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return len(stmt.ChildIDs) == 0
}

func (EffortStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	// A block a higher-priority recipe already composed (a timer, a
	// repeater or a container) keeps its own type and completion.
	if builder.HasBehavior("TimerInit") || builder.HasBehavior("ReEntry") || builder.HasBehavior("ChildSelection") {
		return nil
	}
	label := labelOf(stmt)
	builder.WithType("effort").WithTag("effort").WithLabel(label)

	tracked := metricFragments(stmt)
	if len(tracked) > 0 {
		builder.Seed(engine.TagTracked, tracked...)
	}

	builder.UseIfMissing(behavior.LeafExit{})
	builder.UseIfMissing(behavior.DisplayInit{Config: behavior.DisplayConfig{Mode: engine.DisplayHidden, Label: label}})
	builder.UseIfMissing(behavior.SegmentOutput{})
	return nil
}

// metricFragments extracts the recorded-metric fragments (effort,
// resistance, distance, rep) a parser attached to a leaf statement, the values
// SegmentOutput's completion record surfaces alongside the label.
func metricFragments(stmt engine.CodeStatement) []engine.Fragment {
	var out []engine.Fragment
	for _, f := range stmt.Fragments {
		switch f.Type {
		case engine.FragmentEffort, engine.FragmentResistance, engine.FragmentDistance, engine.FragmentRep:
			out = append(out, f)
		}
	}
	return out
}

func itoaHelper(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
