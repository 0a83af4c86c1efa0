package behavior

import "github.com/wod-wiki/engine"

// RepeaterConfig configures the round-counting aspect of a block.
type RepeaterConfig struct {
	StartRound  int
	TotalRounds int
	HasTotal    bool
}

// ReEntry tracks round progress: it seeds `round` on mount and advances it
// on every next, unless the current dispatch of children has not yet fully
// executed.
type ReEntry struct {
	Config RepeaterConfig
}

func (ReEntry) Name() string { return "ReEntry" }

func (r ReEntry) OnMount(ctx engine.BehaviorContext) []engine.Action {
	start := r.Config.StartRound
	if start == 0 {
		start = 1
	}
	state := engine.RoundState{Current: start, Total: r.Config.TotalRounds, HasTotal: r.Config.HasTotal}
	fragment := engine.NewFragment(engine.FragmentCurrentRound, state, "", engine.OriginRuntime)
	ctx.PushMemory(engine.TagRound, []engine.Fragment{fragment})
	return nil
}

func (ReEntry) OnNext(ctx engine.BehaviorContext) []engine.Action {
	if !childrenFullyExecuted(ctx) {
		return nil
	}
	state, ok := readRound(ctx)
	if !ok {
		return nil
	}
	state.Current++
	writeRound(ctx, state)
	return nil
}

var (
	_ engine.MountBehavior = ReEntry{}
	_ engine.NextBehavior  = ReEntry{}
)

// RoundsEnd completes the block once round.current has passed round.total.
type RoundsEnd struct{}

func (RoundsEnd) Name() string { return "RoundsEnd" }

func (RoundsEnd) OnNext(ctx engine.BehaviorContext) []engine.Action {
	state, ok := readRound(ctx)
	if !ok {
		return nil
	}
	if state.Exhausted() {
		ctx.MarkComplete(engine.ReasonRoundsExhausted)
	}
	return nil
}

var _ engine.NextBehavior = RoundsEnd{}

func readRound(ctx engine.BehaviorContext) (engine.RoundState, bool) {
	f, ok := ctx.GetMemory(engine.TagRound)
	if !ok {
		return engine.RoundState{}, false
	}
	state, ok := f.Value.(engine.RoundState)
	return state, ok
}

func writeRound(ctx engine.BehaviorContext, state engine.RoundState) {
	fragment := engine.NewFragment(engine.FragmentCurrentRound, state, "", engine.OriginRuntime)
	ctx.SetMemory(engine.TagRound, fragment)
}

func childrenFullyExecuted(ctx engine.BehaviorContext) bool {
	f, ok := ctx.GetMemory(engine.TagChildrenStatus)
	if !ok {
		return true
	}
	status, ok := f.Value.(engine.ChildrenStatus)
	if !ok {
		return true
	}
	return status.AllCompleted
}
