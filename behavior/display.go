package behavior

import "github.com/wod-wiki/engine"

// DisplayConfig configures DisplayInit/Labeling.
type DisplayConfig struct {
	Mode          engine.DisplayMode
	Label         string
	Subtitle      string
	ActionDisplay string
}

// DisplayInit writes the block's display hints and its label on mount.
type DisplayInit struct {
	Config DisplayConfig
}

func (DisplayInit) Name() string { return "DisplayInit" }

func (d DisplayInit) OnMount(ctx engine.BehaviorContext) []engine.Action {
	// fragment:label itself is seeded generically by BlockBuilder.Build;
	// this behavior only owns the richer "display" UI-hints tag.
	hints := engine.DisplayHints{
		Mode:          d.Config.Mode,
		Label:         d.Config.Label,
		Subtitle:      d.Config.Subtitle,
		ActionDisplay: d.Config.ActionDisplay,
	}
	writeDisplay(ctx, hints)
	return nil
}

var _ engine.MountBehavior = DisplayInit{}

// RoundDisplay mirrors round.current into the display hints' RoundDisplay
// field on mount and on every next.
type RoundDisplay struct {
	Format func(round engine.RoundState) string
}

func (RoundDisplay) Name() string { return "RoundDisplay" }

func (r RoundDisplay) refresh(ctx engine.BehaviorContext) {
	round, ok := readRound(ctx)
	if !ok {
		return
	}
	hints, ok := readDisplay(ctx)
	if !ok {
		return
	}
	if r.Format != nil {
		hints.RoundDisplay = r.Format(round)
	} else {
		hints.RoundDisplay = defaultRoundDisplay(round)
	}
	writeDisplay(ctx, hints)
}

func (r RoundDisplay) OnMount(ctx engine.BehaviorContext) []engine.Action {
	r.refresh(ctx)
	return nil
}

func (r RoundDisplay) OnNext(ctx engine.BehaviorContext) []engine.Action {
	r.refresh(ctx)
	return nil
}

var (
	_ engine.MountBehavior = RoundDisplay{}
	_ engine.NextBehavior  = RoundDisplay{}
)

func defaultRoundDisplay(round engine.RoundState) string {
	if round.HasTotal {
		return "Round " + itoa(round.Current) + " of " + itoa(round.Total)
	}
	return "Round " + itoa(round.Current)
}

// RoundOutput emits a milestone each time round.current changes, suppressing
// the mount milestone for a single-round block.
type RoundOutput struct {
	lastEmitted int
	hasEmitted  bool
}

func (*RoundOutput) Name() string { return "RoundOutput" }

func (r *RoundOutput) OnMount(ctx engine.BehaviorContext) []engine.Action {
	round, ok := readRound(ctx)
	if !ok {
		return nil
	}
	if round.HasTotal && round.Total <= 1 {
		r.hasEmitted = true
		r.lastEmitted = round.Current
		return nil
	}
	r.emit(ctx, round)
	return nil
}

func (r *RoundOutput) OnNext(ctx engine.BehaviorContext) []engine.Action {
	round, ok := readRound(ctx)
	if !ok {
		return nil
	}
	if r.hasEmitted && round.Current == r.lastEmitted {
		return nil
	}
	r.emit(ctx, round)
	return nil
}

func (r *RoundOutput) emit(ctx engine.BehaviorContext, round engine.RoundState) {
	r.hasEmitted = true
	r.lastEmitted = round.Current
	fragments := []engine.Fragment{engine.NewFragment(engine.FragmentCurrentRound, round, defaultRoundDisplay(round), engine.OriginRuntime)}
	if timer, ok := readTimer(ctx); ok {
		now := ctx.Clock().Now()
		fragments = append(fragments,
			engine.NewFragment(engine.FragmentElapsed, timer.Elapsed(now).Milliseconds(), "", engine.OriginRuntime),
			engine.NewFragment(engine.FragmentSpans, engine.SpansImage(timer.Spans), engine.SpansImage(timer.Spans), engine.OriginRuntime),
		)
	}
	ctx.EmitOutput(engine.OutputMilestone, fragments, map[string]any{"label": defaultRoundDisplay(round)})
}

var (
	_ engine.MountBehavior = (*RoundOutput)(nil)
	_ engine.NextBehavior  = (*RoundOutput)(nil)
)

// TimerOutput writes terminal runtime fragments (elapsed, total, spans,
// system-time) into the given tag on unmount. Target is
// fragment:tracked for a plain segment, fragment:result for the report
// variant.
type TimerOutput struct {
	Target engine.MemoryTag
}

func (TimerOutput) Name() string { return "TimerOutput" }

func (t TimerOutput) OnUnmount(ctx engine.BehaviorContext) []engine.Action {
	timer, ok := readTimer(ctx)
	if !ok {
		return nil
	}
	target := t.Target
	if target == "" {
		target = engine.TagTracked
	}
	now := ctx.Clock().Now()
	fragments := []engine.Fragment{
		engine.NewFragment(engine.FragmentElapsed, timer.Elapsed(now).Milliseconds(), engine.FormatDuration(timer.Elapsed(now).Milliseconds()), engine.OriginRuntime),
		engine.NewFragment(engine.FragmentTotal, timer.Total(now).Milliseconds(), engine.FormatDuration(timer.Total(now).Milliseconds()), engine.OriginRuntime),
		engine.NewFragment(engine.FragmentSpans, engine.SpansImage(timer.Spans), engine.SpansImage(timer.Spans), engine.OriginRuntime),
		engine.NewFragment(engine.FragmentSystemTime, now, engine.SystemTimeImage(now), engine.OriginRuntime),
	}
	ctx.PushMemory(target, fragments)
	return nil
}

var _ engine.UnmountBehavior = TimerOutput{}

// SegmentOutput emits an optional header segment on mount and a single
// completion output on unmount assembled from fragment:display and
// fragment:tracked.
type SegmentOutput struct {
	EmitHeader bool
}

func (SegmentOutput) Name() string { return "SegmentOutput" }

func (s SegmentOutput) OnMount(ctx engine.BehaviorContext) []engine.Action {
	if !s.EmitHeader {
		return nil
	}
	ctx.EmitOutput(engine.OutputSegment, labelFragments(ctx), map[string]any{"label": ctx.Block().Label()})
	return nil
}

func (SegmentOutput) OnUnmount(ctx engine.BehaviorContext) []engine.Action {
	fragments := append(displayFragments(ctx), trackedFragments(ctx, engine.TagTracked)...)
	ctx.EmitOutput(engine.OutputCompletion, fragments, map[string]any{"label": ctx.Block().Label()})
	return nil
}

var (
	_ engine.MountBehavior   = SegmentOutput{}
	_ engine.UnmountBehavior = SegmentOutput{}
)

// ReportOutput is the multi-group completion variant: when a block compiled
// several fragment:display groups (a rep scheme), it splits the elapsed
// total proportionally across them by rep weight.
type ReportOutput struct {
	RepWeights []int
}

func (ReportOutput) Name() string { return "ReportOutput" }

func (r ReportOutput) OnUnmount(ctx engine.BehaviorContext) []engine.Action {
	fragments := append(displayFragments(ctx), trackedFragments(ctx, engine.TagResult)...)
	if len(r.RepWeights) > 1 {
		fragments = append(fragments, r.computeSplitTimeResults(ctx)...)
	}
	ctx.EmitOutput(engine.OutputCompletion, fragments, map[string]any{"label": ctx.Block().Label()})
	return nil
}

// computeSplitTimeResults divides the block's elapsed time proportionally
// across RepWeights, e.g. 21-15-9 splits 21:15:9.
func (r ReportOutput) computeSplitTimeResults(ctx engine.BehaviorContext) []engine.Fragment {
	timer, ok := readTimer(ctx)
	if !ok {
		return nil
	}
	total := timer.Elapsed(ctx.Clock().Now()).Milliseconds()
	var sum int
	for _, w := range r.RepWeights {
		sum += w
	}
	if sum == 0 {
		return nil
	}
	out := make([]engine.Fragment, 0, len(r.RepWeights))
	var allocated int64
	for i, w := range r.RepWeights {
		var share int64
		if i == len(r.RepWeights)-1 {
			share = total - allocated
		} else {
			share = total * int64(w) / int64(sum)
			allocated += share
		}
		out = append(out, engine.NewFragment(engine.FragmentElapsed, share, engine.FormatDuration(share), engine.OriginRuntime).WithMetricRole(engine.RoleCalculated))
	}
	return out
}

var _ engine.UnmountBehavior = ReportOutput{}

// HistoryRecord emits a history:record event on unmount, always, even for a
// frame that completed with an error reason, so the UI sees a terminated
// block rather than a hang.
type HistoryRecord struct{}

func (HistoryRecord) Name() string { return "HistoryRecord" }

func (HistoryRecord) OnUnmount(ctx engine.BehaviorContext) []engine.Action {
	data := engine.HistoryData{
		BlockKey:    ctx.Block().Key(),
		BlockType:   ctx.Block().BlockType(),
		Label:       ctx.Block().Label(),
		CompletedAt: ctx.Clock().Now(),
	}
	if timer, ok := readTimer(ctx); ok {
		now := ctx.Clock().Now()
		data.ElapsedMs = timer.Elapsed(now).Milliseconds()
		data.HasElapsedMs = true
		data.TimerDirection = timer.Direction
		data.HasTimerDirection = true
		if timer.HasDuration {
			data.TimerDurationMs = timer.DurationMs
			data.HasTimerDuration = true
		}
	}
	if round, ok := readRound(ctx); ok {
		data.CompletedRounds = round.Current
		data.HasCompletedRounds = true
		if round.HasTotal {
			data.TotalRounds = round.Total
			data.HasTotalRounds = true
		}
	}
	ctx.EmitEvent(engine.NewEventWithData(engine.EventHistoryRecord, map[string]any{"record": data}))
	return nil
}

var _ engine.UnmountBehavior = HistoryRecord{}

func readDisplay(ctx engine.BehaviorContext) (engine.DisplayHints, bool) {
	f, ok := ctx.GetMemory(engine.TagDisplay)
	if !ok {
		return engine.DisplayHints{}, false
	}
	hints, ok := f.Value.(engine.DisplayHints)
	return hints, ok
}

func writeDisplay(ctx engine.BehaviorContext, hints engine.DisplayHints) {
	fragment := engine.NewFragment(engine.FragmentText, hints, hints.Label, engine.OriginRuntime)
	if _, ok := ctx.GetMemory(engine.TagDisplay); ok {
		ctx.SetMemory(engine.TagDisplay, fragment)
		return
	}
	ctx.PushMemory(engine.TagDisplay, []engine.Fragment{fragment})
}

func labelFragments(ctx engine.BehaviorContext) []engine.Fragment {
	if f, ok := ctx.GetMemory(engine.TagLabel); ok {
		return []engine.Fragment{f}
	}
	return nil
}

func displayFragments(ctx engine.BehaviorContext) []engine.Fragment {
	view := ctx.Block()
	var out []engine.Fragment
	for _, loc := range view.Locations() {
		if loc.Tag() == engine.TagDisplayPlan {
			out = append(out, loc.Fragments()...)
		}
	}
	return out
}

func trackedFragments(ctx engine.BehaviorContext, tag engine.MemoryTag) []engine.Fragment {
	view := ctx.Block()
	var out []engine.Fragment
	for _, loc := range view.Locations() {
		if loc.Tag() == tag {
			out = append(out, loc.Fragments()...)
		}
	}
	return out
}

func itoa(n int) string {
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
