package behavior

import "github.com/wod-wiki/engine"

// SoundCueConfig configures which lifecycle points of a block play a sound.
type SoundCueConfig struct {
	Sound            string
	OnMount          bool
	OnUnmount        bool
	OnComplete       bool
	CountdownSeconds []int
}

// SoundCue emits a milestone output carrying a sound name at the configured
// trigger points, deduplicating countdown cues so each discrete
// remaining-second value plays at most once per frame lifetime.
type SoundCue struct {
	Config SoundCueConfig
	played map[int]bool
}

func (*SoundCue) Name() string { return "SoundCue" }

func (s *SoundCue) OnMount(ctx engine.BehaviorContext) []engine.Action {
	if s.Config.OnMount {
		s.play(ctx, nil)
	}
	return nil
}

func (s *SoundCue) Subscriptions(ctx engine.BehaviorContext) []engine.Subscription {
	if len(s.Config.CountdownSeconds) == 0 {
		return nil
	}
	return []engine.Subscription{{
		Event: engine.EventTick,
		Scope: engine.ScopeLocal,
		Handler: func(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
			timer, ok := readTimer(ctx)
			if !ok || !timer.HasDuration {
				return nil
			}
			now := ctx.Clock().Now()
			remaining := timer.DurationMs - timer.Elapsed(now).Milliseconds()
			remainingSeconds := int(remaining / 1000)
			for _, threshold := range s.Config.CountdownSeconds {
				if remainingSeconds != threshold {
					continue
				}
				if s.played == nil {
					s.played = make(map[int]bool)
				}
				if s.played[threshold] {
					continue
				}
				s.played[threshold] = true
				s.play(ctx, &threshold)
			}
			return nil
		},
	}}
}

func (s *SoundCue) OnUnmount(ctx engine.BehaviorContext) []engine.Action {
	reason := ctx.Block().CompletionReason()
	if s.Config.OnUnmount || (s.Config.OnComplete && reason != "") {
		s.play(ctx, nil)
	}
	return nil
}

func (s *SoundCue) play(ctx engine.BehaviorContext, remainingSeconds *int) {
	data := map[string]any{
		"sound":    s.Config.Sound,
		"blockKey": ctx.Block().Key().String(),
	}
	if remainingSeconds != nil {
		data["remainingSeconds"] = *remainingSeconds
	}
	ctx.EmitEvent(engine.NewEventWithData(engine.EventSoundPlay, data))
	ctx.EmitOutput(engine.OutputMilestone, nil, data)
}

var (
	_ engine.MountBehavior       = (*SoundCue)(nil)
	_ engine.SubscribingBehavior = (*SoundCue)(nil)
	_ engine.UnmountBehavior     = (*SoundCue)(nil)
)
