package strategy

import (
	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/behavior"
)

// SoundStrategy layers a completion sound cue onto any statement carrying
// the sound hint, deferring to a Logic/Components strategy that already
// composed its own SoundCue.
type SoundStrategy struct{}

func (SoundStrategy) Name() string  { return "Sound" }
func (SoundStrategy) Priority() int { return PriorityEnhancement }
func (SoundStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return stmt.HasHint(HintSound)
}

func (SoundStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	name := labelOf(stmt)
	if name == "" {
		name = "bell"
	}
	builder.UseIfMissing(&behavior.SoundCue{Config: behavior.SoundCueConfig{
		Sound:            name,
		OnComplete:       true,
		CountdownSeconds: []int{3, 2, 1},
	}})
	return nil
}

// HistoryStrategy adds a history:record emitter to every compiled block
// that doesn't already have one, so even a plain effort leaf shows up in
// run history.
type HistoryStrategy struct{}

func (HistoryStrategy) Name() string  { return "History" }
func (HistoryStrategy) Priority() int { return PriorityEnhancement }
func (HistoryStrategy) Matches(stmt engine.CodeStatement, store engine.ScriptStore) bool {
	return true
}

func (HistoryStrategy) Apply(stmt engine.CodeStatement, store engine.ScriptStore, builder *engine.BlockBuilder) error {
	builder.UseIfMissing(behavior.HistoryRecord{})
	return nil
}
