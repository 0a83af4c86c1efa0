package behavior

import "github.com/wod-wiki/engine"

// AsTimer composes the timer aspect onto a block under construction: Timer
// init/tick/pause, plus TimerCompletion when the block should complete
// itself on expiry.
func AsTimer(builder *engine.BlockBuilder, cfg TimerConfig) *engine.BlockBuilder {
	builder = builder.Use(TimerInit{Config: cfg}, TimerTick{}, TimerPause{})
	if cfg.AddCompletion {
		builder = builder.Use(TimerCompletion{})
	}
	return builder
}

// AsRepeater composes the round-counting aspect onto a block under
// construction, optionally adding the bounded-completion behavior.
func AsRepeater(builder *engine.BlockBuilder, cfg RepeaterConfig, addCompletion bool) *engine.BlockBuilder {
	builder = builder.Use(ReEntry{Config: cfg})
	if addCompletion {
		builder = builder.Use(RoundsEnd{})
	}
	return builder
}

// AsContainer composes the child-dispatch aspect onto a block under
// construction. The loop-or-not
// decision and rest sizing live on the ChildSelectionConfig the caller
// supplies.
func AsContainer(builder *engine.BlockBuilder, cfg ChildSelectionConfig) *engine.BlockBuilder {
	return builder.Use(&ChildSelection{Config: cfg})
}
