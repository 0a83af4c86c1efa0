package strategy

import (
	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/behavior"
)

// NewStandardCompiler registers the full set of pattern recipes in
// priority order and attaches the cross-cutting finalizer every compiled
// block gets regardless of which strategies matched.
func NewStandardCompiler() *engine.Compiler {
	compiler := engine.NewCompiler(
		WaitingToStartStrategy{},
		AmrapStrategy{},
		IntervalStrategy{},
		RootStrategy,
		SessionRootStrategy,
		WorkoutRootStrategy,
		RepSchemeStrategy{},
		RestStrategy{},
		ChildrenStrategy{},
		GenericTimerStrategy{},
		SoundStrategy{},
		HistoryStrategy{},
		EffortStrategy{},
	)
	compiler.Finalizer = func(builder *engine.BlockBuilder) {
		builder.UseIfMissing(&behavior.CompletionTimestampBehavior{})
	}
	return compiler
}
