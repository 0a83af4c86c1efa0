// Package strategy implements the JIT compiler's pattern recipes: the
// priority-ordered chain of strategies that inspect a CodeStatement and
// assemble a block via engine.BlockBuilder and the aspect composers in the
// behavior package.
package strategy

// Compiler hints a parser attaches to a CodeStatement, driving which
// strategies match a given statement.
const (
	HintWaitingToStart = "behavior.waiting_to_start"
	HintAmrap          = "behavior.amrap"
	HintInterval       = "behavior.repeating_interval"
	HintRest           = "behavior.rest"
	HintTimerUp        = "behavior.timer.up"
	HintTimerDown      = "behavior.timer.down"
	HintRoot           = "behavior.root"
	HintSessionRoot    = "behavior.session_root"
	HintWorkoutRoot    = "behavior.workout_root"
	HintSound          = "behavior.sound"
	HintEffort         = "behavior.effort"
)

// Priority bands, highest matched first: logic recipes (Amrap, Interval)
// outrank generic component recipes, which outrank enhancement and fallback
// recipes.
const (
	PriorityLogic       = 90
	PriorityComponents  = 50
	PriorityEnhancement = 20
	PriorityFallback    = 0
)
