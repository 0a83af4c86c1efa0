package behavior

import "github.com/wod-wiki/engine"

// Control event names the RuntimeControls behavior reacts to and re-emits
// once applied, for a host UI driving the controls panel.
const (
	EventControlsRegister   = "controls:register"
	EventControlsUnregister = "controls:unregister"
	EventControlsClear      = "controls:clear"
	EventControlsSetMode    = "controls:mode"
)

// ControlsConfig seeds the initial button set and display mode.
type ControlsConfig struct {
	Buttons     []engine.ButtonConfig
	DisplayMode string
}

// RuntimeControls (ControlsInit) allocates a single `controls` memory
// location and keeps it in sync with register/unregister/clear/mode events,
// the only writer of that location for its block.
type RuntimeControls struct {
	Config ControlsConfig
}

func (RuntimeControls) Name() string { return "RuntimeControls" }

func (r RuntimeControls) OnMount(ctx engine.BehaviorContext) []engine.Action {
	state := engine.ControlsState{
		Buttons:     append([]engine.ButtonConfig(nil), r.Config.Buttons...),
		DisplayMode: r.Config.DisplayMode,
	}
	fragment := engine.NewFragment(engine.FragmentAction, state, "", engine.OriginRuntime)
	ctx.PushMemory(engine.TagControls, []engine.Fragment{fragment})
	return nil
}

func (RuntimeControls) Subscriptions(ctx engine.BehaviorContext) []engine.Subscription {
	return []engine.Subscription{
		{Event: EventControlsRegister, Scope: engine.ScopeLocal, Handler: handleRegister},
		{Event: EventControlsUnregister, Scope: engine.ScopeLocal, Handler: handleUnregister},
		{Event: EventControlsClear, Scope: engine.ScopeLocal, Handler: handleClear},
		{Event: EventControlsSetMode, Scope: engine.ScopeLocal, Handler: handleSetMode},
	}
}

var (
	_ engine.MountBehavior       = RuntimeControls{}
	_ engine.SubscribingBehavior = RuntimeControls{}
)

func readControls(ctx engine.BehaviorContext) (engine.ControlsState, bool) {
	f, ok := ctx.GetMemory(engine.TagControls)
	if !ok {
		return engine.ControlsState{}, false
	}
	state, ok := f.Value.(engine.ControlsState)
	return state, ok
}

func writeControls(ctx engine.BehaviorContext, state engine.ControlsState) {
	fragment := engine.NewFragment(engine.FragmentAction, state, "", engine.OriginRuntime)
	ctx.SetMemory(engine.TagControls, fragment)
}

func handleRegister(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
	state, ok := readControls(ctx)
	if !ok {
		return nil
	}
	button, ok := event.Data["button"].(engine.ButtonConfig)
	if !ok {
		return nil
	}
	state.Buttons = append(state.Buttons, button)
	writeControls(ctx, state)
	ctx.EmitEvent(engine.NewEventWithData(EventControlsRegister, event.Data))
	return nil
}

func handleUnregister(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
	state, ok := readControls(ctx)
	if !ok {
		return nil
	}
	id, _ := event.Data["id"].(string)
	kept := state.Buttons[:0]
	for _, b := range state.Buttons {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	state.Buttons = kept
	writeControls(ctx, state)
	ctx.EmitEvent(engine.NewEventWithData(EventControlsUnregister, event.Data))
	return nil
}

func handleClear(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
	state, ok := readControls(ctx)
	if !ok {
		return nil
	}
	state.Buttons = nil
	writeControls(ctx, state)
	ctx.EmitEvent(engine.NewEvent(EventControlsClear))
	return nil
}

func handleSetMode(ctx engine.BehaviorContext, event engine.Event) []engine.Action {
	state, ok := readControls(ctx)
	if !ok {
		return nil
	}
	mode, _ := event.Data["mode"].(string)
	state.DisplayMode = mode
	writeControls(ctx, state)
	ctx.EmitEvent(engine.NewEventWithData(EventControlsSetMode, event.Data))
	return nil
}
