package behavior

import "github.com/wod-wiki/engine"

// CompletionTimestampBehavior records the epoch-millis moment a block
// finished: on the first OnNext that sees the block complete, or else at
// unmount. CompletedAt returns it; no output record is changed. The standard
// compiler's finalizer adds this to every block regardless of which
// strategies matched.
type CompletionTimestampBehavior struct {
	completedAt int64
}

func (*CompletionTimestampBehavior) Name() string { return "CompletionTimestampBehavior" }

func (c *CompletionTimestampBehavior) OnNext(ctx engine.BehaviorContext) []engine.Action {
	if ctx.Block().IsComplete() && c.completedAt == 0 {
		c.completedAt = ctx.Clock().Now().UnixMilli()
	}
	return nil
}

func (c *CompletionTimestampBehavior) OnUnmount(ctx engine.BehaviorContext) []engine.Action {
	if c.completedAt == 0 {
		c.completedAt = ctx.Clock().Now().UnixMilli()
	}
	return nil
}

// CompletedAt returns the epoch-millis timestamp the block completed at, or
// zero if it never completed.
func (c *CompletionTimestampBehavior) CompletedAt() int64 { return c.completedAt }

var (
	_ engine.NextBehavior    = (*CompletionTimestampBehavior)(nil)
	_ engine.UnmountBehavior = (*CompletionTimestampBehavior)(nil)
)
