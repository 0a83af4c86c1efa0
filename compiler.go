package engine

import "sort"

// Strategy is one entry in the JIT compiler's priority chain. Every
// strategy whose Matches returns true gets to Apply onto the same shared
// builder, highest priority first; enhancement strategies typically call
// builder.UseIfMissing so a higher-priority strategy's choice wins.
type Strategy interface {
	Name() string
	Priority() int
	Matches(stmt CodeStatement, store ScriptStore) bool
	Apply(stmt CodeStatement, store ScriptStore, builder *BlockBuilder) error
}

// Compiler holds a registered, priority-ordered set of strategies and turns
// statement ids into compiled blocks by running every matching strategy in
// descending priority order against one shared builder.
type Compiler struct {
	strategies []Strategy
	// Finalizer runs once after every matching strategy has applied, before
	// Build; it is where cross-cutting defaults (e.g. a completion-timestamp
	// behavior every block gets) get added via UseIfMissing.
	Finalizer func(*BlockBuilder)
}

// NewCompiler constructs a compiler from an initial strategy set.
func NewCompiler(strategies ...Strategy) *Compiler {
	c := &Compiler{}
	for _, s := range strategies {
		c.Register(s)
	}
	return c
}

// Register adds a strategy and re-sorts the chain by descending priority,
// keeping registration order stable among equal priorities.
func (c *Compiler) Register(s Strategy) {
	c.strategies = append(c.strategies, s)
	sort.SliceStable(c.strategies, func(i, j int) bool {
		return c.strategies[i].Priority() > c.strategies[j].Priority()
	})
}

// Compile resolves a single statement id through the strategy chain,
// running every matching strategy against one shared builder before
// finalizing and building the block.
func (c *Compiler) Compile(registry *BlockKeyRegistry, store ScriptStore, statementID int) (*RuntimeBlock, error) {
	stmt, ok := store.Statement(statementID)
	if !ok {
		return nil, ErrUnknownStatement
	}

	builder := NewBlockBuilder(registry).WithSourceIDs([]int{stmt.ID})
	matched := false
	for _, strategy := range c.strategies {
		if !strategy.Matches(stmt, store) {
			continue
		}
		matched = true
		if err := strategy.Apply(stmt, store, builder); err != nil {
			return nil, newCompilationError(err.Error())
		}
	}
	if !matched {
		return nil, newCompilationError("no strategy matched statement")
	}
	if c.Finalizer != nil {
		c.Finalizer(builder)
	}
	return builder.Build()
}
