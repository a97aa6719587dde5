package rules

import "github.com/solatis/smartplaylist/internal/types"

// Engine bundles the rule pipeline for callers that evaluate many items
// against one rule set: normalize, compile once, then build and match
// operands item by item. Stateless apart from the optional library; safe
// for concurrent use.
type Engine struct {
	lib types.Library
}

// NewEngine creates an engine that resolves user data through lib.
// lib may be nil.
func NewEngine(lib types.Library) *Engine {
	return &Engine{lib: lib}
}

// Prepare normalizes and compiles sets.
func (e *Engine) Prepare(sets types.RuleSetList) (CompiledRuleSets, error) {
	return CompileRuleSets(FixRuleSets(sets))
}

// Match builds the operand for item and tests it against compiled.
func (e *Engine) Match(compiled CompiledRuleSets, item types.Item, user types.User) bool {
	return compiled.Match(NewOperand(e.lib, item, user))
}
