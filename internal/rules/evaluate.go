// internal/rules/evaluate.go
package rules

import "github.com/solatis/smartplaylist/internal/types"

/*
 * Rule set evaluation.
 *
 * DNF semantics: an Operand matches when at least one ExpressionSet has all of
 * its predicates true.
 *
 * Short-circuit semantics: the first fully matching set stops evaluation.
 * Within a set, the first false predicate stops that set. Sets and predicates
 * run in listed order.
 *
 * Edge cases:
 *   - no sets: never matches (empty OR is false)
 *   - a set with no predicates: always matches (empty AND is true)
 */

// Match reports whether o satisfies the compiled rule sets.
func (c CompiledRuleSets) Match(o *Operand) bool {
	for _, set := range c {
		if set.Match(o) {
			return true
		}
	}
	return false
}

// Match reports whether every predicate in the set accepts o.
func (s CompiledSet) Match(o *Operand) bool {
	for _, pred := range s {
		if !pred(o) {
			return false
		}
	}
	return true
}

// Evaluate compiles sets and tests o against them.
// Returns the compilation error, if any, without evaluating.
func Evaluate(sets types.RuleSetList, o *Operand) (bool, error) {
	compiled, err := CompileRuleSets(sets)
	if err != nil {
		return false, err
	}
	return compiled.Match(o), nil
}
