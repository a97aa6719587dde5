// internal/rules/compile.go
package rules

import (
	"errors"
	"fmt"

	"github.com/solatis/smartplaylist/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles types.Expression to a Predicate closure and types.RuleSetList to
 * CompiledRuleSets. All validation happens here so a bad rule surfaces before
 * the first item is scanned:
 *   1. Resolve field name against the closed field table
 *   2. Resolve operator and check it against the field kind
 *   3. Parse the target literal (number, date, boolean, regex)
 *   4. Bind field, operator and target into a closure
 *
 * Expression order inside a set is preserved. Evaluation is left to right and
 * stops at the first false predicate, so authors control short-circuiting by
 * ordering their rules.
 *
 * Compilation is pure: the same expression always yields an equivalent
 * predicate and nothing is cached between calls.
 */

// Predicate tests a single Operand.
type Predicate func(*Operand) bool

// CompiledSet is a compiled AND group.
type CompiledSet []Predicate

// CompiledRuleSets is a compiled OR list of AND groups.
type CompiledRuleSets []CompiledSet

// Compile validates expr and returns its predicate.
// Errors are *types.ConfigurationError without set or playlist context;
// CompileRuleSets fills in the location.
func Compile(expr types.Expression) (Predicate, error) {
	field, ok := LookupField(expr.Field)
	if !ok {
		return nil, exprError(expr, fmt.Errorf("%w: %q", types.ErrUnknownField, expr.Field))
	}

	op, ok := LookupOperator(expr.Operator)
	if !ok {
		return nil, exprError(expr, fmt.Errorf("%w: unknown operator %q", types.ErrInvalidOperator, expr.Operator))
	}

	kind := field.Kind()
	if !Supports(kind, op) {
		return nil, exprError(expr, fmt.Errorf("%w: %s does not apply to %s field %s",
			types.ErrInvalidOperator, op, kind, field))
	}

	target, err := CoerceTarget(expr.Value, kind, op)
	if err != nil {
		return nil, exprError(expr, err)
	}

	return func(o *Operand) bool {
		return Compare(kind, op, o.values[field], target)
	}, nil
}

// CompileRuleSets compiles every expression of every set, preserving order.
// The first failure aborts compilation; no partial result is returned.
func CompileRuleSets(sets types.RuleSetList) (CompiledRuleSets, error) {
	compiled := make(CompiledRuleSets, 0, len(sets))
	for setIdx, set := range sets {
		compiledSet := make(CompiledSet, 0, len(set.Expressions))
		for exprIdx, expr := range set.Expressions {
			pred, err := Compile(expr)
			if err != nil {
				var cfgErr *types.ConfigurationError
				if errors.As(err, &cfgErr) {
					cfgErr.SetIndex = setIdx
					cfgErr.ExpressionIndex = exprIdx
				}
				return nil, err
			}
			compiledSet = append(compiledSet, pred)
		}
		compiled = append(compiled, compiledSet)
	}

	return compiled, nil
}

// exprError wraps err with the offending expression.
func exprError(expr types.Expression, err error) *types.ConfigurationError {
	return &types.ConfigurationError{
		SetIndex:        -1,
		ExpressionIndex: -1,
		Expression:      expr,
		Err:             err,
	}
}
