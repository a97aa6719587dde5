// internal/types/rules.go
package types

/*
 * Domain types for rule evaluation.
 *
 * Provides Expression, ExpressionSet and RuleSetList used by internal/rules for
 * normalization, compilation and evaluation. The JSON shape matches playlist
 * definitions persisted by earlier releases, so stored rules load unchanged.
 *
 * Key types:
 *   - Expression: single field/operator/value rule
 *   - ExpressionSet: AND group (all expressions must match)
 *   - RuleSetList: DNF, OR of ExpressionSets
 *
 * Values stay textual until compilation; the compiler types them against the
 * referenced field.
 */

// Expression is a single rule: a field reference, an operator and a literal target.
type Expression struct {
	Field    string `json:"MemberName"`
	Operator string `json:"Operator"`
	Value    string `json:"TargetValue"`
}

// ExpressionSet represents an AND group (all expressions must match).
type ExpressionSet struct {
	Expressions []Expression `json:"Expressions"`
}

// RuleSetList is an OR of ExpressionSets (disjunctive normal form).
type RuleSetList []ExpressionSet
