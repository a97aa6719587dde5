// internal/rules/operators.go
package rules

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

/*
 * Operator comparison logic.
 *
 * Fourteen operators with per-kind semantics. Targets are already parsed by
 * CoerceTarget before reaching the comparison functions.
 *
 * Operators by kind:
 *   - string: Equals/NotEquals, Contains/NotContains, StartsWith/EndsWith, MatchRegex/NotMatchRegex
 *   - number, date: Equals/NotEquals, GreaterThan/LessThan, GreaterThanOrEqual/LessThanOrEqual
 *   - boolean: IsTrue/IsFalse, Equals/NotEquals
 *   - set: Contains/NotContains (membership), MatchRegex/NotMatchRegex (any element)
 *
 * Text comparison is ordinal and case-insensitive: runes are compared after
 * unicode.ToUpper, never with locale-aware collation. Equality, prefix, suffix,
 * substring and CompareFold all share that one mapping.
 *
 * Missing values: equality and containment are false, so the negated
 * operators are true. Ordering uses the value as stored, which for missing
 * numbers is -Inf and for missing dates is the zero time.
 */

// Operator names a comparison.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEquals
	OpNotEquals
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpGreaterThan
	OpLessThan
	OpGreaterThanOrEqual
	OpLessThanOrEqual
	OpMatchRegex
	OpNotMatchRegex
	OpIsTrue
	OpIsFalse
)

var operatorNames = map[Operator]string{
	OpEquals:             "Equals",
	OpNotEquals:          "NotEquals",
	OpContains:           "Contains",
	OpNotContains:        "NotContains",
	OpStartsWith:         "StartsWith",
	OpEndsWith:           "EndsWith",
	OpGreaterThan:        "GreaterThan",
	OpLessThan:           "LessThan",
	OpGreaterThanOrEqual: "GreaterThanOrEqual",
	OpLessThanOrEqual:    "LessThanOrEqual",
	OpMatchRegex:         "MatchRegex",
	OpNotMatchRegex:      "NotMatchRegex",
	OpIsTrue:             "IsTrue",
	OpIsFalse:            "IsFalse",
}

var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		m[strings.ToLower(name)] = op
	}
	return m
}()

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "Unspecified"
}

// LookupOperator resolves a canonical operator name case-insensitively.
func LookupOperator(name string) (Operator, bool) {
	op, ok := operatorsByName[strings.ToLower(strings.TrimSpace(name))]
	return op, ok
}

// allowedOperators is the operator/kind validity table.
var allowedOperators = map[Kind][]Operator{
	KindString: {OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpEndsWith, OpMatchRegex, OpNotMatchRegex},
	KindNumber: {OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual},
	KindDate:   {OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual},
	KindBool:   {OpIsTrue, OpIsFalse, OpEquals, OpNotEquals},
	KindSet:    {OpContains, OpNotContains, OpMatchRegex, OpNotMatchRegex},
}

// Supports reports whether op is valid for fields of kind k.
func Supports(k Kind, op Operator) bool {
	for _, allowed := range allowedOperators[k] {
		if allowed == op {
			return true
		}
	}
	return false
}

// Compare applies op to value and target for a field of kind k.
// Callers must have checked Supports(k, op); unsupported pairs return false.
func Compare(k Kind, op Operator, value Value, target Target) bool {
	switch op {
	case OpIsTrue:
		return value.Bool
	case OpIsFalse:
		return !value.Bool
	case OpEquals:
		return compareEqual(k, value, target)
	case OpNotEquals:
		return !compareEqual(k, value, target)
	case OpContains:
		return compareContains(k, value, target)
	case OpNotContains:
		return !compareContains(k, value, target)
	case OpStartsWith:
		return !value.Missing && hasPrefixFold(value.Str, target.Str)
	case OpEndsWith:
		return !value.Missing && hasSuffixFold(value.Str, target.Str)
	case OpGreaterThan:
		return compareOrdered(k, value, target) > 0
	case OpLessThan:
		return compareOrdered(k, value, target) < 0
	case OpGreaterThanOrEqual:
		return compareOrdered(k, value, target) >= 0
	case OpLessThanOrEqual:
		return compareOrdered(k, value, target) <= 0
	case OpMatchRegex:
		return compareRegex(k, value, target)
	case OpNotMatchRegex:
		return !compareRegex(k, value, target)
	default:
		return false
	}
}

// compareEqual is false for missing values regardless of target.
func compareEqual(k Kind, value Value, target Target) bool {
	switch k {
	case KindBool:
		return value.Bool == target.Bool
	case KindNumber:
		return !value.Missing && value.Num == target.Num
	case KindDate:
		return !value.Missing && sameDay(value.Time, target.Time)
	case KindString:
		return !value.Missing && equalFold(value.Str, target.Str)
	default:
		return false
	}
}

// compareContains is set membership for sets and substring search for strings.
func compareContains(k Kind, value Value, target Target) bool {
	if value.Missing {
		return false
	}
	switch k {
	case KindSet:
		for _, elem := range value.Set {
			if equalFold(elem, target.Str) {
				return true
			}
		}
		return false
	case KindString:
		return containsFold(value.Str, target.Str)
	default:
		return false
	}
}

// compareOrdered performs three-way comparison for numbers and dates.
// Returns 0 for other kinds.
func compareOrdered(k Kind, value Value, target Target) int {
	switch k {
	case KindNumber:
		switch {
		case value.Num < target.Num:
			return -1
		case value.Num > target.Num:
			return 1
		default:
			return 0
		}
	case KindDate:
		return value.Time.Compare(target.Time)
	default:
		return 0
	}
}

// compareRegex matches strings directly and sets element-wise (any match).
func compareRegex(k Kind, value Value, target Target) bool {
	if target.Pattern == nil {
		return false
	}
	switch k {
	case KindSet:
		for _, elem := range value.Set {
			if target.Pattern.MatchString(elem) {
				return true
			}
		}
		return false
	case KindString:
		return target.Pattern.MatchString(value.Str)
	default:
		return false
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// foldPrefix reports whether s begins with prefix under rune-wise upper-case
// mapping and returns the byte length of the matched part of s.
func foldPrefix(s, prefix string) (int, bool) {
	n := 0
	for prefix != "" {
		if s == "" {
			return 0, false
		}
		rs, ns := utf8.DecodeRuneInString(s)
		rp, np := utf8.DecodeRuneInString(prefix)
		if unicode.ToUpper(rs) != unicode.ToUpper(rp) {
			return 0, false
		}
		s, prefix = s[ns:], prefix[np:]
		n += ns
	}
	return n, true
}

func equalFold(a, b string) bool {
	return CompareFold(a, b) == 0
}

func hasPrefixFold(s, prefix string) bool {
	_, ok := foldPrefix(s, prefix)
	return ok
}

func hasSuffixFold(s, suffix string) bool {
	for i := range s {
		if n, ok := foldPrefix(s[i:], suffix); ok && i+n == len(s) {
			return true
		}
	}
	return suffix == ""
}

// containsFold reports whether substr is within s, ignoring case.
func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	for i := range s {
		if hasPrefixFold(s[i:], substr) {
			return true
		}
	}
	return false
}

// CompareFold is a case-insensitive ordinal three-way comparison: runes are
// upper-cased with simple case mapping and compared by code point.
func CompareFold(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		ua, ub := unicode.ToUpper(ra), unicode.ToUpper(rb)
		if ua != ub {
			if ua < ub {
				return -1
			}
			return 1
		}
		a, b = a[na:], b[nb:]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}
