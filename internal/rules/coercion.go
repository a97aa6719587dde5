// internal/rules/coercion.go
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/solatis/smartplaylist/internal/types"
	"github.com/spf13/cast"
)

/*
 * Target literal coercion.
 *
 * Expression values are stored as text. Compilation parses them once against
 * the kind of the referenced field so evaluation never has to:
 *   - NUMBER: float64, surrounding whitespace trimmed, empty rejected
 *   - DATE: any layout cast.ToTimeE understands, or a bare four-digit year
 *   - BOOLEAN: strconv.ParseBool forms ("true", "1", "F", ...)
 *   - STRING / SET: kept verbatim
 *   - MatchRegex / NotMatchRegex: compiled with regexp
 *
 * Every failure wraps types.ErrInvalidLiteral or types.ErrInvalidPattern; the
 * compiler attaches expression context.
 */

// Target is a parsed comparison literal.
type Target struct {
	Str     string
	Num     float64
	Time    time.Time
	Bool    bool
	Pattern *regexp.Regexp
}

// CoerceTarget parses literal for an operator applied to a field of kind k.
func CoerceTarget(literal string, k Kind, op Operator) (Target, error) {
	switch op {
	case OpIsTrue, OpIsFalse:
		return Target{}, nil
	case OpMatchRegex, OpNotMatchRegex:
		return coercePattern(literal)
	}

	switch k {
	case KindNumber:
		return coerceNumber(literal)
	case KindDate:
		return coerceDate(literal)
	case KindBool:
		return coerceBool(literal)
	default:
		return Target{Str: literal}, nil
	}
}

func coerceNumber(literal string) (Target, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return Target{}, fmt.Errorf("%w: empty number", types.ErrInvalidLiteral)
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q is not a number", types.ErrInvalidLiteral, literal)
	}
	return Target{Num: f}, nil
}

func coerceDate(literal string) (Target, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return Target{}, fmt.Errorf("%w: empty date", types.ErrInvalidLiteral)
	}
	if isYear(s) {
		t, err := time.Parse("2006", s)
		if err == nil {
			return Target{Time: t}, nil
		}
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q is not a date", types.ErrInvalidLiteral, literal)
	}
	return Target{Time: t.UTC()}, nil
}

func coerceBool(literal string) (Target, error) {
	b, err := cast.ToBoolE(strings.TrimSpace(literal))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q is not a boolean", types.ErrInvalidLiteral, literal)
	}
	return Target{Bool: b}, nil
}

func coercePattern(literal string) (Target, error) {
	if len(literal) > types.MaxPatternLength {
		return Target{}, fmt.Errorf("%w: pattern longer than %d characters", types.ErrInvalidPattern, types.MaxPatternLength)
	}
	re, err := regexp.Compile(literal)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", types.ErrInvalidPattern, err)
	}
	return Target{Str: literal, Pattern: re}, nil
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
