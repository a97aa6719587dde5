package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for SmartPlaylist operations.
var (
	// ErrConfiguration marks every rule definition error. ConfigurationError matches it.
	ErrConfiguration = errors.New("invalid playlist configuration")

	// ErrUnknownField indicates an expression references a field outside the recognized set.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidOperator indicates an unknown operator or one incompatible with the field type.
	ErrInvalidOperator = errors.New("invalid operator for field type")

	// ErrInvalidPattern indicates a MatchRegex literal that does not compile.
	ErrInvalidPattern = errors.New("invalid regular expression")

	// ErrInvalidLiteral indicates a target value that cannot be parsed as the field type.
	ErrInvalidLiteral = errors.New("unparseable target value")

	// ErrPlaylistNotFound indicates no stored definition has the requested ID.
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// ConfigurationError reports a rule that cannot be compiled.
// SetIndex and ExpressionIndex locate the offending expression; both are -1
// until CompileRuleSets fills them in.
type ConfigurationError struct {
	PlaylistID      PlaylistID
	SetIndex        int
	ExpressionIndex int
	Expression      Expression
	Err             error
}

func (e *ConfigurationError) Error() string {
	msg := "invalid rule"
	if e.PlaylistID != "" {
		msg = fmt.Sprintf("playlist %s: invalid rule", e.PlaylistID)
	}
	if e.SetIndex >= 0 {
		msg = fmt.Sprintf("%s in set %d", msg, e.SetIndex)
	}
	if e.ExpressionIndex >= 0 {
		msg = fmt.Sprintf("%s, expression %d", msg, e.ExpressionIndex)
	}
	if e.Expression != (Expression{}) {
		msg = fmt.Sprintf("%s (%s %s %q)", msg, e.Expression.Field, e.Expression.Operator, e.Expression.Value)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap exposes the underlying sentinel (ErrUnknownField, ErrInvalidOperator, ...).
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports ErrConfiguration as a match so callers can test the whole class.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
