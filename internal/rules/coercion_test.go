// internal/rules/coercion_test.go
package rules

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/smartplaylist/internal/types"
)

func TestCoerceTarget_Number(t *testing.T) {
	tests := []struct {
		literal string
		want    float64
		wantErr bool
	}{
		{"2015", 2015, false},
		{" 7.5 ", 7.5, false},
		{"-3", -3, false},
		{"0", 0, false},
		{"1e3", 1000, false},
		{"", 0, true},
		{"   ", 0, true},
		{"abc", 0, true},
		{"12abc", 0, true},
	}

	for _, tt := range tests {
		got, err := CoerceTarget(tt.literal, KindNumber, OpGreaterThan)
		if (err != nil) != tt.wantErr {
			t.Errorf("CoerceTarget(%q) error = %v, wantErr %v", tt.literal, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, types.ErrInvalidLiteral) {
				t.Errorf("CoerceTarget(%q) error = %v, want ErrInvalidLiteral", tt.literal, err)
			}
			continue
		}
		if got.Num != tt.want {
			t.Errorf("CoerceTarget(%q).Num = %v, want %v", tt.literal, got.Num, tt.want)
		}
	}
}

func TestCoerceTarget_Date(t *testing.T) {
	tests := []struct {
		literal string
		want    time.Time
		wantErr bool
	}{
		{"2020", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"2020-06-15", time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"2020-06-15T10:30:00Z", time.Date(2020, 6, 15, 10, 30, 0, 0, time.UTC), false},
		{"2020-06-15T10:30:00+02:00", time.Date(2020, 6, 15, 8, 30, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"yesterday", time.Time{}, true},
		{"2020-13-45", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := CoerceTarget(tt.literal, KindDate, OpLessThan)
		if (err != nil) != tt.wantErr {
			t.Errorf("CoerceTarget(%q) error = %v, wantErr %v", tt.literal, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, types.ErrInvalidLiteral) {
				t.Errorf("CoerceTarget(%q) error = %v, want ErrInvalidLiteral", tt.literal, err)
			}
			continue
		}
		if !got.Time.Equal(tt.want) {
			t.Errorf("CoerceTarget(%q).Time = %v, want %v", tt.literal, got.Time, tt.want)
		}
	}
}

func TestCoerceTarget_Bool(t *testing.T) {
	tests := []struct {
		literal string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"True", true, false},
		{"1", true, false},
		{"false", false, false},
		{" F ", false, false},
		{"yes", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		got, err := CoerceTarget(tt.literal, KindBool, OpEquals)
		if (err != nil) != tt.wantErr {
			t.Errorf("CoerceTarget(%q) error = %v, wantErr %v", tt.literal, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got.Bool != tt.want {
			t.Errorf("CoerceTarget(%q).Bool = %v, want %v", tt.literal, got.Bool, tt.want)
		}
	}
}

func TestCoerceTarget_IsTrueIgnoresLiteral(t *testing.T) {
	for _, op := range []Operator{OpIsTrue, OpIsFalse} {
		if _, err := CoerceTarget("not a bool", KindBool, op); err != nil {
			t.Errorf("CoerceTarget(%s) error = %v, want nil", op, err)
		}
	}
}

func TestCoerceTarget_StringVerbatim(t *testing.T) {
	got, err := CoerceTarget("  Spaced Out  ", KindString, OpEquals)
	if err != nil {
		t.Fatalf("CoerceTarget error = %v", err)
	}
	if got.Str != "  Spaced Out  " {
		t.Errorf("Str = %q, want verbatim literal", got.Str)
	}
}

func TestCoerceTarget_Pattern(t *testing.T) {
	tests := []struct {
		literal string
		wantErr bool
	}{
		{"^The ", false},
		{"(?i)star.*wars", false},
		{"", false},
		{"[unclosed", true},
		{"a(b", true},
		{strings.Repeat("a", types.MaxPatternLength+1), true},
	}

	for _, tt := range tests {
		got, err := CoerceTarget(tt.literal, KindString, OpMatchRegex)
		if (err != nil) != tt.wantErr {
			t.Errorf("CoerceTarget(%.20q) error = %v, wantErr %v", tt.literal, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, types.ErrInvalidPattern) {
				t.Errorf("CoerceTarget(%.20q) error = %v, want ErrInvalidPattern", tt.literal, err)
			}
			continue
		}
		if got.Pattern == nil {
			t.Errorf("CoerceTarget(%q).Pattern = nil", tt.literal)
		}
	}
}

func TestCoerceTarget_PatternOnNumberKind(t *testing.T) {
	// Regex operators parse a pattern regardless of kind; Supports rejects
	// the combination before CoerceTarget is reached during compilation.
	if _, err := CoerceTarget("[0-9]+", KindNumber, OpMatchRegex); err != nil {
		t.Errorf("CoerceTarget error = %v, want nil", err)
	}
}

// Property: every integer round-trips through number coercion.
func TestCoerceTarget_IntegerProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("integer literals parse exactly", prop.ForAll(
		func(n int) bool {
			got, err := CoerceTarget(" "+strconv.Itoa(n)+" ", KindNumber, OpEquals)
			return err == nil && got.Num == float64(n)
		},
		gen.IntRange(-1_000_000, 1_000_000),
	))

	properties.Property("four-digit years parse to January 1st UTC", prop.ForAll(
		func(year int) bool {
			got, err := CoerceTarget(strconv.Itoa(year), KindDate, OpGreaterThan)
			return err == nil && got.Time.Equal(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC))
		},
		gen.IntRange(1000, 9999),
	))

	properties.TestingRun(t)
}
