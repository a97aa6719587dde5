// internal/rules/normalize.go
package rules

import (
	"strings"

	"github.com/solatis/smartplaylist/internal/types"
)

/*
 * Rule set normalization.
 *
 * FixRuleSets repairs rule input saved by older releases or hand-edited
 * definitions into the canonical shape the compiler expects. It never fails:
 * anything it cannot repair (an unknown field, an unparseable literal) passes
 * through unchanged and is reported by compilation.
 *
 * Repairs:
 *   - blank expressions (no field and no operator) are dropped
 *   - field and operator are trimmed; values are kept verbatim
 *   - legacy field and operator aliases are mapped to canonical names
 *   - a nil expression slice becomes an empty one (an "include everything" set)
 *
 * The input is never mutated; every set in the result owns a fresh slice.
 */

// fieldAliases maps lower-cased legacy names to canonical field names.
var fieldAliases = map[string]string{
	"name":                 "Title",
	"title":                "Title",
	"folderpath":           "ParentPath",
	"containingfolderpath": "ParentPath",
	"parentpath":           "ParentPath",
	"year":                 "ProductionYear",
	"releasedate":          "PremiereDate",
	"genre":                "Genres",
	"tag":                  "Tags",
	"studio":               "Studios",
	"person":               "People",
	"actor":                "People",
	"actors":               "People",
	"artist":               "Artists",
	"albumartist":          "Artists",
	"albumartists":         "Artists",
	"played":               "IsPlayed",
	"favorite":             "IsFavorite",
	"isfavoriteorliked":    "IsFavorite",
	"runtime":              "RuntimeMinutes",
	"itemtype":             "MediaType",
	"type":                 "MediaType",
	"rating":               "CommunityRating",
	"lastplayed":           "LastPlayedDate",
	"datelastplayed":       "LastPlayedDate",
	"added":                "DateCreated",
	"dateadded":            "DateCreated",
}

// operatorAliases maps lower-cased legacy operator spellings to canonical names.
var operatorAliases = map[string]string{
	"equal":                "Equals",
	"eq":                   "Equals",
	"==":                   "Equals",
	"=":                    "Equals",
	"stringequals":         "Equals",
	"notequal":             "NotEquals",
	"ne":                   "NotEquals",
	"!=":                   "NotEquals",
	"<>":                   "NotEquals",
	"stringnotequals":      "NotEquals",
	"gt":                   "GreaterThan",
	">":                    "GreaterThan",
	"lt":                   "LessThan",
	"<":                    "LessThan",
	"gte":                  "GreaterThanOrEqual",
	">=":                   "GreaterThanOrEqual",
	"greaterthanorequalto": "GreaterThanOrEqual",
	"lte":                  "LessThanOrEqual",
	"<=":                   "LessThanOrEqual",
	"lessthanorequalto":    "LessThanOrEqual",
	"stringcontains":       "Contains",
	"stringnotcontains":    "NotContains",
	"doesnotcontain":       "NotContains",
	"matches":              "MatchRegex",
	"regex":                "MatchRegex",
	"notmatches":           "NotMatchRegex",
	"true":                 "IsTrue",
	"false":                "IsFalse",
}

// FixRuleSets returns a canonical copy of sets.
func FixRuleSets(sets types.RuleSetList) types.RuleSetList {
	fixed := make(types.RuleSetList, 0, len(sets))
	for _, set := range sets {
		exprs := make([]types.Expression, 0, len(set.Expressions))
		for _, expr := range set.Expressions {
			field := strings.TrimSpace(expr.Field)
			operator := strings.TrimSpace(expr.Operator)
			if field == "" && operator == "" {
				continue
			}
			exprs = append(exprs, types.Expression{
				Field:    canonicalField(field),
				Operator: canonicalOperator(operator),
				Value:    expr.Value,
			})
		}
		fixed = append(fixed, types.ExpressionSet{Expressions: exprs})
	}
	return fixed
}

// canonicalField maps aliases and case variants to the canonical name.
// Unknown names are returned unchanged.
func canonicalField(name string) string {
	if canonical, ok := fieldAliases[strings.ToLower(name)]; ok {
		return canonical
	}
	if f, ok := LookupField(name); ok {
		return f.String()
	}
	return name
}

func canonicalOperator(name string) string {
	if canonical, ok := operatorAliases[strings.ToLower(name)]; ok {
		return canonical
	}
	if op, ok := LookupOperator(name); ok {
		return op.String()
	}
	return name
}
