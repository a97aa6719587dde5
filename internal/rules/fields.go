// internal/rules/fields.go
package rules

import "strings"

/*
 * Field table for rule evaluation.
 *
 * Closed set of queryable item attributes. Each field has a canonical name and
 * a value kind; the kind decides which operators are valid and how the target
 * literal is parsed. Lookup is case-insensitive so "title" and "Title" resolve
 * to the same field.
 *
 * Legacy names accepted by older playlist definitions are mapped in
 * normalize.go, not here: the compiler only sees canonical names once
 * FixRuleSets has run.
 */

// Kind is the value type of a field.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
	KindBool
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "boolean"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Field identifies one attribute of an Operand.
type Field int

const (
	FieldTitle Field = iota
	FieldAlbum
	FieldSeriesName
	FieldMediaType
	FieldOfficialRating
	FieldPath
	FieldParentPath
	FieldProductionYear
	FieldCommunityRating
	FieldCriticRating
	FieldRuntimeMinutes
	FieldPlayCount
	FieldPremiereDate
	FieldDateCreated
	FieldLastPlayedDate
	FieldIsPlayed
	FieldIsFavorite
	FieldGenres
	FieldTags
	FieldStudios
	FieldPeople
	FieldArtists

	fieldCount
)

type fieldSpec struct {
	name string
	kind Kind
}

var fieldSpecs = [fieldCount]fieldSpec{
	FieldTitle:           {"Title", KindString},
	FieldAlbum:           {"Album", KindString},
	FieldSeriesName:      {"SeriesName", KindString},
	FieldMediaType:       {"MediaType", KindString},
	FieldOfficialRating:  {"OfficialRating", KindString},
	FieldPath:            {"Path", KindString},
	FieldParentPath:      {"ParentPath", KindString},
	FieldProductionYear:  {"ProductionYear", KindNumber},
	FieldCommunityRating: {"CommunityRating", KindNumber},
	FieldCriticRating:    {"CriticRating", KindNumber},
	FieldRuntimeMinutes:  {"RuntimeMinutes", KindNumber},
	FieldPlayCount:       {"PlayCount", KindNumber},
	FieldPremiereDate:    {"PremiereDate", KindDate},
	FieldDateCreated:     {"DateCreated", KindDate},
	FieldLastPlayedDate:  {"LastPlayedDate", KindDate},
	FieldIsPlayed:        {"IsPlayed", KindBool},
	FieldIsFavorite:      {"IsFavorite", KindBool},
	FieldGenres:          {"Genres", KindSet},
	FieldTags:            {"Tags", KindSet},
	FieldStudios:         {"Studios", KindSet},
	FieldPeople:          {"People", KindSet},
	FieldArtists:         {"Artists", KindSet},
}

// fieldsByName is keyed by lower-cased canonical name.
var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		m[strings.ToLower(fieldSpecs[f].name)] = f
	}
	return m
}()

// LookupField resolves a field name case-insensitively.
func LookupField(name string) (Field, bool) {
	f, ok := fieldsByName[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// String returns the canonical field name.
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "Unknown"
	}
	return fieldSpecs[f].name
}

// Kind returns the value kind of the field.
func (f Field) Kind() Kind {
	return fieldSpecs[f].kind
}

// FieldNames lists canonical field names in declaration order.
func FieldNames() []string {
	names := make([]string, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		names = append(names, fieldSpecs[f].name)
	}
	return names
}
