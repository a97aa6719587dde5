// internal/rules/operand.go
package rules

import (
	"math"
	"path/filepath"
	"slices"
	"time"

	"github.com/solatis/smartplaylist/internal/types"
)

/*
 * Operand construction.
 *
 * An Operand is a flattened, read-only snapshot of one item as seen by one
 * user. Every field in the table is populated; attributes the library does
 * not know are stored as missing values with the kind's default (empty
 * string, empty set, zero number, zero time, false).
 *
 * Missing vs zero: a CommunityRating of 0 and an unknown rating are different
 * for Equals (the unknown rating never equals anything), so each value carries
 * a Missing flag. Booleans have no missing state.
 */

// Value is a typed field value inside an Operand.
type Value struct {
	Str     string
	Num     float64
	Time    time.Time
	Bool    bool
	Set     []string
	Missing bool
}

// Operand is the per-item snapshot predicates run against.
type Operand struct {
	id     types.ItemID
	values [fieldCount]Value
}

// ItemID returns the identifier of the item the operand was built from.
func (o *Operand) ItemID() types.ItemID {
	return o.id
}

// Get returns a copy of the value of field f.
func (o *Operand) Get(f Field) Value {
	v := o.values[f]
	v.Set = slices.Clone(v.Set)
	return v
}

// NewOperand builds the operand for item as seen by user.
// lib may be nil, in which case user-scoped fields take their defaults.
func NewOperand(lib types.Library, item types.Item, user types.User) *Operand {
	o := &Operand{id: item.ID}

	o.values[FieldTitle] = stringValue(item.Name)
	o.values[FieldAlbum] = stringValue(item.Album)
	o.values[FieldSeriesName] = stringValue(item.SeriesName)
	o.values[FieldMediaType] = stringValue(item.MediaType)
	o.values[FieldOfficialRating] = stringValue(item.OfficialRating)
	o.values[FieldPath] = stringValue(item.Path)
	o.values[FieldParentPath] = stringValue(ContainingFolder(item))

	if item.ProductionYear != nil {
		o.values[FieldProductionYear] = numberValue(float64(*item.ProductionYear))
	} else {
		o.values[FieldProductionYear] = missingNumber()
	}
	o.values[FieldCommunityRating] = optionalNumber(item.CommunityRating)
	o.values[FieldCriticRating] = optionalNumber(item.CriticRating)
	if item.RunTime > 0 {
		o.values[FieldRuntimeMinutes] = numberValue(item.RunTime.Minutes())
	} else {
		o.values[FieldRuntimeMinutes] = missingNumber()
	}

	o.values[FieldPremiereDate] = optionalDate(item.PremiereDate)
	o.values[FieldDateCreated] = dateValue(item.DateCreated)

	o.values[FieldGenres] = setValue(item.Genres)
	o.values[FieldTags] = setValue(item.Tags)
	o.values[FieldStudios] = setValue(item.Studios)
	o.values[FieldPeople] = setValue(item.People)
	o.values[FieldArtists] = setValue(item.Artists)

	var ud types.UserData
	if lib != nil && user.ID != "" {
		ud, _ = lib.UserData(item.ID, user.ID)
	}
	o.values[FieldIsPlayed] = Value{Bool: ud.Played}
	o.values[FieldIsFavorite] = Value{Bool: ud.IsFavorite}
	o.values[FieldPlayCount] = numberValue(float64(ud.PlayCount))
	o.values[FieldLastPlayedDate] = optionalDate(ud.LastPlayedDate)

	return o
}

// ContainingFolder returns the folder the item lives in, derived from Path
// when the library did not supply it.
func ContainingFolder(item types.Item) string {
	if item.ContainingFolderPath != "" {
		return item.ContainingFolderPath
	}
	if item.Path == "" {
		return ""
	}
	return filepath.Dir(item.Path)
}

func stringValue(s string) Value {
	return Value{Str: s, Missing: s == ""}
}

func numberValue(n float64) Value {
	return Value{Num: n}
}

// missingNumber sorts below every real number.
func missingNumber() Value {
	return Value{Num: math.Inf(-1), Missing: true}
}

func optionalNumber(n *float64) Value {
	if n == nil {
		return missingNumber()
	}
	return numberValue(*n)
}

func dateValue(t time.Time) Value {
	return Value{Time: t, Missing: t.IsZero()}
}

func optionalDate(t *time.Time) Value {
	if t == nil {
		return Value{Missing: true}
	}
	return dateValue(*t)
}

// setValue copies s so the operand does not alias the item's slices.
func setValue(s []string) Value {
	return Value{Set: slices.Clone(s), Missing: len(s) == 0}
}
