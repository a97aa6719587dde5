package playlist

import (
	"encoding/json"
	"errors"
	"iter"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/smartplaylist/internal/order"
	"github.com/solatis/smartplaylist/internal/types"
)

type mapLibrary map[types.ItemID]types.UserData

func (m mapLibrary) UserData(item types.ItemID, _ types.UserID) (types.UserData, bool) {
	ud, ok := m[item]
	return ud, ok
}

func intPtr(n int) *int { return &n }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func rulesOf(exprs ...types.Expression) types.RuleSetList {
	return types.RuleSetList{{Expressions: exprs}}
}

func TestFilterPlaylistItems(t *testing.T) {
	library := []types.Item{
		{ID: "a", Name: "Alpha", ProductionYear: intPtr(2018), Genres: []string{"Comedy"}, PremiereDate: datePtr(2020, 1, 1)},
		{ID: "b", Name: "Beta", ProductionYear: intPtr(2012), Genres: []string{"Comedy"}, PremiereDate: datePtr(2010, 1, 1)},
		{ID: "c", Name: "Gamma", ProductionYear: intPtr(2019), Genres: []string{"Drama"}},
		{ID: "d", Name: "Delta", ProductionYear: intPtr(2021), Genres: []string{"comedy", "Romance"}, PremiereDate: datePtr(2015, 6, 1)},
	}

	tests := []struct {
		name string
		def  Definition
		user types.User
		lib  types.Library
		want []types.ItemID
	}{
		{
			name: "release date ascending",
			def: Definition{
				ExpressionSets: rulesOf(types.Expression{Field: "Genres", Operator: "Contains", Value: "Comedy"}),
				Order:          OrderDto{Name: order.NameReleaseDateAsc},
			},
			want: []types.ItemID{"b", "d", "a"},
		},
		{
			name: "comedy after 2015",
			def: Definition{
				ExpressionSets: rulesOf(
					types.Expression{Field: "Genres", Operator: "Contains", Value: "Comedy"},
					types.Expression{Field: "ProductionYear", Operator: "GreaterThan", Value: "2015"},
				),
			},
			want: []types.ItemID{"a", "d"},
		},
		{
			name: "either set matches",
			def: Definition{
				ExpressionSets: types.RuleSetList{
					{Expressions: []types.Expression{{Field: "Genres", Operator: "Contains", Value: "Drama"}}},
					{Expressions: []types.Expression{{Field: "Title", Operator: "Equals", Value: "beta"}}},
				},
				Order: OrderDto{Name: order.NameEpisodeTitleDesc},
			},
			want: []types.ItemID{"c", "b"},
		},
		{
			name: "unknown order keeps library order",
			def: Definition{
				ExpressionSets: rulesOf(types.Expression{Field: "ProductionYear", Operator: ">", Value: "2000"}),
				Order:          OrderDto{Name: "Shuffle"},
			},
			want: []types.ItemID{"a", "b", "c", "d"},
		},
		{
			name: "user data",
			def: Definition{
				ExpressionSets: rulesOf(types.Expression{Field: "IsPlayed", Operator: "IsFalse"}),
			},
			user: types.User{ID: "u1"},
			lib:  mapLibrary{"a": {Played: true}, "c": {Played: true}},
			want: []types.ItemID{"b", "d"},
		},
		{
			name: "no rule sets",
			def:  Definition{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.def)
			got, err := p.FilterPlaylistItems(types.ItemSeq(library...), tt.lib, tt.user)
			if err != nil {
				t.Fatalf("FilterPlaylistItems error = %v", err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterPlaylistItems = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterPlaylistItems_ConfigurationError(t *testing.T) {
	id := types.NewPlaylistID()
	p := New(Definition{
		ID: id,
		ExpressionSets: rulesOf(
			types.Expression{Field: "Title", Operator: "Contains", Value: "x"},
			types.Expression{Field: "Director", Operator: "Equals", Value: "Nolan"},
		),
	})

	got, err := p.FilterPlaylistItems(types.ItemSeq(types.Item{ID: "a", Name: "x"}), nil, types.User{})
	if got != nil {
		t.Errorf("ids = %v, want nil", got)
	}
	var cfgErr *types.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *types.ConfigurationError", err)
	}
	if cfgErr.PlaylistID != id {
		t.Errorf("PlaylistID = %q, want %q", cfgErr.PlaylistID, id)
	}
	if cfgErr.ExpressionIndex != 1 {
		t.Errorf("ExpressionIndex = %d, want 1", cfgErr.ExpressionIndex)
	}
	if !errors.Is(err, types.ErrUnknownField) {
		t.Errorf("error = %v, want ErrUnknownField", err)
	}
	if err := p.Validate(); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("Validate() = %v, want ErrConfiguration", err)
	}
}

func TestFilterPlaylistItems_ManySets(t *testing.T) {
	sets := make(types.RuleSetList, 65)
	for i := range sets {
		sets[i] = types.ExpressionSet{Expressions: []types.Expression{{Field: "Title", Operator: "Contains", Value: "A"}}}
	}

	got, err := New(Definition{ExpressionSets: sets}).FilterPlaylistItems(types.ItemSeq(types.Item{ID: "a", Name: "Alpha"}), nil, types.User{})
	if err != nil {
		t.Fatalf("FilterPlaylistItems error = %v", err)
	}
	if !reflect.DeepEqual(got, []types.ItemID{"a"}) {
		t.Errorf("ids = %v, want [a]", got)
	}
}

func TestFilterPlaylistItems_SourceError(t *testing.T) {
	boom := errors.New("cursor closed")
	var items iter.Seq2[types.Item, error] = func(yield func(types.Item, error) bool) {
		if !yield(types.Item{ID: "a", Name: "Alpha"}, nil) {
			return
		}
		yield(types.Item{}, boom)
	}

	p := New(Definition{ExpressionSets: rulesOf()})
	got, err := p.FilterPlaylistItems(items, nil, types.User{})
	if got != nil {
		t.Errorf("ids = %v, want nil", got)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped source error", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		maxItems int
		want     int
	}{
		{0, types.DefaultMaxItems},
		{-5, types.DefaultMaxItems},
		{5, 5},
	}
	for _, tt := range tests {
		if got := New(Definition{MaxItems: tt.maxItems}).MaxItems; got != tt.want {
			t.Errorf("New(MaxItems=%d).MaxItems = %d, want %d", tt.maxItems, got, tt.want)
		}
	}

	p := New(Definition{
		ExpressionSets: rulesOf(types.Expression{Field: " year ", Operator: "gte", Value: "2000"}),
		Order:          OrderDto{Name: "Unknown"},
	})
	if p.Order.Name() != order.NameNoOrder {
		t.Errorf("Order = %q, want NoOrder", p.Order.Name())
	}
	want := types.Expression{Field: "ProductionYear", Operator: "GreaterThanOrEqual", Value: "2000"}
	if p.ExpressionSets[0].Expressions[0] != want {
		t.Errorf("expression = %+v, want %+v", p.ExpressionSets[0].Expressions[0], want)
	}
}

func TestDto(t *testing.T) {
	def := Definition{
		ID:             types.NewPlaylistID(),
		Name:           "Recent comedies",
		FileName:       "recent-comedies.json",
		User:           "u1",
		ExpressionSets: rulesOf(types.Expression{Field: "Genres", Operator: "Contains", Value: "Comedy"}),
		MaxItems:       25,
		Order:          OrderDto{Name: order.NameReleaseDateDesc},
	}

	got := New(def).Dto()
	if !reflect.DeepEqual(got, def) {
		t.Errorf("Dto() = %+v, want %+v", got, def)
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	var decoded Definition
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if !reflect.DeepEqual(decoded, def) {
		t.Errorf("decoded = %+v, want %+v", decoded, def)
	}
}

func TestDefinitionJSON(t *testing.T) {
	raw := `{
		"Id": "0190a3c4-5b6d-7e8f-9a0b-1c2d3e4f5a6b",
		"Name": "Unwatched",
		"User": "u1",
		"ExpressionSets": [
			{"Expressions": [{"MemberName": "IsPlayed", "Operator": "IsFalse", "TargetValue": ""}]}
		],
		"MaxItems": 0,
		"Order": {"Name": "NoOrder"}
	}`

	var def Definition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if def.ExpressionSets[0].Expressions[0].Field != "IsPlayed" {
		t.Errorf("Field = %q, want IsPlayed", def.ExpressionSets[0].Expressions[0].Field)
	}
	if err := New(def).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLimit(t *testing.T) {
	ids := []types.ItemID{"a", "b", "c"}

	tests := []struct {
		maxItems int
		want     []types.ItemID
	}{
		{0, ids},
		{-1, ids},
		{2, []types.ItemID{"a", "b"}},
		{3, ids},
		{10, ids},
	}
	for _, tt := range tests {
		if got := Limit(ids, tt.maxItems); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Limit(%d) = %v, want %v", tt.maxItems, got, tt.want)
		}
	}
}

// Properties over randomly generated libraries.
func TestFilterPlaylistItems_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	genres := []string{"Comedy", "Drama", "Horror"}
	build := func(years []int) []types.Item {
		items := make([]types.Item, len(years))
		for i, y := range years {
			items[i] = types.Item{
				ID:             types.NewItemID(),
				Name:           genres[i%len(genres)],
				ProductionYear: intPtr(y),
				Genres:         []string{genres[y%len(genres)]},
			}
		}
		return items
	}

	properties.Property("result is a subset of the input without duplicates", prop.ForAll(
		func(years []int, threshold int) bool {
			items := build(years)
			p := New(Definition{
				ExpressionSets: rulesOf(types.Expression{Field: "ProductionYear", Operator: "GreaterThan", Value: strconv.Itoa(threshold)}),
				Order:          OrderDto{Name: order.NameEpisodeTitleAsc},
			})
			got, err := p.FilterPlaylistItems(types.ItemSeq(items...), nil, types.User{})
			if err != nil {
				return false
			}
			known := make(map[types.ItemID]int)
			want := 0
			for _, it := range items {
				known[it.ID] = *it.ProductionYear
				if *it.ProductionYear > threshold {
					want++
				}
			}
			seen := make(map[types.ItemID]bool)
			for _, id := range got {
				year, ok := known[id]
				if !ok || seen[id] || year <= threshold {
					return false
				}
				seen[id] = true
			}
			return len(got) == want
		},
		gen.SliceOf(gen.IntRange(1950, 2030)),
		gen.IntRange(1950, 2030),
	))

	properties.Property("OR of sets is the union of each set alone", prop.ForAll(
		func(years []int) bool {
			items := build(years)
			run := func(sets types.RuleSetList) map[types.ItemID]bool {
				got, err := New(Definition{ExpressionSets: sets}).FilterPlaylistItems(types.ItemSeq(items...), nil, types.User{})
				if err != nil {
					return nil
				}
				out := make(map[types.ItemID]bool, len(got))
				for _, id := range got {
					out[id] = true
				}
				return out
			}
			comedy := types.ExpressionSet{Expressions: []types.Expression{{Field: "Genres", Operator: "Contains", Value: "Comedy"}}}
			late := types.ExpressionSet{Expressions: []types.Expression{{Field: "ProductionYear", Operator: ">=", Value: "2000"}}}

			union := run(types.RuleSetList{comedy, late})
			left, right := run(types.RuleSetList{comedy}), run(types.RuleSetList{late})
			for id := range left {
				right[id] = true
			}
			return reflect.DeepEqual(union, right)
		},
		gen.SliceOf(gen.IntRange(1950, 2030)),
	))

	properties.TestingRun(t)
}
