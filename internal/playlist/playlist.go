// Package playlist turns stored smart playlist definitions into ordered item
// lists.
//
// A SmartPlaylist is built once from a Definition and is immutable afterwards.
// FilterPlaylistItems recompiles the rules on every call, streams candidate
// items one at a time, orders the survivors and returns their IDs. Capping the
// result at MaxItems is the caller's next step (see Limit), applied after
// ordering so the order reflects the full matched set.
package playlist

import (
	"errors"
	"fmt"
	"iter"

	"github.com/solatis/smartplaylist/internal/order"
	"github.com/solatis/smartplaylist/internal/rules"
	"github.com/solatis/smartplaylist/internal/types"
)

// OrderDto names the order strategy in a stored definition.
type OrderDto struct {
	Name string `json:"Name"`
}

// Definition is the persisted shape of a smart playlist.
type Definition struct {
	ID             types.PlaylistID  `json:"Id"`
	Name           string            `json:"Name"`
	FileName       string            `json:"FileName"`
	User           types.UserID      `json:"User"`
	ExpressionSets types.RuleSetList `json:"ExpressionSets"`
	MaxItems       int               `json:"MaxItems"`
	Order          OrderDto          `json:"Order"`
}

// SmartPlaylist is a normalized, ready-to-evaluate playlist definition.
type SmartPlaylist struct {
	ID             types.PlaylistID
	Name           string
	FileName       string
	User           types.UserID
	ExpressionSets types.RuleSetList
	MaxItems       int
	Order          order.Strategy
}

// New normalizes def: rule sets go through rules.FixRuleSets, non-positive
// MaxItems becomes types.DefaultMaxItems and unknown order names become
// order.NoOrder.
func New(def Definition) *SmartPlaylist {
	maxItems := def.MaxItems
	if maxItems <= 0 {
		maxItems = types.DefaultMaxItems
	}
	return &SmartPlaylist{
		ID:             def.ID,
		Name:           def.Name,
		FileName:       def.FileName,
		User:           def.User,
		ExpressionSets: rules.FixRuleSets(def.ExpressionSets),
		MaxItems:       maxItems,
		Order:          order.Lookup(def.Order.Name),
	}
}

// Dto converts the playlist back to its persisted shape.
func (p *SmartPlaylist) Dto() Definition {
	return Definition{
		ID:             p.ID,
		Name:           p.Name,
		FileName:       p.FileName,
		User:           p.User,
		ExpressionSets: rules.FixRuleSets(p.ExpressionSets),
		MaxItems:       p.MaxItems,
		Order:          OrderDto{Name: p.Order.Name()},
	}
}

// Validate compiles the rule sets without evaluating anything.
func (p *SmartPlaylist) Validate() error {
	_, err := p.compile()
	return err
}

// FilterPlaylistItems returns the IDs of items matching the playlist rules,
// ordered by the playlist's strategy. The result is not truncated to MaxItems.
//
// A rule that fails to compile aborts the call with a *types.ConfigurationError
// naming the playlist and the offending expression. An error yielded by items
// aborts the call as well; no partial result is returned in either case.
func (p *SmartPlaylist) FilterPlaylistItems(items iter.Seq2[types.Item, error], lib types.Library, user types.User) ([]types.ItemID, error) {
	compiled, err := p.compile()
	if err != nil {
		return nil, err
	}

	engine := rules.NewEngine(lib)
	var matched []types.Item
	for item, err := range items {
		if err != nil {
			return nil, fmt.Errorf("playlist %s: reading items: %w", p.ID, err)
		}
		if engine.Match(compiled, item, user) {
			matched = append(matched, item)
		}
	}

	ordered := p.Order.OrderBy(matched)
	ids := make([]types.ItemID, len(ordered))
	for i, item := range ordered {
		ids[i] = item.ID
	}
	return ids, nil
}

// compile recompiles the stored rule sets, tagging errors with the playlist ID.
func (p *SmartPlaylist) compile() (rules.CompiledRuleSets, error) {
	compiled, err := rules.CompileRuleSets(p.ExpressionSets)
	if err != nil {
		var cfgErr *types.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.PlaylistID = p.ID
		}
		return nil, err
	}
	return compiled, nil
}

// Limit caps ids at maxItems. Non-positive maxItems means no cap.
// Apply it after FilterPlaylistItems, before persisting or rendering.
func Limit(ids []types.ItemID, maxItems int) []types.ItemID {
	if maxItems <= 0 || len(ids) <= maxItems {
		return ids
	}
	return ids[:maxItems]
}
