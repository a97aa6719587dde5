// Package types provides domain models shared across SmartPlaylist components.
//
// Zero-dependency design: the item model, rule model and errors use only the
// standard library so the engine packages stay free of storage and transport
// concerns. ID utilities in ids.go import uuid but are isolated for reuse.
//
// Separation from storage: database row shapes live in internal/core/db and are
// converted to these types at the adapter boundary.
package types

import (
	"iter"
	"time"
)

// ItemID is the opaque identifier of a library item.
type ItemID string

// PlaylistID identifies a smart playlist definition.
type PlaylistID string

// UserID identifies a library user.
type UserID string

// Item is the subset of the host media metadata model the engine reads.
// Optional numeric and date metadata is nil when the library has no value.
type Item struct {
	ID                   ItemID
	Name                 string
	Album                string
	SeriesName           string
	MediaType            string
	OfficialRating       string
	Path                 string
	ContainingFolderPath string // empty means "derive from Path"
	ProductionYear       *int
	CommunityRating      *float64
	CriticRating         *float64
	RunTime              time.Duration
	PremiereDate         *time.Time
	DateCreated          time.Time
	Genres               []string
	Tags                 []string
	Studios              []string
	People               []string
	Artists              []string
}

// UserData holds per-user state for an item.
type UserData struct {
	Played         bool
	PlayCount      int
	IsFavorite     bool
	LastPlayedDate *time.Time
}

// User is the requesting user context.
type User struct {
	ID   UserID
	Name string
}

// Library resolves user-scoped item data.
// Implementations must not mutate library state.
type Library interface {
	UserData(item ItemID, user UserID) (UserData, bool)
}

// ItemSeq adapts an in-memory slice to the item stream shape consumed by
// the evaluator.
func ItemSeq(items ...Item) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// Engine limits.
const (
	// DefaultMaxItems replaces non-positive maxItems values in playlist definitions.
	DefaultMaxItems = 1000

	// MaxPatternLength bounds MatchRegex literals.
	MaxPatternLength = 1024
)
