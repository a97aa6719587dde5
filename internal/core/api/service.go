// Package api implements the playlist evaluation service and its gRPC surface.
package api

import (
	"context"
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	"github.com/solatis/smartplaylist/internal/core/config"
	"github.com/solatis/smartplaylist/internal/playlist"
	"github.com/solatis/smartplaylist/internal/types"
)

// Store is the persistence the service needs. Implemented by *db.Store.
type Store interface {
	Items(ctx context.Context) iter.Seq2[types.Item, error]
	UserLibrary(ctx context.Context, user types.UserID) (types.Library, error)
	GetPlaylist(ctx context.Context, id types.PlaylistID) (playlist.Definition, error)
	ListPlaylists(ctx context.Context) ([]playlist.Definition, error)
	ListPlaylistsByUser(ctx context.Context, user types.UserID) ([]playlist.Definition, error)
	ReplacePlaylistItems(ctx context.Context, id types.PlaylistID, items []types.ItemID) error
}

// PlaylistService evaluates stored and ad-hoc playlist definitions.
// Thin orchestration over playlist and the store; safe for concurrent use.
type PlaylistService struct {
	store  Store
	cfg    *config.PlaylistAPIConfig
	logger zerolog.Logger
}

// NewPlaylistService creates service instance with dependencies.
func NewPlaylistService(store Store, cfg *config.PlaylistAPIConfig, logger zerolog.Logger) (*PlaylistService, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}

	return &PlaylistService{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "playlist_service").Logger(),
	}, nil
}
