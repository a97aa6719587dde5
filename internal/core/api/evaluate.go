package api

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solatis/smartplaylist/internal/playlist"
	"github.com/solatis/smartplaylist/internal/types"
)

// Options adjust a single evaluation.
type Options struct {
	// User overrides the playlist owner as the user context.
	User types.UserID
	// NoLimit skips the MaxItems cap.
	NoLimit bool
	// Persist replaces the stored playlist contents with the result.
	Persist bool
}

// Result describes one evaluation.
type Result struct {
	PlaylistID types.PlaylistID
	Name       string
	Order      string
	MaxItems   int
	Matched    int
	Items      []types.ItemID
	Duration   time.Duration
}

// RefreshSummary counts the outcome of RefreshAll.
type RefreshSummary struct {
	Refreshed int
	Invalid   int
	Items     int
}

// Evaluate loads the stored playlist id and evaluates it.
func (s *PlaylistService) Evaluate(ctx context.Context, id types.PlaylistID, opts Options) (*Result, error) {
	def, err := s.store.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.EvaluateDefinition(ctx, def, opts)
}

// Refresh evaluates the stored playlist id and persists its contents.
func (s *PlaylistService) Refresh(ctx context.Context, id types.PlaylistID) (*Result, error) {
	return s.Evaluate(ctx, id, Options{Persist: true})
}

// EvaluateDefinition runs def against the library: filter and order every
// matching item, cap at MaxItems unless opts.NoLimit, then optionally
// persist.
func (s *PlaylistService) EvaluateDefinition(ctx context.Context, def playlist.Definition, opts Options) (*Result, error) {
	start := time.Now()

	if def.MaxItems <= 0 {
		def.MaxItems = s.cfg.DefaultMaxItems
	}
	p := playlist.New(def)

	userID := p.User
	if opts.User != "" {
		userID = opts.User
	}

	lib, err := s.store.UserLibrary(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids, err := p.FilterPlaylistItems(s.store.Items(ctx), lib, types.User{ID: userID})
	if err != nil {
		return nil, err
	}

	result := &Result{
		PlaylistID: p.ID,
		Name:       p.Name,
		Order:      p.Order.Name(),
		MaxItems:   p.MaxItems,
		Matched:    len(ids),
		Items:      ids,
	}
	if !opts.NoLimit {
		result.Items = playlist.Limit(ids, p.MaxItems)
	}

	if opts.Persist {
		if p.ID == "" {
			return nil, fmt.Errorf("cannot persist a playlist without an ID")
		}
		if err := s.store.ReplacePlaylistItems(ctx, p.ID, result.Items); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info().
		Str("playlist_id", string(p.ID)).
		Str("user_id", string(userID)).
		Str("order", result.Order).
		Int("matched", result.Matched).
		Int("items", len(result.Items)).
		Bool("persisted", opts.Persist).
		Dur("duration", result.Duration).
		Msg("playlist evaluated")

	return result, nil
}

// RefreshAll re-evaluates and persists every stored playlist, at most
// cfg.RefreshConcurrency at a time. A playlist with invalid rules is logged
// and counted; any other failure cancels the remaining work.
func (s *PlaylistService) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	defs, err := s.store.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	var refreshed, invalid, items atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RefreshConcurrency)

	for _, def := range defs {
		g.Go(func() error {
			res, err := s.EvaluateDefinition(gctx, def, Options{Persist: true})
			if errors.Is(err, types.ErrConfiguration) {
				invalid.Add(1)
				s.logger.Warn().Err(err).Str("playlist_id", string(def.ID)).Msg("skipping playlist with invalid rules")
				return nil
			}
			if err != nil {
				return fmt.Errorf("refreshing playlist %s: %w", def.ID, err)
			}
			refreshed.Add(1)
			items.Add(int64(len(res.Items)))
			return nil
		})
	}

	err = g.Wait()
	summary := &RefreshSummary{
		Refreshed: int(refreshed.Load()),
		Invalid:   int(invalid.Load()),
		Items:     int(items.Load()),
	}
	if err != nil {
		return summary, err
	}

	s.logger.Info().
		Int("playlists", len(defs)).
		Int("refreshed", summary.Refreshed).
		Int("invalid", summary.Invalid).
		Msg("refresh complete")
	return summary, nil
}

// ListPlaylists returns the definitions owned by user.
func (s *PlaylistService) ListPlaylists(ctx context.Context, user types.UserID) ([]playlist.Definition, error) {
	return s.store.ListPlaylistsByUser(ctx, user)
}
