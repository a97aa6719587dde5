package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/smartplaylist/internal/playlist"
	"github.com/solatis/smartplaylist/internal/types"
)

// Store is the SQL-backed library and playlist repository.
type Store struct {
	db      *sqlx.DB
	queries *Queries
}

// NewStore loads the named queries for db.
func NewStore(db *sqlx.DB) (*Store, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, queries: queries}, nil
}

// Queries exposes the named query set for callers such as auth.
func (s *Store) Queries() *Queries {
	return s.queries
}

// stringList is a JSON array stored in a TEXT column.
type stringList []string

func (l *stringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("stringList: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// itemRow mirrors media_items.
type itemRow struct {
	ID                   string          `db:"item_id"`
	Name                 string          `db:"name"`
	Album                string          `db:"album"`
	SeriesName           string          `db:"series_name"`
	MediaType            string          `db:"media_type"`
	OfficialRating       string          `db:"official_rating"`
	Path                 string          `db:"path"`
	ContainingFolderPath string          `db:"containing_folder_path"`
	ProductionYear       sql.NullInt64   `db:"production_year"`
	CommunityRating      sql.NullFloat64 `db:"community_rating"`
	CriticRating         sql.NullFloat64 `db:"critic_rating"`
	RuntimeSeconds       int64           `db:"runtime_seconds"`
	PremiereDateMs       sql.NullInt64   `db:"premiere_date_ms"`
	DateCreatedMs        int64           `db:"date_created_ms"`
	Genres               stringList      `db:"genres"`
	Tags                 stringList      `db:"tags"`
	Studios              stringList      `db:"studios"`
	People               stringList      `db:"people"`
	Artists              stringList      `db:"artists"`
}

func (r *itemRow) item() types.Item {
	it := types.Item{
		ID:                   types.ItemID(r.ID),
		Name:                 r.Name,
		Album:                r.Album,
		SeriesName:           r.SeriesName,
		MediaType:            r.MediaType,
		OfficialRating:       r.OfficialRating,
		Path:                 r.Path,
		ContainingFolderPath: r.ContainingFolderPath,
		RunTime:              time.Duration(r.RuntimeSeconds) * time.Second,
		PremiereDate:         fromMillis(r.PremiereDateMs),
		DateCreated:          time.UnixMilli(r.DateCreatedMs).UTC(),
		Genres:               r.Genres,
		Tags:                 r.Tags,
		Studios:              r.Studios,
		People:               r.People,
		Artists:              r.Artists,
	}
	if r.ProductionYear.Valid {
		year := int(r.ProductionYear.Int64)
		it.ProductionYear = &year
	}
	if r.CommunityRating.Valid {
		rating := r.CommunityRating.Float64
		it.CommunityRating = &rating
	}
	if r.CriticRating.Valid {
		rating := r.CriticRating.Float64
		it.CriticRating = &rating
	}
	return it
}

// Items streams every library item, one row at a time.
// Iteration stops at the first scan or cursor error, which is yielded once.
func (s *Store) Items(ctx context.Context) iter.Seq2[types.Item, error] {
	return func(yield func(types.Item, error) bool) {
		rows, err := s.queries.Queryx(ctx, "list-items")
		if err != nil {
			yield(types.Item{}, fmt.Errorf("listing items: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var r itemRow
			if err := rows.StructScan(&r); err != nil {
				yield(types.Item{}, fmt.Errorf("scanning item: %w", err))
				return
			}
			if !yield(r.item(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(types.Item{}, fmt.Errorf("listing items: %w", err))
		}
	}
}

// CountItems returns the number of library items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.queries.Get(ctx, "count-items", &n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// UpsertItem inserts or replaces a library item.
func (s *Store) UpsertItem(ctx context.Context, it types.Item) error {
	if it.ID == "" {
		return fmt.Errorf("item ID is required")
	}
	var year sql.NullInt64
	if it.ProductionYear != nil {
		year = sql.NullInt64{Int64: int64(*it.ProductionYear), Valid: true}
	}
	_, err := s.queries.Exec(ctx, "upsert-item",
		string(it.ID), it.Name, it.Album, it.SeriesName, it.MediaType, it.OfficialRating, it.Path,
		it.ContainingFolderPath, year, nullFloat(it.CommunityRating), nullFloat(it.CriticRating),
		int64(it.RunTime/time.Second), toMillis(it.PremiereDate), it.DateCreated.UnixMilli(),
		stringList(it.Genres), stringList(it.Tags), stringList(it.Studios), stringList(it.People), stringList(it.Artists),
	)
	if err != nil {
		return fmt.Errorf("upserting item %s: %w", it.ID, err)
	}
	return nil
}

// userDataRow mirrors user_data for one user.
type userDataRow struct {
	ItemID       string        `db:"item_id"`
	Played       bool          `db:"played"`
	PlayCount    int           `db:"play_count"`
	IsFavorite   bool          `db:"is_favorite"`
	LastPlayedMs sql.NullInt64 `db:"last_played_ms"`
}

// SetUserData records per-user state for an item.
func (s *Store) SetUserData(ctx context.Context, user types.UserID, item types.ItemID, data types.UserData) error {
	_, err := s.queries.Exec(ctx, "upsert-user-data",
		string(user), string(item), data.Played, data.PlayCount, data.IsFavorite, toMillis(data.LastPlayedDate))
	if err != nil {
		return fmt.Errorf("setting user data for %s/%s: %w", user, item, err)
	}
	return nil
}

// userDataIndex is an in-memory snapshot of one user's data.
type userDataIndex struct {
	user types.UserID
	data map[types.ItemID]types.UserData
}

func (x *userDataIndex) UserData(item types.ItemID, user types.UserID) (types.UserData, bool) {
	if user != x.user {
		return types.UserData{}, false
	}
	d, ok := x.data[item]
	return d, ok
}

// UserLibrary snapshots all of user's data into a types.Library.
// An empty user yields a library with no data.
func (s *Store) UserLibrary(ctx context.Context, user types.UserID) (types.Library, error) {
	idx := &userDataIndex{user: user, data: make(map[types.ItemID]types.UserData)}
	if user == "" {
		return idx, nil
	}

	var rows []userDataRow
	if err := s.queries.Select(ctx, "list-user-data", &rows, string(user)); err != nil {
		return nil, fmt.Errorf("loading user data for %s: %w", user, err)
	}
	for _, r := range rows {
		idx.data[types.ItemID(r.ItemID)] = types.UserData{
			Played:         r.Played,
			PlayCount:      r.PlayCount,
			IsFavorite:     r.IsFavorite,
			LastPlayedDate: fromMillis(r.LastPlayedMs),
		}
	}
	return idx, nil
}

// playlistRow mirrors playlists.
type playlistRow struct {
	ID         string `db:"playlist_id"`
	Name       string `db:"name"`
	FileName   string `db:"file_name"`
	UserID     string `db:"user_id"`
	Definition string `db:"definition"`
	CreatedMs  int64  `db:"created_ms"`
	UpdatedMs  int64  `db:"updated_ms"`
}

func (r *playlistRow) definition() (playlist.Definition, error) {
	var def playlist.Definition
	if err := json.Unmarshal([]byte(r.Definition), &def); err != nil {
		return playlist.Definition{}, fmt.Errorf("decoding playlist %s: %w", r.ID, err)
	}
	// Columns are authoritative for identity
	def.ID = types.PlaylistID(r.ID)
	def.Name = r.Name
	def.FileName = r.FileName
	def.User = types.UserID(r.UserID)
	return def, nil
}

// GetPlaylist loads a stored definition. Returns types.ErrPlaylistNotFound
// when no playlist has the ID.
func (s *Store) GetPlaylist(ctx context.Context, id types.PlaylistID) (playlist.Definition, error) {
	var row playlistRow
	err := s.queries.Get(ctx, "get-playlist", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return playlist.Definition{}, fmt.Errorf("playlist %s: %w", id, types.ErrPlaylistNotFound)
	}
	if err != nil {
		return playlist.Definition{}, fmt.Errorf("loading playlist %s: %w", id, err)
	}
	return row.definition()
}

// ListPlaylists returns every stored definition ordered by ID.
func (s *Store) ListPlaylists(ctx context.Context) ([]playlist.Definition, error) {
	var rows []playlistRow
	if err := s.queries.Select(ctx, "list-playlists", &rows); err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	return decodePlaylists(rows)
}

// ListPlaylistsByUser returns the definitions owned by user.
func (s *Store) ListPlaylistsByUser(ctx context.Context, user types.UserID) ([]playlist.Definition, error) {
	var rows []playlistRow
	if err := s.queries.Select(ctx, "list-playlists-by-user", &rows, string(user)); err != nil {
		return nil, fmt.Errorf("listing playlists for %s: %w", user, err)
	}
	return decodePlaylists(rows)
}

func decodePlaylists(rows []playlistRow) ([]playlist.Definition, error) {
	defs := make([]playlist.Definition, 0, len(rows))
	for i := range rows {
		def, err := rows[i].definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// SavePlaylist stores def, assigning a new ID when def has none.
func (s *Store) SavePlaylist(ctx context.Context, def playlist.Definition) (types.PlaylistID, error) {
	if def.ID == "" {
		def.ID = types.NewPlaylistID()
	}
	if def.User == "" {
		return "", fmt.Errorf("playlist %s: owner is required", def.ID)
	}

	body, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("encoding playlist %s: %w", def.ID, err)
	}

	now := time.Now().UnixMilli()
	_, err = s.queries.Exec(ctx, "upsert-playlist",
		string(def.ID), def.Name, def.FileName, string(def.User), string(body), now, now)
	if err != nil {
		return "", fmt.Errorf("saving playlist %s: %w", def.ID, err)
	}
	return def.ID, nil
}

// DeletePlaylist removes a definition and its materialized items.
func (s *Store) DeletePlaylist(ctx context.Context, id types.PlaylistID) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.queries.ExecTx(ctx, tx, "delete-playlist-items", string(id)); err != nil {
			return err
		}
		res, err := s.queries.ExecTx(ctx, tx, "delete-playlist", string(id))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("playlist %s: %w", id, types.ErrPlaylistNotFound)
		}
		return nil
	})
}

// ReplacePlaylistItems swaps the materialized contents of a playlist.
func (s *Store) ReplacePlaylistItems(ctx context.Context, id types.PlaylistID, items []types.ItemID) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.queries.ExecTx(ctx, tx, "delete-playlist-items", string(id)); err != nil {
			return fmt.Errorf("clearing playlist %s: %w", id, err)
		}
		for pos, item := range items {
			if _, err := s.queries.ExecTx(ctx, tx, "insert-playlist-item", string(id), pos, string(item)); err != nil {
				return fmt.Errorf("writing playlist %s item %d: %w", id, pos, err)
			}
		}
		return nil
	})
}

// PlaylistItems returns the materialized contents of a playlist in order.
func (s *Store) PlaylistItems(ctx context.Context, id types.PlaylistID) ([]types.ItemID, error) {
	var ids []types.ItemID
	if err := s.queries.Select(ctx, "list-playlist-items", &ids, string(id)); err != nil {
		return nil, fmt.Errorf("reading playlist %s items: %w", id, err)
	}
	return ids, nil
}

// CreateAPIKey stores the HMAC hash of a new API key for user.
func (s *Store) CreateAPIKey(ctx context.Context, user types.UserID, name, keyHash string) (string, error) {
	id := types.NewAPIKeyID()
	_, err := s.queries.Exec(ctx, "insert-api-key", id, string(user), name, keyHash, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("creating API key for %s: %w", user, err)
	}
	return id, nil
}

// RevokeAPIKey marks an API key revoked.
func (s *Store) RevokeAPIKey(ctx context.Context, apiKeyID string) error {
	res, err := s.queries.Exec(ctx, "revoke-api-key", time.Now().UnixMilli(), apiKeyID)
	if err != nil {
		return fmt.Errorf("revoking API key %s: %w", apiKeyID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("API key %s not found or already revoked", apiKeyID)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func toMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := time.UnixMilli(ms.Int64).UTC()
	return &t
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
