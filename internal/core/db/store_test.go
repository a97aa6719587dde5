package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/solatis/smartplaylist/internal/playlist"
	"github.com/solatis/smartplaylist/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "test.db")

	conn, err := Open(dbURL)
	if err != nil {
		t.Fatalf("Open(%q) error: %v", dbURL, err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp error: %v", err)
	}

	store, err := NewStore(conn)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return store
}

func ptr[T any](v T) *T { return &v }

func TestParseURL(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver string
		wantSource string
		wantErr    bool
	}{
		{"sqlite:///var/lib/sp.db", "sqlite3", "file:/var/lib/sp.db?" + sqliteParams, false},
		{"sqlite://sp.db", "sqlite3", "file:sp.db?" + sqliteParams, false},
		{"sqlite://sp.db?mode=ro", "sqlite3", "file:sp.db?mode=ro", false},
		{"postgres://u:p@localhost:5432/sp?sslmode=disable", "postgres", "postgres://u:p@localhost:5432/sp?sslmode=disable", false},
		{"mysql://localhost/sp", "", "", true},
		{"", "", "", true},
		{"sqlite://", "", "", true},
	}

	for _, tt := range tests {
		driver, source, err := parseURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if driver != tt.wantDriver || source != tt.wantSource {
			t.Errorf("parseURL(%q) = (%q, %q), want (%q, %q)", tt.url, driver, source, tt.wantDriver, tt.wantSource)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (id TEXT);

-- second
CREATE TABLE b (id TEXT);
`
	got := splitStatements(script)
	if len(got) != 2 {
		t.Fatalf("splitStatements returned %d statements, want 2: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id TEXT)" {
		t.Errorf("statement 0 = %q", got[0])
	}
}

func TestMigrations(t *testing.T) {
	store := newTestStore(t)

	// Second run is a no-op
	if err := MigrateUp(store.db); err != nil {
		t.Fatalf("second MigrateUp error: %v", err)
	}

	statuses, err := MigrateStatus(store.db)
	if err != nil {
		t.Fatalf("MigrateStatus error: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("MigrateStatus returned no migrations")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %s not applied", s.ID)
		}
		if s.AppliedAt == nil {
			t.Errorf("migration %s has no applied_at", s.ID)
		}
	}
}

func TestStoreItems(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	premiere := time.Date(2019, 4, 26, 0, 0, 0, 0, time.UTC)
	full := types.Item{
		ID:              "item-1",
		Name:            "Endgame",
		MediaType:       "Movie",
		Path:            "/media/movies/Endgame.mkv",
		ProductionYear:  ptr(2019),
		CommunityRating: ptr(8.4),
		RunTime:         181 * time.Minute,
		PremiereDate:    &premiere,
		DateCreated:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Genres:          []string{"Action", "Sci-Fi"},
		People:          []string{"Someone"},
	}
	sparse := types.Item{
		ID:          "item-2",
		Name:        "Untitled",
		DateCreated: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	for _, it := range []types.Item{full, sparse} {
		if err := store.UpsertItem(ctx, it); err != nil {
			t.Fatalf("UpsertItem(%s) error: %v", it.ID, err)
		}
	}

	n, err := store.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems error: %v", err)
	}
	if n != 2 {
		t.Errorf("CountItems = %d, want 2", n)
	}

	var got []types.Item
	for it, err := range store.Items(ctx) {
		if err != nil {
			t.Fatalf("Items error: %v", err)
		}
		got = append(got, it)
	}
	if len(got) != 2 {
		t.Fatalf("Items yielded %d items, want 2", len(got))
	}

	first := got[0]
	if first.ID != "item-1" || first.Name != "Endgame" {
		t.Errorf("first item = %s/%s, want item-1/Endgame", first.ID, first.Name)
	}
	if first.ProductionYear == nil || *first.ProductionYear != 2019 {
		t.Errorf("ProductionYear = %v, want 2019", first.ProductionYear)
	}
	if first.CommunityRating == nil || *first.CommunityRating != 8.4 {
		t.Errorf("CommunityRating = %v, want 8.4", first.CommunityRating)
	}
	if first.PremiereDate == nil || !first.PremiereDate.Equal(premiere) {
		t.Errorf("PremiereDate = %v, want %v", first.PremiereDate, premiere)
	}
	if first.RunTime != 181*time.Minute {
		t.Errorf("RunTime = %v, want 181m", first.RunTime)
	}
	if len(first.Genres) != 2 || first.Genres[1] != "Sci-Fi" {
		t.Errorf("Genres = %v, want [Action Sci-Fi]", first.Genres)
	}

	second := got[1]
	if second.ProductionYear != nil || second.CommunityRating != nil || second.PremiereDate != nil {
		t.Errorf("sparse item gained values: %+v", second)
	}
	if len(second.Genres) != 0 {
		t.Errorf("sparse Genres = %v, want empty", second.Genres)
	}
}

func TestStoreItemsEarlyBreak(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, id := range []types.ItemID{"a", "b", "c"} {
		if err := store.UpsertItem(ctx, types.Item{ID: id, Name: string(id)}); err != nil {
			t.Fatal(err)
		}
	}

	count := 0
	for _, err := range store.Items(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		count++
		if count == 1 {
			break
		}
	}

	// Cursor was released; the store stays usable
	if _, err := store.CountItems(ctx); err != nil {
		t.Fatalf("CountItems after break error: %v", err)
	}
}

func TestStoreUserLibrary(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertItem(ctx, types.Item{ID: "item-1", Name: "One"}); err != nil {
		t.Fatal(err)
	}
	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	data := types.UserData{Played: true, PlayCount: 3, IsFavorite: true, LastPlayedDate: &last}
	if err := store.SetUserData(ctx, "alice", "item-1", data); err != nil {
		t.Fatalf("SetUserData error: %v", err)
	}

	lib, err := store.UserLibrary(ctx, "alice")
	if err != nil {
		t.Fatalf("UserLibrary error: %v", err)
	}

	got, ok := lib.UserData("item-1", "alice")
	if !ok {
		t.Fatal("UserData(item-1, alice) not found")
	}
	if !got.Played || got.PlayCount != 3 || !got.IsFavorite {
		t.Errorf("UserData = %+v, want played/3/favorite", got)
	}
	if got.LastPlayedDate == nil || !got.LastPlayedDate.Equal(last) {
		t.Errorf("LastPlayedDate = %v, want %v", got.LastPlayedDate, last)
	}

	if _, ok := lib.UserData("item-1", "bob"); ok {
		t.Error("UserData for another user should not be found")
	}
	if _, ok := lib.UserData("item-2", "alice"); ok {
		t.Error("UserData for unknown item should not be found")
	}
}

func TestStorePlaylists(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	def := playlist.Definition{
		Name: "Recent comedies",
		User: "alice",
		ExpressionSets: types.RuleSetList{
			{Expressions: []types.Expression{
				{Field: "Genres", Operator: "Contains", Value: "Comedy"},
				{Field: "ProductionYear", Operator: "GreaterThan", Value: "2015"},
			}},
		},
		MaxItems: 50,
		Order:    playlist.OrderDto{Name: "Release Date Descending"},
	}

	id, err := store.SavePlaylist(ctx, def)
	if err != nil {
		t.Fatalf("SavePlaylist error: %v", err)
	}
	if id == "" {
		t.Fatal("SavePlaylist returned empty ID")
	}

	got, err := store.GetPlaylist(ctx, id)
	if err != nil {
		t.Fatalf("GetPlaylist error: %v", err)
	}
	if got.ID != id || got.Name != def.Name || got.User != def.User {
		t.Errorf("GetPlaylist = %+v", got)
	}
	if got.MaxItems != 50 || got.Order.Name != "Release Date Descending" {
		t.Errorf("MaxItems/Order = %d/%q", got.MaxItems, got.Order.Name)
	}
	if len(got.ExpressionSets) != 1 || len(got.ExpressionSets[0].Expressions) != 2 {
		t.Fatalf("ExpressionSets = %+v", got.ExpressionSets)
	}
	if got.ExpressionSets[0].Expressions[1].Value != "2015" {
		t.Errorf("expression value = %q, want 2015", got.ExpressionSets[0].Expressions[1].Value)
	}

	// Update in place
	got.Name = "Renamed"
	if _, err := store.SavePlaylist(ctx, got); err != nil {
		t.Fatalf("SavePlaylist update error: %v", err)
	}
	all, err := store.ListPlaylists(ctx)
	if err != nil {
		t.Fatalf("ListPlaylists error: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Renamed" {
		t.Errorf("ListPlaylists = %+v, want single Renamed", all)
	}

	mine, err := store.ListPlaylistsByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("ListPlaylistsByUser error: %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("ListPlaylistsByUser(bob) = %d playlists, want 0", len(mine))
	}

	if _, err := store.GetPlaylist(ctx, "missing"); !errors.Is(err, types.ErrPlaylistNotFound) {
		t.Errorf("GetPlaylist(missing) error = %v, want ErrPlaylistNotFound", err)
	}

	if _, err := store.SavePlaylist(ctx, playlist.Definition{Name: "orphan"}); err == nil {
		t.Error("SavePlaylist without owner should fail")
	}
}

func TestStorePlaylistItems(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.SavePlaylist(ctx, playlist.Definition{Name: "p", User: "alice"})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.ReplacePlaylistItems(ctx, id, []types.ItemID{"c", "a", "b"}); err != nil {
		t.Fatalf("ReplacePlaylistItems error: %v", err)
	}
	if err := store.ReplacePlaylistItems(ctx, id, []types.ItemID{"b", "a"}); err != nil {
		t.Fatalf("ReplacePlaylistItems (second) error: %v", err)
	}

	got, err := store.PlaylistItems(ctx, id)
	if err != nil {
		t.Fatalf("PlaylistItems error: %v", err)
	}
	want := []types.ItemID{"b", "a"}
	if len(got) != len(want) {
		t.Fatalf("PlaylistItems = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PlaylistItems[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if err := store.DeletePlaylist(ctx, id); err != nil {
		t.Fatalf("DeletePlaylist error: %v", err)
	}
	if err := store.DeletePlaylist(ctx, id); !errors.Is(err, types.ErrPlaylistNotFound) {
		t.Errorf("second DeletePlaylist error = %v, want ErrPlaylistNotFound", err)
	}
}

func TestStoreAPIKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateAPIKey(ctx, "alice", "laptop", "deadbeef")
	if err != nil {
		t.Fatalf("CreateAPIKey error: %v", err)
	}

	var row struct {
		APIKeyID string `db:"api_key_id"`
		UserID   string `db:"user_id"`
		Revoked  *int64 `db:"revoked_ms"`
		LastUsed *int64 `db:"last_used_ms"`
	}
	if err := store.Queries().Get(ctx, "get-api-key-by-hash", &row, "deadbeef"); err != nil {
		t.Fatalf("get-api-key-by-hash error: %v", err)
	}
	if row.APIKeyID != id || row.UserID != "alice" || row.Revoked != nil {
		t.Errorf("api key row = %+v", row)
	}

	if err := store.RevokeAPIKey(ctx, id); err != nil {
		t.Fatalf("RevokeAPIKey error: %v", err)
	}
	if err := store.RevokeAPIKey(ctx, id); err == nil {
		t.Error("revoking twice should fail")
	}
}
