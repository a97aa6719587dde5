package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/solatis/smartplaylist/internal/types"
)

// itemRecord is the import file shape for one library item.
type itemRecord struct {
	ID                   string                    `json:"id"`
	Name                 string                    `json:"name"`
	Album                string                    `json:"album"`
	SeriesName           string                    `json:"series_name"`
	MediaType            string                    `json:"media_type"`
	OfficialRating       string                    `json:"official_rating"`
	Path                 string                    `json:"path"`
	ContainingFolderPath string                    `json:"containing_folder_path"`
	ProductionYear       *int                      `json:"production_year"`
	CommunityRating      *float64                  `json:"community_rating"`
	CriticRating         *float64                  `json:"critic_rating"`
	RuntimeMinutes       float64                   `json:"runtime_minutes"`
	PremiereDate         *time.Time                `json:"premiere_date"`
	DateCreated          *time.Time                `json:"date_created"`
	Genres               []string                  `json:"genres"`
	Tags                 []string                  `json:"tags"`
	Studios              []string                  `json:"studios"`
	People               []string                  `json:"people"`
	Artists              []string                  `json:"artists"`
	UserData             map[string]userDataRecord `json:"user_data"`
}

type userDataRecord struct {
	Played         bool       `json:"played"`
	PlayCount      int        `json:"play_count"`
	IsFavorite     bool       `json:"is_favorite"`
	LastPlayedDate *time.Time `json:"last_played_date"`
}

func (r itemRecord) item(now time.Time) types.Item {
	created := now
	if r.DateCreated != nil {
		created = *r.DateCreated
	}
	id := types.ItemID(r.ID)
	if id == "" {
		id = types.NewItemID()
	}
	return types.Item{
		ID:                   id,
		Name:                 r.Name,
		Album:                r.Album,
		SeriesName:           r.SeriesName,
		MediaType:            r.MediaType,
		OfficialRating:       r.OfficialRating,
		Path:                 r.Path,
		ContainingFolderPath: r.ContainingFolderPath,
		ProductionYear:       r.ProductionYear,
		CommunityRating:      r.CommunityRating,
		CriticRating:         r.CriticRating,
		RunTime:              time.Duration(r.RuntimeMinutes * float64(time.Minute)),
		PremiereDate:         r.PremiereDate,
		DateCreated:          created,
		Genres:               r.Genres,
		Tags:                 r.Tags,
		Studios:              r.Studios,
		People:               r.People,
		Artists:              r.Artists,
	}
}

var importCmd = &cobra.Command{
	Use:   "import <items.json>",
	Short: "Load library items and user data from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read items: %w", err)
		}
		var records []itemRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to parse items %s: %w", args[0], err)
		}

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		store, err := env.openStore()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var userRows int
		for _, r := range records {
			it := r.item(now)
			if err := store.UpsertItem(ctx, it); err != nil {
				return err
			}
			for user, ud := range r.UserData {
				err := store.SetUserData(ctx, types.UserID(user), it.ID, types.UserData{
					Played:         ud.Played,
					PlayCount:      ud.PlayCount,
					IsFavorite:     ud.IsFavorite,
					LastPlayedDate: ud.LastPlayedDate,
				})
				if err != nil {
					return err
				}
				userRows++
			}
		}

		total, err := store.CountItems(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s items and %s user data rows (library now %s items)\n",
			humanize.Comma(int64(len(records))), humanize.Comma(int64(userRows)), humanize.Comma(int64(total)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
