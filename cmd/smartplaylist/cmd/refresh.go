package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/solatis/smartplaylist/internal/core/api"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-evaluate and persist every stored playlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		store, err := env.openStore()
		if err != nil {
			return err
		}
		service, err := api.NewPlaylistService(store, env.cfg, env.logger)
		if err != nil {
			return err
		}

		summary, err := service.RefreshAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s playlists (%s items), %s with invalid rules\n",
			humanize.Comma(int64(summary.Refreshed)), humanize.Comma(int64(summary.Items)), humanize.Comma(int64(summary.Invalid)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
