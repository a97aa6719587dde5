package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/solatis/smartplaylist/internal/core/api"
	"github.com/solatis/smartplaylist/internal/playlist"
	"github.com/solatis/smartplaylist/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a playlist definition against the library",
	Long: `Evaluate a stored playlist (--playlist-id) or a definition file (--definition)
and print the resulting item IDs in order. With --save the result replaces the
stored playlist contents; a definition file is stored first.`,
	RunE: runEvaluate,
}

var validateCmd = &cobra.Command{
	Use:   "validate <definition.json>",
	Short: "Check that a playlist definition compiles",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	evaluateCmd.Flags().String("definition", "", "playlist definition JSON file")
	evaluateCmd.Flags().String("playlist-id", "", "stored playlist ID")
	evaluateCmd.Flags().String("user", "", "evaluate as this user instead of the playlist owner")
	evaluateCmd.Flags().Bool("no-limit", false, "do not cap the result at MaxItems")
	evaluateCmd.Flags().Bool("save", false, "persist the result as the playlist contents")
	evaluateCmd.MarkFlagsMutuallyExclusive("definition", "playlist-id")
	evaluateCmd.MarkFlagsOneRequired("definition", "playlist-id")
	evaluateCmd.MarkFlagsMutuallyExclusive("no-limit", "save")

	rootCmd.AddCommand(evaluateCmd, validateCmd)
}

func readDefinition(path string) (playlist.Definition, error) {
	var def playlist.Definition
	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("failed to read definition: %w", err)
	}
	if err := json.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("failed to parse definition %s: %w", path, err)
	}
	return def, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	definitionPath, _ := cmd.Flags().GetString("definition")
	playlistID, _ := cmd.Flags().GetString("playlist-id")
	user, _ := cmd.Flags().GetString("user")
	noLimit, _ := cmd.Flags().GetBool("no-limit")
	save, _ := cmd.Flags().GetBool("save")

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

	opts := api.Options{User: types.UserID(user), NoLimit: noLimit, Persist: save}

	var res *api.Result
	if definitionPath != "" {
		def, err := readDefinition(definitionPath)
		if err != nil {
			return err
		}
		if save {
			if err := playlist.New(def).Validate(); err != nil {
				return err
			}
			if def.ID, err = store.SavePlaylist(ctx, def); err != nil {
				return err
			}
		}
		res, err = service.EvaluateDefinition(ctx, def, opts)
		if err != nil {
			return err
		}
	} else {
		id, err := types.ParsePlaylistID(playlistID)
		if err != nil {
			return fmt.Errorf("invalid --playlist-id: %w", err)
		}
		if res, err = service.Evaluate(ctx, id, opts); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s (%s): %s matched, %s listed in %s\n",
		res.Name, res.Order, humanize.Comma(int64(res.Matched)), humanize.Comma(int64(len(res.Items))), res.Duration.Round(time.Millisecond))
	if save {
		fmt.Fprintf(out, "# saved as %s\n", res.PlaylistID)
	}
	for _, id := range res.Items {
		fmt.Fprintln(out, id)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	def, err := readDefinition(args[0])
	if err != nil {
		return err
	}
	p := playlist.New(def)
	if err := p.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule sets, order %q, max %s items\n",
		args[0], len(p.ExpressionSets), p.Order.Name(), humanize.Comma(int64(p.MaxItems)))
	return nil
}
