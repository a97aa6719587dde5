package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/solatis/smartplaylist/internal/core/auth"
	"github.com/solatis/smartplaylist/internal/core/config"
	"github.com/solatis/smartplaylist/internal/types"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API key for a user and print it once",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		secretID, _ := cmd.Flags().GetString("secret-id")

		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}
		if len(secrets) == 0 {
			return fmt.Errorf("no HMAC secrets configured (set SP_HMAC_SECRET environment variable)")
		}
		if secretID == "" {
			// Newest UUIDv7 secret sorts last
			ids := make([]string, 0, len(secrets))
			for id := range secrets {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			secretID = ids[len(ids)-1]
		}
		secret, ok := secrets[secretID]
		if !ok {
			return fmt.Errorf("secret ID %s not configured", secretID)
		}

		key, hash, err := auth.GenerateAPIKey(secretID, secret)
		if err != nil {
			return err
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
		id, err := store.CreateAPIKey(cmd.Context(), types.UserID(user), name, hash)
		if err != nil {
			return err
		}

		env.logger.Info().Str("api_key_id", id).Str("user_id", user).Msg("API key created")
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
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
		if err := store.RevokeAPIKey(cmd.Context(), args[0]); err != nil {
			return err
		}
		env.logger.Info().Str("api_key_id", args[0]).Msg("API key revoked")
		return nil
	},
}

func init() {
	apikeyCreateCmd.Flags().String("user", "", "user the key authenticates as")
	apikeyCreateCmd.Flags().String("name", "", "label for the key")
	apikeyCreateCmd.Flags().String("secret-id", "", "HMAC secret to bind the key to (default: newest)")
	apikeyCreateCmd.MarkFlagRequired("user")

	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyRevokeCmd)
	rootCmd.AddCommand(apikeyCmd)
}
