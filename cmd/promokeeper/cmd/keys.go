package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/solatis/promokeeper/internal/core/auth"
	"github.com/solatis/promokeeper/internal/core/config"
	"github.com/solatis/promokeeper/internal/core/db"
	"github.com/solatis/promokeeper/internal/types"
)

var keysFlags struct {
	storefront string
	name       string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage storefront API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint an API key under the current HMAC secret",
	Long:  "Mints an API key for a storefront. The key is printed once; only its HMAC is stored.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secretID, secret, err := config.CurrentHMACSecret()
		if err != nil {
			return err
		}

		database, queries, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		if err := db.RequireMigrated(database); err != nil {
			return err
		}

		key, hash, err := auth.GenerateAPIKey(secretID, secret)
		if err != nil {
			return err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate key id: %w", err)
		}
		record := db.APIKey{
			APIKeyID:     id.String(),
			StorefrontID: types.StorefrontID(keysFlags.storefront),
			Name:         keysFlags.name,
			SecretID:     secretID,
			KeyHash:      hash,
			CreatedAt:    time.Now(),
		}
		if err := queries.InsertAPIKey(cmd.Context(), record); err != nil {
			return err
		}

		logger.Info("api key created", "api_key_id", record.APIKeyID, "storefront_id", keysFlags.storefront)
		fmt.Fprintf(cmd.OutOrStdout(), "api_key_id: %s\napi_key:    %s\n", record.APIKeyID, key)
		return nil
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke API_KEY_ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, queries, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := queries.RevokeAPIKey(cmd.Context(), args[0]); err != nil {
			return err
		}
		logger.Info("api key revoked", "api_key_id", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd)

	keysCreateCmd.Flags().StringVar(&keysFlags.storefront, "storefront", "", "storefront ID the key authenticates as")
	keysCreateCmd.Flags().StringVar(&keysFlags.name, "name", "default", "human-readable key name")
	_ = keysCreateCmd.MarkFlagRequired("storefront")
}
