package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/hoverpad/hoverpad/internal/auth"
	"github.com/hoverpad/hoverpad/internal/storage"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <redirect-url>",
	Short: "Link an account from an OAuth redirect URL",
	Long: `Exchange the code in an OAuth redirect URL for a bearer token, fetch the
account's derived keys and store both in the pad file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !cfg.AuthConfigured() {
			hint("Set auth.token_url, auth.keys_url and auth.client_id in %s", cfg.ConfigPath)
			return fmt.Errorf("account link is not configured")
		}

		code, err := auth.ExtractCode(args[0])
		if err != nil {
			return err
		}

		client := auth.NewClient(auth.ClientConfig{
			TokenURL:     cfg.Auth.TokenURL,
			KeysURL:      cfg.Auth.KeysURL,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			Timeout:      cfg.Auth.Timeout,
		})

		token, err := client.ExchangeCode(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to get bearer token: %w", err)
		}

		keys, err := client.FetchKeys(ctx, token)
		if err != nil {
			return fmt.Errorf("failed to get derived keys: %w", err)
		}

		bearer, err := json.Marshal(token)
		if err != nil {
			return fmt.Errorf("failed to marshal token: %w", err)
		}

		err = localStore.Set(ctx, map[string]*string{
			storage.KeyBearer: storage.Value(string(bearer)),
			storage.KeyKeys:   storage.Value(string(keys)),
		})
		if err != nil {
			return err
		}

		log.Info().Msg("account linked")
		success("Account linked")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
