// Package cli implements the luminous command-line client.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/luminous-money/client-go/pkg/credstore"
	"github.com/luminous-money/client-go/pkg/luminous"
	"github.com/luminous-money/client-go/pkg/slogx"
)

var (
	flagBaseURL      string
	flagClientID     string
	flagClientSecret string
	flagCredFile     string
	flagLogLevel     string
	flagLogFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "luminous",
	Short: "Command-line client for the Luminous Money APIs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slogx.New(slogx.Config{Level: flagLogLevel, Format: flagLogFormat})
	},
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagBaseURL, "base-url",
		os.Getenv("LUMINOUS_BASE_URL"), "API base URL (env: LUMINOUS_BASE_URL)")
	pf.StringVar(&flagClientID, "client-id",
		os.Getenv("LUMINOUS_CLIENT_ID"), "API client id (env: LUMINOUS_CLIENT_ID)")
	pf.StringVar(&flagClientSecret, "client-secret",
		os.Getenv("LUMINOUS_CLIENT_SECRET"), "API client secret (env: LUMINOUS_CLIENT_SECRET)")
	pf.StringVar(&flagCredFile, "credentials-file",
		getEnvOrDefault("LUMINOUS_CREDENTIALS_FILE", defaultCredentialsFile()),
		"path of the credential store file")
	pf.StringVar(&flagLogLevel, "log-level",
		getEnvOrDefault("LUMINOUS_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format",
		getEnvOrDefault("LUMINOUS_LOG_FORMAT", "text"), "log format (text, json)")
}

// newClient builds the API client from flags, restoring any session persisted
// in the credentials file.
func newClient(ctx context.Context) (*luminous.Client, error) {
	if flagBaseURL == "" {
		return nil, errors.New("a base URL is required (--base-url or LUMINOUS_BASE_URL)")
	}
	if flagClientID == "" {
		return nil, errors.New("a client id is required (--client-id or LUMINOUS_CLIENT_ID)")
	}

	return luminous.New(ctx, luminous.Config{
		ClientID:     flagClientID,
		ClientSecret: flagClientSecret,
		BaseURL:      flagBaseURL,
		Store:        credstore.NewFile(flagCredFile),
	})
}
