// Package cli provides the command-line interface for astrochat.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sona-astrovision/astrochat/internal/api"
	"github.com/sona-astrovision/astrochat/internal/config"
	"github.com/sona-astrovision/astrochat/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	apiURL  string
	verbose bool

	// Wired in PersistentPreRunE
	cfg        config.Config
	st         *store.Store
	backend    *api.Client
	logger     *slog.Logger
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "astrochat",
	Short: "Talk to the Findastro astrologer from your terminal",
	Long: `Astrochat is the terminal client for Findastro, the astrology
consultation service.

Log in with your phone number, chat with Guruji, review past sessions,
and manage your coin wallet. Operators get an admin surface for users,
prompts and dashboard stats.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if apiURL != "" {
			cfg.BaseURL = apiURL
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, logCleanup = cfg.NewLogger()

		st, err = store.Open(cfg.StateFile)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}

		clientID, err := st.ClientID()
		if err != nil {
			return fmt.Errorf("client id: %w", err)
		}

		backend = api.New(cfg.BaseURL,
			api.WithTokenSource(st),
			api.WithTimeout(cfg.RequestTimeout),
			api.WithClientID(clientID),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// requireLogin returns the stored mobile number or an error telling the
// user to log in.
func requireLogin() (string, error) {
	mobile, ok := st.Mobile()
	if !ok {
		return "", fmt.Errorf("not logged in — run 'astrochat login <mobile>' first")
	}
	return mobile, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(adminCmd)
}
