package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nfrund/patientdesk/internal/config"
	"github.com/nfrund/patientdesk/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "patientdesk",
	Short: "PatientDesk web front end and account client",
	Long: `PatientDesk serves the patient management front end and talks to the
account backend on behalf of its users.

Available commands:
  serve      Run the web front end
  register   Create an account from the terminal
  login      Sign in from the terminal
  whoami     Sign in and show the current user
  version    Print the version

Use "patientdesk [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "JSON config file (default $"+config.PathEnv+")")
}

// loadConfig reads the configuration and builds a logger that writes to
// stderr, keeping stdout for command output.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.New(afero.NewOsFs(), cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.NewWithWriter(os.Stderr, cfg.LogFormat, cfg.LogLevel), nil
}
