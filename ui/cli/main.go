// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Sentry
// Monitoring exporter using the Cobra library. It defines the root
// command, subcommands (export, events, runs, version), flags, and the
// service bootstrap shared by all commands.

package cli

import (
	"errors"
	"fmt"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Musatech/sentry-monitoring/buildvars"
	"github.com/Musatech/sentry-monitoring/internal/config"
	"github.com/Musatech/sentry-monitoring/internal/db"
	"github.com/Musatech/sentry-monitoring/internal/i18n"
	"github.com/Musatech/sentry-monitoring/internal/logging"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

var cfgFile string
var verbose bool

var appConfig config.Config

// configDefaults are the baseline values before any file, env or flag.
// Keys default to empty so viper knows them and environment overrides
// (SENTRY_MONITORING_*) reach Unmarshal.
var configDefaults = map[string]any{
	"database.type":          "sqlite",
	"database.dsn":           "./sentry-monitoring.db",
	"language":               "en",
	"sentry.organization_id": "",
	"sentry.project_slug":    "",
	"sentry.auth_token":      "",
	"sentry.base_url":        "https://sentry.io",
	"sentry.timeout":         "30s",
	"sentry.max_pages":       50,
	"s3.bucket":              "",
	"s3.region":              "",
	"s3.endpoint":            "",
	"s3.access_key_id":       "",
	"s3.secret_access_key":   "",
	"s3.force_path_style":    false,
	"export.compression":     "none",
}

// setupDefaultServices loads configuration, initializes i18n and opens
// the archive database. It runs before every subcommand.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	logging.SetDebug(verbose)

	// Load optional config file argument from cli
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, configDefaults, optionalConfigPath)
	// A "file not found" error is expected on first run, so we handle it
	// specifically. Other errors during loading are fatal.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		// First run, or the config file was deleted. Create a default one.
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			// Log a warning but don't fail, as the app can run on defaults.
			log.Warnf("Warning: could not write default config file: %v", writeErr)
		} else {
			log.Info(i18n.T("config.wrote_default"))
		}
	} else if err != nil {
		return fmt.Errorf("%s", i18n.T("config.error_loading", err))
	}

	// Post-process config to ensure critical values are not empty, falling
	// back to defaults. This handles config files with blanked-out fields.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = configDefaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = configDefaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = configDefaults["language"].(string)
	}
	if appConfig.Sentry.BaseURL == "" {
		appConfig.Sentry.BaseURL = configDefaults["sentry.base_url"].(string)
	}

	// Initialize i18n
	i18n.Init(appConfig.Language)

	// Open the archive database unless a test or an earlier setup already did.
	if !db.IsInitialized() {
		if _, err := db.New(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
	}

	return nil
}

// getConfigPathFromCli returns the --config flag value, or nil when the
// flag was not set.
func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	flag := cmd.Flags().Lookup("config")
	if flag == nil || !flag.Changed {
		return nil, nil
	}
	path := flag.Value.String()
	if path == "" {
		return nil, fmt.Errorf("--config requires a file path")
	}
	return &path, nil
}

var rootCmd = &cobra.Command{
	Use:   "sentry-monitoring",
	Short: "Export Sentry project events to CSV snapshots in S3",
	Long: `sentry-monitoring pulls the event feed of a Sentry project, digs the
captured request payload out of the stack-frame variables, and publishes
CSV snapshots to S3: a dated backup per run plus an always-current
events.csv. Exported events are archived in a local database for
inspection and de-duplication.`,
	PersistentPreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// versionCmd prints the build information. It skips the service bootstrap:
// version output needs no config or database.
var versionCmd = &cobra.Command{
	Use:              "version",
	Short:            "Print version information",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sentry-monitoring %s", buildvars.VersionOrDefault(version))
		if gitCommit != "" && gitCommit != "dev" {
			fmt.Printf(" (%s)", gitCommit)
		}
		if buildDate != "" {
			fmt.Printf(" built %s", buildDate)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is sentry-monitoring.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(runsCmd)
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	defer func() {
		if s := db.GetStore(); s != nil {
			_ = s.Close()
		}
	}()
	return rootCmd.Execute()
}
