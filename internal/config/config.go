// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads application configuration with viper. Precedence,
// lowest to highest: defaults, sentry-monitoring.yaml (user config dir,
// /etc, cwd, or --config), the optional .env file, process environment,
// CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Sentry struct {
		OrganizationID string        `mapstructure:"organization_id" yaml:"organization_id"`
		ProjectSlug    string        `mapstructure:"project_slug" yaml:"project_slug"`
		AuthToken      string        `mapstructure:"auth_token" yaml:"auth_token,omitempty"`
		BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
		Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
		MaxPages       int           `mapstructure:"max_pages" yaml:"max_pages"`
	} `mapstructure:"sentry" yaml:"sentry"`
	S3 struct {
		Bucket          string `mapstructure:"bucket" yaml:"bucket"`
		Region          string `mapstructure:"region" yaml:"region"`
		Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
		AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
		SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
		ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style"`
	} `mapstructure:"s3" yaml:"s3"`
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`
	Export struct {
		Compression string `mapstructure:"compression" yaml:"compression"`
	} `mapstructure:"export" yaml:"export"`
	Language string `mapstructure:"language" yaml:"language"`
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "SentryMonitoring")
		default: // Linux, macOS, etc.
			configDir = "/etc/sentry-monitoring"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "sentry-monitoring")
	}

	return filepath.Join(configDir, "sentry-monitoring.yaml"), nil
}

// LoadConfig builds a T from defaults, config files, the optional .env
// file, environment variables and the command's flags.
//
// When no config file exists in any search path, the fully populated T is
// returned together with the viper.ConfigFileNotFoundError, so callers can
// persist the defaults on first run.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths
	v.SetConfigName("sentry-monitoring")
	v.SetConfigType("yaml")

	// 3. Add explicit config file path if provided via --config flag.
	// This has the highest precedence for file-based configuration.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	// 4. Add standard config locations
	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for sentry-monitoring.yaml in current dir

	// 5. Read in the primary config file. A missing file is not fatal, but
	// it is reported to the caller after the remaining sources have been
	// applied, so first runs still get a complete config.
	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = err
	}

	// 6. Load the optional .env file from the working directory into the
	// process environment, without overriding variables already set.
	LoadDotEnv(".env")

	// 7. Read from environment variables
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("sentry_monitoring")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindCanonicalEnv(v)

	// cli
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	// parse config
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, notFound
}

// bindCanonicalEnv wires the variable names the exporter has always used,
// so deployments keep working without the SENTRY_MONITORING_ prefix.
func bindCanonicalEnv(v *viper.Viper) {
	_ = v.BindEnv("sentry.organization_id", "SENTRY_MONITORING_SENTRY_ORGANIZATION_ID", "SENTRY_ORGANIZATION_ID")
	_ = v.BindEnv("sentry.project_slug", "SENTRY_MONITORING_SENTRY_PROJECT_SLUG", "SENTRY_PROJECT_SLUG")
	_ = v.BindEnv("sentry.auth_token", "SENTRY_MONITORING_SENTRY_AUTH_TOKEN", "SENTRY_AUTH_TOKEN")
	_ = v.BindEnv("s3.bucket", "SENTRY_MONITORING_S3_BUCKET", "S3_BUCKET_NAME")
}

// LoadDotEnv reads a dotenv-style file and exports its keys into the
// process environment. Variables already present in the environment win.
// A missing file is not an error; the file is optional.
func LoadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		// A malformed .env should not take the whole CLI down.
		return
	}
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		_ = os.Setenv(name, v.GetString(key))
	}
}

// WriteConfigFile persists the configuration to the user or system path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	err = os.WriteFile(path, data, 0600) // Use 0600 for security, as it may contain secrets
	if err != nil {
		return err
	}

	return nil
}
