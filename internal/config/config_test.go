package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	cfg "github.com/Musatech/sentry-monitoring/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// chtmp switches the working directory to a temp dir for the duration of
// the test so cwd-relative config discovery cannot pick up stray files.
func chtmp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return tmp
}

func TestLoadConfig_Defaults(t *testing.T) {
	chtmp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	defaults := map[string]any{
		"database.type":   "sqlite",
		"database.dsn":    "./sentry-monitoring.db",
		"language":        "en",
		"sentry.base_url": "https://sentry.io",
	}
	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, defaults, nil)
	if err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Database.Type != "sqlite" {
		t.Errorf("expected default database.type sqlite, got %q", c.Database.Type)
	}
	if c.Sentry.BaseURL != "https://sentry.io" {
		t.Errorf("expected default base URL, got %q", c.Sentry.BaseURL)
	}
}

func TestLoadConfig_CanonicalEnvNames(t *testing.T) {
	chtmp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SENTRY_ORGANIZATION_ID", "acme")
	t.Setenv("SENTRY_PROJECT_SLUG", "collector")
	t.Setenv("SENTRY_AUTH_TOKEN", "sekrit")
	t.Setenv("S3_BUCKET_NAME", "acme-exports")

	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, nil, nil)
	if err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Sentry.OrganizationID != "acme" {
		t.Errorf("organization_id = %q, want acme", c.Sentry.OrganizationID)
	}
	if c.Sentry.ProjectSlug != "collector" {
		t.Errorf("project_slug = %q, want collector", c.Sentry.ProjectSlug)
	}
	if c.Sentry.AuthToken != "sekrit" {
		t.Errorf("auth_token = %q, want sekrit", c.Sentry.AuthToken)
	}
	if c.S3.Bucket != "acme-exports" {
		t.Errorf("s3.bucket = %q, want acme-exports", c.S3.Bucket)
	}
}

func TestLoadConfig_MissingFileReportedWithPopulatedConfig(t *testing.T) {
	chtmp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	defaults := map[string]any{"database.type": "sqlite"}
	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, defaults, nil)
	if err == nil {
		t.Fatal("expected ConfigFileNotFoundError when no config file exists")
	}
	if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		t.Fatalf("err = %v, want viper.ConfigFileNotFoundError", err)
	}
	// The config must still be usable so the caller can persist defaults.
	if c.Database.Type != "sqlite" {
		t.Errorf("database.type = %q, want sqlite", c.Database.Type)
	}
}

func TestLoadConfig_ExistingFileReturnsNilError(t *testing.T) {
	tmp := chtmp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	body := "database:\n  type: sqlite\n"
	if err := os.WriteFile(filepath.Join(tmp, "sentry-monitoring.yaml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, nil, nil); err != nil {
		t.Fatalf("LoadConfig with existing file: %v", err)
	}
}

func TestLoadConfig_ExplicitFileOverridesDefaults(t *testing.T) {
	tmp := chtmp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(tmp, "custom.yaml")
	body := "sentry:\n  project_slug: from-file\ndatabase:\n  type: postgres\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	defaults := map[string]any{"database.type": "sqlite"}
	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, defaults, &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Database.Type != "postgres" {
		t.Errorf("database.type = %q, want postgres", c.Database.Type)
	}
	if c.Sentry.ProjectSlug != "from-file" {
		t.Errorf("project_slug = %q, want from-file", c.Sentry.ProjectSlug)
	}
}

func TestLoadDotEnv_DoesNotOverrideProcessEnv(t *testing.T) {
	tmp := chtmp(t)
	envPath := filepath.Join(tmp, ".env")
	body := "SENTRY_PROJECT_SLUG=dotenv-slug\nS3_BUCKET_NAME=dotenv-bucket\n"
	if err := os.WriteFile(envPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("SENTRY_PROJECT_SLUG", "process-wins")
	// Ensure the dotenv-only key is not already set.
	os.Unsetenv("S3_BUCKET_NAME")
	t.Cleanup(func() { os.Unsetenv("S3_BUCKET_NAME") })

	cfg.LoadDotEnv(envPath)

	if got := os.Getenv("SENTRY_PROJECT_SLUG"); got != "process-wins" {
		t.Errorf("process env overridden by .env: %q", got)
	}
	if got := os.Getenv("S3_BUCKET_NAME"); got != "dotenv-bucket" {
		t.Errorf("S3_BUCKET_NAME = %q, want dotenv-bucket", got)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := cfg.Config{}
	c.Database.Type = "sqlite"
	c.Database.Dsn = "./sentry-monitoring.db"
	c.Language = "en"
	if err := cfg.WriteConfigFile(&c, false); err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		t.Fatalf("UserConfigDir: %v", err)
	}
	path := filepath.Join(dir, "sentry-monitoring", "sentry-monitoring.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
}
