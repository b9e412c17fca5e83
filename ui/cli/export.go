// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Musatech/sentry-monitoring/internal/export"
	"github.com/Musatech/sentry-monitoring/internal/exporter"
	"github.com/Musatech/sentry-monitoring/internal/i18n"
	"github.com/Musatech/sentry-monitoring/internal/model"
	"github.com/Musatech/sentry-monitoring/internal/sentry"
	"github.com/Musatech/sentry-monitoring/internal/storage"
)

var exportCompression string

// exportCmd runs one export: fetch the event feed, render the CSV
// snapshot, upload the dated backup and the latest object, archive.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch Sentry events and upload CSV snapshots to S3",
	Long: `Fetch the full event feed for the configured Sentry project, extract the
collect payloads from stack-frame variables, and upload two objects to the
configured bucket:

  {project}_backup/events_{date}.csv   dated backup (optionally zstd-compressed)
  {project}/events.csv                 always-current snapshot

An empty feed uploads nothing and leaves the previous snapshot in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateExportConfig(); err != nil {
			return err
		}

		compression := appConfig.Export.Compression
		if cmd.Flags().Changed("compression") {
			compression = exportCompression
		}
		if !export.ValidCompression(compression) {
			return fmt.Errorf("unsupported compression %q (use none or zstd)", compression)
		}

		token := appConfig.Sentry.AuthToken
		if token == "" {
			var err error
			token, err = promptAuthToken()
			if err != nil {
				return err
			}
		}

		client := sentry.NewClient(
			appConfig.Sentry.OrganizationID,
			appConfig.Sentry.ProjectSlug,
			token,
			sentry.WithBaseURL(appConfig.Sentry.BaseURL),
			sentry.WithTimeout(appConfig.Sentry.Timeout),
			sentry.WithMaxPages(appConfig.Sentry.MaxPages),
		)

		uploader, err := storage.NewS3Uploader(cmd.Context(), storage.S3Options{
			Bucket:          appConfig.S3.Bucket,
			Region:          appConfig.S3.Region,
			Endpoint:        appConfig.S3.Endpoint,
			AccessKeyID:     appConfig.S3.AccessKeyID,
			SecretAccessKey: appConfig.S3.SecretAccessKey,
			ForcePathStyle:  appConfig.S3.ForcePathStyle,
		})
		if err != nil {
			return err
		}

		fmt.Println(i18n.T("export.starting", appConfig.Sentry.ProjectSlug))

		exp := &exporter.Exporter{
			Source:      client,
			Uploader:    uploader,
			Store:       dbStoreOrNil(),
			Project:     appConfig.Sentry.ProjectSlug,
			Compression: compression,
		}
		run, err := exp.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(i18n.T("export.fetched", run.EventCount))
		if run.Status == model.RunStatusEmpty {
			fmt.Println(i18n.T("export.no_events"))
			return nil
		}
		fmt.Println(i18n.T("export.uploaded", run.BackupKey))
		fmt.Println(i18n.T("export.uploaded", run.LatestKey))
		fmt.Println(i18n.T("export.archived", run.EventCount, run.NewEvents))
		fmt.Println(i18n.T("export.done"))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCompression, "compression", "none", "backup compression: none or zstd")
}

// validateExportConfig checks the settings the export cannot run without.
func validateExportConfig() error {
	var missing []string
	if appConfig.Sentry.OrganizationID == "" {
		missing = append(missing, "sentry.organization_id (SENTRY_ORGANIZATION_ID)")
	}
	if appConfig.Sentry.ProjectSlug == "" {
		missing = append(missing, "sentry.project_slug (SENTRY_PROJECT_SLUG)")
	}
	if appConfig.S3.Bucket == "" {
		missing = append(missing, "s3.bucket (S3_BUCKET_NAME)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// promptAuthToken reads the Sentry token from the terminal without echo.
// Outside a terminal (cron, CI) the token must come from config or env.
func promptAuthToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("sentry.auth_token is not set (SENTRY_AUTH_TOKEN)")
	}
	fmt.Print(i18n.T("prompt.auth_token"))
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("%s", i18n.T("prompt.error_token", err))
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("sentry.auth_token is not set (SENTRY_AUTH_TOKEN)")
	}
	return token, nil
}
