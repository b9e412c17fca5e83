// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Musatech/sentry-monitoring/internal/db"
	"github.com/Musatech/sentry-monitoring/internal/i18n"
)

// eventsCmd is the root command for inspecting the local event archive.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect archived events (list, show)",
}

// eventsListCmd lists archived events in table format.
var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived events",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := dbStoreOrNil()
		if store == nil {
			return fmt.Errorf("no database available")
		}

		events, err := store.GetAllEvents()
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println(i18n.T("events.none"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EVENT\tCREATED\tTYPE\tTITLE\tCOLLECT\tMATERIAL\tPACKAGING")
		for _, ev := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				ev.EventID,
				ev.CreatedAt.Format("2006-01-02 15:04:05"),
				ev.Type,
				truncate(ev.Title, 40),
				ev.Collect.ID,
				ev.Collect.Material,
				ev.Collect.Packaging)
		}
		return w.Flush()
	},
}

// eventsShowCmd prints one archived event in full.
var eventsShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show one archived event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := dbStoreOrNil()
		if store == nil {
			return fmt.Errorf("no database available")
		}

		ev, err := store.GetEventByID(args[0])
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("%s", i18n.T("events.not_found", args[0]))
			}
			return fmt.Errorf("failed to load event: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Event ID:\t%s\n", ev.EventID)
		fmt.Fprintf(w, "Group ID:\t%s\n", ev.GroupID)
		fmt.Fprintf(w, "Project ID:\t%s\n", ev.ProjectID)
		fmt.Fprintf(w, "Type:\t%s\n", ev.Type)
		fmt.Fprintf(w, "Title:\t%s\n", ev.Title)
		fmt.Fprintf(w, "Message:\t%s\n", ev.Message)
		fmt.Fprintf(w, "Platform:\t%s\n", ev.Platform)
		fmt.Fprintf(w, "Culprit:\t%s\n", ev.Culprit)
		fmt.Fprintf(w, "Created:\t%s\n", ev.CreatedAt.Format("2006-01-02 15:04:05.000000"))
		fmt.Fprintf(w, "Collect ID:\t%s\n", ev.Collect.ID)
		fmt.Fprintf(w, "Material:\t%s\n", ev.Collect.Material)
		fmt.Fprintf(w, "Packaging:\t%s\n", ev.Collect.Packaging)
		return w.Flush()
	},
}

func init() {
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsShowCmd)
}

// dbStoreOrNil returns the package-level store, which may be nil when the
// database could not be opened.
func dbStoreOrNil() db.Store {
	return db.GetStore()
}

// truncate shortens s for table display.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
