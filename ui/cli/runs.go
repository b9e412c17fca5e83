// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Musatech/sentry-monitoring/internal/i18n"
)

var runsLimit int

// runsCmd lists recent export runs from the archive database.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent export runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := dbStoreOrNil()
		if store == nil {
			return fmt.Errorf("no database available")
		}

		runs, err := store.GetRecentRuns(runsLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println(i18n.T("runs.none"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tEVENTS\tNEW\tBACKUP\tERROR")
		for _, r := range runs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
				r.ID,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.EventCount,
				r.NewEvents,
				r.BackupKey,
				truncate(r.Error, 40))
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to show")
}
