// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// Package export renders event snapshots as CSV and names the objects
// they are uploaded as. The column set and the semicolon delimiter are
// fixed: the downstream BI import depends on both.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/Musatech/sentry-monitoring/internal/model"
)

// Columns is the snapshot header row, in upload order.
var Columns = []string{
	"group_id", "event_id", "project_id", "event_type", "title", "message",
	"platform", "culprit", "created_at", "collect_id", "kind_of_material",
	"type_of_packaging",
}

// createdAtLayout renders timestamps with microsecond precision, UTC.
const createdAtLayout = "2006-01-02 15:04:05.000000"

// Snapshot renders the events as a semicolon-delimited CSV with a header
// row and CRLF line endings.
func Snapshot(events []model.Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	w.UseCRLF = true

	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("export: writing header: %w", err)
	}
	for _, ev := range events {
		if err := w.Write(record(ev)); err != nil {
			return nil, fmt.Errorf("export: writing event %s: %w", ev.EventID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: flushing snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// record flattens one event into the column order of the header.
func record(ev model.Event) []string {
	return []string{
		ev.GroupID,
		ev.EventID,
		ev.ProjectID,
		ev.Type,
		ev.Title,
		ev.Message,
		ev.Platform,
		ev.Culprit,
		ev.CreatedAt.UTC().Format(createdAtLayout),
		ev.Collect.ID,
		ev.Collect.Material,
		ev.Collect.Packaging,
	}
}

// LatestKey is the object key of the always-current snapshot for a
// project. It is overwritten on every run.
func LatestKey(project string) string {
	return fmt.Sprintf("%s/events.csv", project)
}

// BackupKey is the object key of the dated backup snapshot. Compressed
// backups get a .zst suffix.
func BackupKey(project string, day time.Time, compression string) string {
	key := fmt.Sprintf("%s_backup/events_%s.csv", project, day.UTC().Format("2006-01-02"))
	if compression == CompressionZstd {
		key += ".zst"
	}
	return key
}
