// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// Package exporter wires the Sentry client, the CSV renderer, the object
// store and the local archive into one export run.
package exporter

import (
	"context"
	"fmt"
	"time"

	"github.com/Musatech/sentry-monitoring/internal/db"
	"github.com/Musatech/sentry-monitoring/internal/export"
	"github.com/Musatech/sentry-monitoring/internal/logging"
	"github.com/Musatech/sentry-monitoring/internal/model"
	"github.com/Musatech/sentry-monitoring/internal/storage"
)

// EventSource lists the events to export. Satisfied by *sentry.Client.
type EventSource interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
}

// Exporter runs the export pipeline. Store may be nil to skip the local
// archive (the run record is skipped with it).
type Exporter struct {
	Source      EventSource
	Uploader    storage.Uploader
	Store       db.Store
	Project     string
	Compression string

	// Now is the clock used for backup naming and run records. Defaults
	// to time.Now.
	Now func() time.Time
}

// Run executes one export: fetch, render, upload backup and latest
// snapshots, archive. The returned ExportRun reflects what happened even
// when an error is returned.
func (e *Exporter) Run(ctx context.Context) (model.ExportRun, error) {
	now := e.Now
	if now == nil {
		now = time.Now
	}
	run := model.ExportRun{StartedAt: now().UTC()}

	events, err := e.Source.ListEvents(ctx)
	if err != nil {
		return e.finish(run, now, fmt.Errorf("fetching events: %w", err))
	}
	run.EventCount = len(events)
	logging.Infof("fetched %d events for project %s", len(events), e.Project)

	// No events means nothing to upload; the previous snapshot stays.
	if len(events) == 0 {
		run.Status = model.RunStatusEmpty
		return e.finish(run, now, nil)
	}

	snapshot, err := export.Snapshot(events)
	if err != nil {
		return e.finish(run, now, err)
	}

	backupBody, err := export.EncodeBackup(snapshot, e.Compression)
	if err != nil {
		return e.finish(run, now, err)
	}
	backupType := storage.ContentTypeCSV
	if e.Compression == export.CompressionZstd {
		backupType = storage.ContentTypeZstd
	}

	// Dated backup first, then the always-current snapshot; a failure in
	// between leaves the latest object untouched.
	run.BackupKey = export.BackupKey(e.Project, now().UTC(), e.Compression)
	if err := e.Uploader.Upload(ctx, run.BackupKey, backupBody, backupType); err != nil {
		return e.finish(run, now, err)
	}
	logging.Infof("uploaded %s (%d bytes)", run.BackupKey, len(backupBody))

	run.LatestKey = export.LatestKey(e.Project)
	if err := e.Uploader.Upload(ctx, run.LatestKey, snapshot, storage.ContentTypeCSV); err != nil {
		return e.finish(run, now, err)
	}
	logging.Infof("uploaded %s (%d bytes)", run.LatestKey, len(snapshot))

	if e.Store != nil {
		inserted, err := e.Store.UpsertEvents(events)
		if err != nil {
			return e.finish(run, now, fmt.Errorf("archiving events: %w", err))
		}
		run.NewEvents = inserted
		logging.Infof("archived %d events (%d new)", len(events), inserted)
	}

	run.Status = model.RunStatusOK
	return e.finish(run, now, nil)
}

// finish stamps the run, records it when a store is configured, and
// passes the pipeline error through.
func (e *Exporter) finish(run model.ExportRun, now func() time.Time, err error) (model.ExportRun, error) {
	run.FinishedAt = now().UTC()
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
	}
	if e.Store != nil {
		if id, recErr := e.Store.RecordRun(run); recErr != nil {
			logging.Warnf("could not record export run: %v", recErr)
		} else {
			run.ID = id
		}
	}
	return run, err
}
