// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/Musatech/sentry-monitoring/internal/model"
)

// EventModel maps the `events` table for Bun queries.
type EventModel struct {
	bun.BaseModel `bun:"table:events"`
	ID            int       `bun:"id,pk,autoincrement"`
	GroupID       string    `bun:"group_id"`
	EventID       string    `bun:"event_id"`
	ProjectID     string    `bun:"project_id"`
	EventType     string    `bun:"event_type"`
	Title         string    `bun:"title"`
	Message       string    `bun:"message"`
	Platform      string    `bun:"platform"`
	Culprit       string    `bun:"culprit"`
	CreatedAt     time.Time `bun:"created_at"`
	CollectID     string    `bun:"collect_id"`
	Material      string    `bun:"kind_of_material"`
	Packaging     string    `bun:"type_of_packaging"`
	ArchivedAt    time.Time `bun:"archived_at"`
}

// ExportRunModel maps the `export_runs` table.
type ExportRunModel struct {
	bun.BaseModel `bun:"table:export_runs"`
	ID            int       `bun:"id,pk,autoincrement"`
	StartedAt     time.Time `bun:"started_at"`
	FinishedAt    time.Time `bun:"finished_at"`
	EventCount    int       `bun:"event_count"`
	NewEvents     int       `bun:"new_events"`
	BackupKey     string    `bun:"backup_key"`
	LatestKey     string    `bun:"latest_key"`
	Status        string    `bun:"status"`
	Error         string    `bun:"error"`
}

// BunStore is the bun-backed Store implementation. One type serves all
// three dialects; dialect differences live in the migrations.
type BunStore struct {
	bun *bun.DB
}

// nowFunc allows tests to pin archive timestamps.
var nowFunc = time.Now

// UpsertEvents archives the events, skipping any whose event_id is
// already present. It returns the number of newly inserted rows.
//
// Inserts run outside an explicit transaction: Postgres aborts the whole
// transaction on a constraint violation, which would defeat the
// skip-on-duplicate behavior the three dialects need to share.
func (s *BunStore) UpsertEvents(events []model.Event) (int, error) {
	ctx := context.Background()

	archivedAt := nowFunc().UTC()
	inserted := 0
	for _, ev := range events {
		exists, err := s.bun.NewSelect().Model((*EventModel)(nil)).
			Where("event_id = ?", ev.EventID).Exists(ctx)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		m := eventToModel(ev)
		m.ArchivedAt = archivedAt
		if _, err := s.bun.NewInsert().Model(&m).Exec(ctx); err != nil {
			// A concurrent writer may have won the race; treat that as a skip.
			if errors.Is(MapDBError(err), ErrDuplicate) {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// GetAllEvents returns the archived events, newest first.
func (s *BunStore) GetAllEvents() ([]model.Event, error) {
	ctx := context.Background()

	var rows []EventModel
	if err := s.bun.NewSelect().Model(&rows).OrderExpr("created_at DESC, id DESC").Scan(ctx); err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, modelToEvent(r))
	}
	return events, nil
}

// GetEventByID looks up one archived event by its Sentry event ID.
func (s *BunStore) GetEventByID(eventID string) (*model.Event, error) {
	ctx := context.Background()

	var row EventModel
	err := s.bun.NewSelect().Model(&row).Where("event_id = ?", eventID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ev := modelToEvent(row)
	return &ev, nil
}

// CountEvents returns the number of archived events.
func (s *BunStore) CountEvents() (int, error) {
	return s.bun.NewSelect().Model((*EventModel)(nil)).Count(context.Background())
}

// RecordRun appends an export run record and returns its ID.
func (s *BunStore) RecordRun(run model.ExportRun) (int, error) {
	ctx := context.Background()

	m := ExportRunModel{
		StartedAt:  run.StartedAt.UTC(),
		FinishedAt: run.FinishedAt.UTC(),
		EventCount: run.EventCount,
		NewEvents:  run.NewEvents,
		BackupKey:  run.BackupKey,
		LatestKey:  run.LatestKey,
		Status:     run.Status,
		Error:      run.Error,
	}
	if _, err := s.bun.NewInsert().Model(&m).Exec(ctx); err != nil {
		return 0, err
	}
	return m.ID, nil
}

// GetRecentRuns returns up to limit run records, newest first.
func (s *BunStore) GetRecentRuns(limit int) ([]model.ExportRun, error) {
	ctx := context.Background()
	if limit <= 0 {
		limit = 20
	}

	var rows []ExportRunModel
	if err := s.bun.NewSelect().Model(&rows).OrderExpr("id DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, err
	}

	runs := make([]model.ExportRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, model.ExportRun{
			ID:         r.ID,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			EventCount: r.EventCount,
			NewEvents:  r.NewEvents,
			BackupKey:  r.BackupKey,
			LatestKey:  r.LatestKey,
			Status:     r.Status,
			Error:      r.Error,
		})
	}
	return runs, nil
}

// Close releases the underlying connections.
func (s *BunStore) Close() error {
	return s.bun.Close()
}

func eventToModel(ev model.Event) EventModel {
	return EventModel{
		GroupID:   ev.GroupID,
		EventID:   ev.EventID,
		ProjectID: ev.ProjectID,
		EventType: ev.Type,
		Title:     ev.Title,
		Message:   ev.Message,
		Platform:  ev.Platform,
		Culprit:   ev.Culprit,
		CreatedAt: ev.CreatedAt.UTC(),
		CollectID: ev.Collect.ID,
		Material:  ev.Collect.Material,
		Packaging: ev.Collect.Packaging,
	}
}

func modelToEvent(m EventModel) model.Event {
	return model.Event{
		GroupID:   m.GroupID,
		EventID:   m.EventID,
		ProjectID: m.ProjectID,
		Type:      m.EventType,
		Title:     m.Title,
		Message:   m.Message,
		Platform:  m.Platform,
		Culprit:   m.Culprit,
		CreatedAt: m.CreatedAt,
		Collect: model.CollectInfo{
			ID:        m.CollectID,
			Material:  m.Material,
			Packaging: m.Packaging,
		},
	}
}
