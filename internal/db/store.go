// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db is the data access layer: a bun-backed archive of exported
// events and export runs over SQLite, MySQL or PostgreSQL.
package db

import (
	"github.com/uptrace/bun"

	"github.com/Musatech/sentry-monitoring/internal/model"
)

// Store defines the archive operations. It allows multiple database
// backends and a fake in tests.
type Store interface {
	// Event archive
	UpsertEvents(events []model.Event) (inserted int, err error)
	GetAllEvents() ([]model.Event, error)
	GetEventByID(eventID string) (*model.Event, error)
	CountEvents() (int, error)

	// Export run log
	RecordRun(run model.ExportRun) (int, error)
	GetRecentRuns(limit int) ([]model.ExportRun, error)

	Close() error
}

// package-level store used by the helpers below.
var store Store

// IsInitialized reports whether the package-level store has been set.
func IsInitialized() bool {
	return store != nil
}

// SetStore overrides the package-level store. Intended for tests and
// alternative bootstraps.
func SetStore(s Store) {
	store = s
}

// GetStore returns the package-level store, or nil before New.
func GetStore() Store {
	return store
}

// BunDB exposes the underlying *bun.DB when the active store is
// bun-backed, for maintenance commands. Returns nil otherwise.
func BunDB() *bun.DB {
	if s, ok := store.(*BunStore); ok {
		return s.bun
	}
	return nil
}
