// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model contains the core domain types shared across the
// application: Sentry events as we flatten them, the collect payload dug
// out of stack frames, and export run records.
package model

import (
	"fmt"
	"time"
)

// CollectInfo is the request payload recovered from a captured event's
// stack-frame variables. The upstream service posts collection reports
// (id, material, packaging) and Sentry snapshots the request body as a
// frame var named "body".
type CollectInfo struct {
	ID        string
	Material  string
	Packaging string
}

// IsZero reports whether no collect payload was found for an event.
func (c CollectInfo) IsZero() bool {
	return c.ID == "" && c.Material == "" && c.Packaging == ""
}

// Event is the flattened view of a Sentry event, exactly the columns the
// CSV snapshot carries.
type Event struct {
	GroupID   string
	EventID   string
	ProjectID string
	Type      string
	Title     string
	Message   string
	Platform  string
	Culprit   string
	CreatedAt time.Time
	Collect   CollectInfo
}

// String returns a short identifier for logs and listings.
func (e Event) String() string {
	return fmt.Sprintf("%s (%s)", e.EventID, e.Title)
}

// ExportRun records one execution of the export pipeline.
type ExportRun struct {
	ID         int
	StartedAt  time.Time
	FinishedAt time.Time
	EventCount int
	NewEvents  int
	BackupKey  string
	LatestKey  string
	Status     string
	Error      string
}

// Export run status values.
const (
	RunStatusOK     = "ok"
	RunStatusEmpty  = "empty"
	RunStatusFailed = "failed"
)
