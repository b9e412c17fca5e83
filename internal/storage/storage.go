// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// Package storage abstracts the object store the snapshots are uploaded
// to. The production implementation targets S3; tests use the in-memory
// fake.
package storage

import "context"

// Uploader writes one object to the configured bucket.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// Content types used for snapshot uploads.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeZstd = "application/zstd"
)
