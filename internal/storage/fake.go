// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

package storage

import (
	"context"
	"sync"
)

// MemoryUploader is an in-memory Uploader for tests. It records objects
// and the order keys were uploaded in.
type MemoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	order   []string
	// Err, when set, is returned by every Upload call.
	Err error
}

// NewMemoryUploader returns an empty MemoryUploader.
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{objects: map[string][]byte{}}
}

// Upload stores the object in memory.
func (m *MemoryUploader) Upload(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	m.objects[key] = cp
	m.order = append(m.order, key)
	return nil
}

// Object returns the stored body for key.
func (m *MemoryUploader) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

// Keys returns the upload order.
func (m *MemoryUploader) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}
