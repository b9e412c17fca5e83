// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

package export

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Backup compression modes.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// ValidCompression reports whether mode is a supported backup
// compression setting. An empty mode means none.
func ValidCompression(mode string) bool {
	return mode == "" || mode == CompressionNone || mode == CompressionZstd
}

// EncodeBackup applies the configured compression to a rendered snapshot.
// With CompressionNone the input is returned unchanged.
func EncodeBackup(data []byte, mode string) ([]byte, error) {
	switch mode {
	case "", CompressionNone:
		return data, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("export: creating zstd encoder: %w", err)
		}
		defer func() { _ = enc.Close() }()
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("export: unsupported compression %q", mode)
	}
}
