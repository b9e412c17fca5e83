// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for the Sentry Monitoring exporter.
//
// Usage:
//
//	go run . [command]
//	./sentry-monitoring export
//
// See --help for the full command tree.
package main

import (
	"log"

	"github.com/Musatech/sentry-monitoring/ui/cli"
)

// main is the entrypoint for the sentry-monitoring CLI.
func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
