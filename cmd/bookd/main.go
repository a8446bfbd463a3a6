// Package main implements bookd, a line ingestion service that accumulates
// text sent over TCP into in-memory books and periodically reports how often
// a search term occurs in each of them.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                 bookd                   │
//	├─────────────────────────────────────────┤
//	│  TCP :port      - Ingestion connections │
//	│  HTTP metrics   - /metrics /health /info│
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    server.Server    - Accept loop       │
//	│    ingest.Handler   - Per connection    │
//	│    library.Store    - Shared books      │
//	│    scanner.Scanner  - Recurring scan    │
//	│    export.FileSink  - book_NN.txt files │
//	└─────────────────────────────────────────┘
//
// Example usage:
//
//	# Start the service
//	bookd -l 9000 -p whale --export-dir ./books
//
//	# Send a book
//	printf 'Moby Dick\nCall me Ishmael\n' | nc -q0 localhost 9000
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
