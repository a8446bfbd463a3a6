// Package library implements the in-memory Line Store shared by every
// ingestion connection and by the pattern scanner.
//
// # Overview
//
// The store maps a title to a Book. A Book owns an append-only sequence of
// lines in arrival order. Books are created on first sight of a title and
// live until the process exits; there is no eviction.
//
// # Architecture
//
//	┌──────────────────────────────────────────┐
//	│                 Store                    │
//	│   mu (sync.Mutex) guards all of below    │
//	├──────────────────────────────────────────┤
//	│  books: map[title]*Book   (lookup)       │
//	│  order: []*Book           (traversal)    │
//	└──────────────────────────────────────────┘
//	         │                  │
//	         ▼                  ▼
//	┌────────────────┐  ┌────────────────┐
//	│ Book "Shared"  │  │ Book "Moby.."  │
//	│ lines  []string│  │ lines  []string│
//	│ owners []uint64│  │ owners []uint64│
//	└────────────────┘  └────────────────┘
//
// # Core Operations
//
//   - FindOrCreateBook(title): atomic lookup-or-insert, one Book per title
//   - AppendLine(book, line): append under the store lock
//   - ForEachBook(visit): traverse every Book once, oldest first, under the lock
//   - NewSession(book): per-writer handle whose appends can be read back alone
//
// # Concurrency and Thread Safety
//
// One exclusive lock covers the whole store. Every operation that touches the
// index or a line sequence takes it, so all store operations are totally
// ordered. A scan therefore sees each Book with the lines that were appended
// before it took the lock; a concurrent writer waits for the scan to finish.
//
// Line slices are only ever appended to. A slice header captured under the
// lock stays valid after the lock is released: later appends either write
// past its length or move to a new backing array.
//
// # Bounded Length
//
// Titles and lines are truncated to MaxLineLength (1023) characters. Input
// beyond that is dropped silently; nothing is rejected.
//
// # Memory Management
//
// All data lives on the heap and is never freed while the process runs.
// Memory use grows with the total ingested text.
package library
