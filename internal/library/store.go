package library

import (
	"sync"
	"unicode/utf8"

	"golang.org/x/exp/slices"
)

// MaxLineLength is the maximum number of characters kept for a title or a line.
// Longer input is truncated, never rejected.
const MaxLineLength = 1023

// Book is the append-only line collection for one title.
// All fields except title are protected by the owning Store's mutex.
type Book struct {
	title  string   // Immutable after creation
	lines  []string // Line text in arrival order
	owners []uint64 // Session id per line, parallel to lines (0 = untagged)
}

// Title returns the book's title. Safe without locking since it never changes.
func (b *Book) Title() string {
	return b.title
}

// Stats contains statistics about the store
type Stats struct {
	Books int // Number of books
	Lines int // Number of lines across all books
	Bytes int // Total size of all line text in bytes
}

// Store holds every Book known to the process.
// A single exclusive mutex guards the book index, the traversal order and
// every book's line sequence. Books are never removed, so memory grows with
// the ingested text for the lifetime of the process.
type Store struct {
	mu          sync.Mutex       // Protects everything below
	books       map[string]*Book // Title index
	order       []*Book          // Creation order, used for traversal
	nextSession uint64           // Last issued session id
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		books: make(map[string]*Book),
	}
}

// FindOrCreateBook returns the book registered under title, creating and
// registering an empty one if none exists. The title is truncated to
// MaxLineLength characters before lookup.
//
// Returns:
//   - *Book: handle to the (possibly new) book
//   - bool: true if this call created the book
//
// Concurrent calls with the same new title create exactly one book.
func (s *Store) FindOrCreateBook(title string) (*Book, bool) {
	title = Truncate(title)

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, exists := s.books[title]; exists {
		return b, false
	}

	b := &Book{title: title}
	s.books[title] = b
	s.order = append(s.order, b)
	return b, true
}

// AppendLine appends line to the book, truncating it to MaxLineLength characters.
// Appends are never deduplicated.
func (s *Store) AppendLine(b *Book, line string) {
	s.appendLine(b, 0, line)
}

func (s *Store) appendLine(b *Book, owner uint64, line string) {
	line = Truncate(line)

	s.mu.Lock()
	defer s.mu.Unlock()

	b.lines = append(b.lines, line)
	b.owners = append(b.owners, owner)
}

// ForEachBook calls visit once per book, oldest book first, while holding the
// store lock. Each book's lines are passed in full append order as of the
// visit. The slice must be treated as read-only; it is capped so that
// appending to it never touches the store.
//
// visit must not call back into the Store.
func (s *Store) ForEachBook(visit func(title string, lines []string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.order {
		n := len(b.lines)
		visit(b.title, b.lines[:n:n])
	}
}

// Lines returns a copy of the book's full line sequence.
func (s *Store) Lines(b *Book) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(b.lines)
}

// Len returns the number of books in the store
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.order)
}

// Stats returns store statistics
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Books: len(s.order)}
	for _, b := range s.order {
		stats.Lines += len(b.lines)
		for _, line := range b.lines {
			stats.Bytes += len(line)
		}
	}
	return stats
}

// Truncate returns s cut to at most MaxLineLength characters.
func Truncate(s string) string {
	if len(s) <= MaxLineLength {
		return s
	}

	n := 0
	for i := range s {
		if n == MaxLineLength {
			return s[:i]
		}
		n++
	}
	return s
}

// MaxLineBytes is the largest encoding of a MaxLineLength-character line.
// Readers can stop buffering a line once they hold this many bytes.
const MaxLineBytes = MaxLineLength * utf8.UTFMax
