package library

// Session is one writer's view of a Book. Lines appended through a session are
// tagged with its id, so the writer can later read back exactly its own
// contribution even when other sessions share the same Book.
type Session struct {
	store *Store
	book  *Book
	id    uint64
}

// NewSession opens a session on b with a store-unique id.
func (s *Store) NewSession(b *Book) *Session {
	s.mu.Lock()
	s.nextSession++
	id := s.nextSession
	s.mu.Unlock()

	return &Session{store: s, book: b, id: id}
}

// ID returns the session id
func (ss *Session) ID() uint64 {
	return ss.id
}

// Book returns the book this session writes to
func (ss *Session) Book() *Book {
	return ss.book
}

// Append appends line to the session's book.
func (ss *Session) Append(line string) {
	ss.store.appendLine(ss.book, ss.id, line)
}

// Lines returns the lines appended through this session, in append order.
// Read under the store lock, so the result is a consistent snapshot.
func (ss *Session) Lines() []string {
	ss.store.mu.Lock()
	defer ss.store.mu.Unlock()

	lines := make([]string, 0)
	for i, owner := range ss.book.owners {
		if owner == ss.id {
			lines = append(lines, ss.book.lines[i])
		}
	}
	return lines
}
