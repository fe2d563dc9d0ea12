package store

// EditSession stages changes against a private clone of a store. Nothing is
// visible in the live store until Commit.
type EditSession struct {
	live   *Store
	work   *Store
	closed bool
}

func (s *Store) BeginEdit() *EditSession {
	return &EditSession{live: s, work: s.Clone()}
}

// Work is the staged store. It must not be used after Commit or Cancel.
func (e *EditSession) Work() *Store {
	return e.work
}

// Commit replaces the live store's contents with the staged ones.
func (e *EditSession) Commit() error {
	if e.closed {
		return ErrSessionClosed
	}
	*e.live = *e.work
	e.work = nil
	e.closed = true
	return nil
}

// Cancel drops the staged changes. Cancelling twice is harmless.
func (e *EditSession) Cancel() {
	e.work = nil
	e.closed = true
}
