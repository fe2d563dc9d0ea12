package store

import (
	"chronicle/internal/event"
)

// Append adds events to the log and restores (turnId, timestamp) order.
func (s *Store) Append(events ...event.Event) {
	if len(events) == 0 {
		return
	}
	s.events = append(s.events, events...)
	event.Sort(s.events)
}

// DeleteAtTurn soft-deletes every live event extracted from ref and returns
// how many were deleted. Calling it again deletes nothing.
func (s *Store) DeleteAtTurn(ref event.TurnRef) int {
	return s.DeleteWhere(func(e event.Event) bool {
		return e.Source == ref
	})
}

// DeleteWhere soft-deletes every live event matching pred.
func (s *Store) DeleteWhere(pred func(event.Event) bool) int {
	deleted := 0
	for i := range s.events {
		if s.events[i].Deleted || !pred(s.events[i]) {
			continue
		}
		s.events[i].Deleted = true
		deleted++
	}
	return deleted
}

// Events returns the full log, deleted events included.
func (s *Store) Events() []event.Event {
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Active returns the live events in log order.
func (s *Store) Active() []event.Event {
	var out []event.Event
	for _, e := range s.events {
		if !e.Deleted {
			out = append(out, e)
		}
	}
	return out
}

// ActiveUpTo returns the live events whose turn is at most turnID.
func (s *Store) ActiveUpTo(turnID int) []event.Event {
	var out []event.Event
	for _, e := range s.events {
		if e.Source.TurnID > turnID {
			break
		}
		if !e.Deleted {
			out = append(out, e)
		}
	}
	return out
}

// Canonical returns the live events in (after, upTo] whose variant is the
// canonical one for their turn.
func (s *Store) Canonical(after, upTo int, resolver Resolver) []event.Event {
	var out []event.Event
	for _, e := range s.events {
		if e.Source.TurnID <= after || e.Deleted {
			continue
		}
		if e.Source.TurnID > upTo {
			break
		}
		if e.Source.VariantID == resolver.CanonicalVariant(e.Source.TurnID) {
			out = append(out, e)
		}
	}
	return out
}

// LastTimestamp returns the newest timestamp recorded for turnID, live or not.
func (s *Store) LastTimestamp(turnID int) (int64, bool) {
	var (
		last  int64
		found bool
	)
	for _, e := range s.events {
		if e.Source.TurnID != turnID {
			continue
		}
		if !found || e.Timestamp > last {
			last = e.Timestamp
			found = true
		}
	}
	return last, found
}

// Turns lists the distinct turn ids present in the live log, ascending.
func (s *Store) Turns() []int {
	var turns []int
	for _, e := range s.events {
		if e.Deleted {
			continue
		}
		if n := len(turns); n == 0 || turns[n-1] != e.Source.TurnID {
			turns = append(turns, e.Source.TurnID)
		}
	}
	return turns
}

// ReindexVariantsAfterDeletion closes the gap left by physically removing
// variant removed of turnID: every event and snapshot of that turn with a
// higher variant id moves down by one.
func (s *Store) ReindexVariantsAfterDeletion(turnID, removed int) {
	for i := range s.events {
		src := &s.events[i].Source
		if src.TurnID == turnID && src.VariantID > removed {
			src.VariantID--
		}
	}
	if s.initial != nil {
		reindexSnapshot(s.initial, turnID, removed)
	}
	for i := range s.chapters {
		reindexSnapshot(&s.chapters[i], turnID, removed)
	}
}
