package event

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable fact extracted from one turn variant. The only
// permitted mutations are soft deletion and variant reindexing, both owned by
// the store.
type Event struct {
	ID        string
	Source    TurnRef
	Timestamp int64 // unix milliseconds
	Deleted   bool
	Payload   Payload
}

// New stamps payload with a fresh id for the given turn.
func New(source TurnRef, at time.Time, payload Payload) Event {
	return Event{
		ID:        uuid.NewString(),
		Source:    source,
		Timestamp: ToMillis(at),
		Payload:   payload,
	}
}

func (e Event) Kind() Kind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

func (e Event) Subkind() Subkind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Subkind()
}

// Known reports whether the payload belongs to the recognised set.
func (e Event) Known() bool {
	if e.Payload == nil {
		return false
	}
	_, unknown := e.Payload.(Unknown)
	return !unknown
}

// Compare orders events by turn then timestamp.
func Compare(a, b Event) int {
	if a.Source.TurnID != b.Source.TurnID {
		if a.Source.TurnID < b.Source.TurnID {
			return -1
		}
		return 1
	}
	switch {
	case a.Timestamp < b.Timestamp:
		return -1
	case a.Timestamp > b.Timestamp:
		return 1
	}
	return 0
}

// Sort orders events by (turnId, timestamp), keeping the relative order of ties.
func Sort(events []Event) {
	slices.SortStableFunc(events, Compare)
}

func ToMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func FromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
