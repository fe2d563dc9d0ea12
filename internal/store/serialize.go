package store

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"chronicle/internal/event"
	"chronicle/internal/snapshot"
)

// FormatVersion is the current serialized document version.
const FormatVersion = 1

// Document is the persisted form of a Store.
type Document struct {
	Version   int                 `json:"version"`
	Events    []event.Event       `json:"events"`
	Snapshots []snapshot.Snapshot `json:"snapshots"`
}

type rawDocument struct {
	Version   *int                 `json:"version"`
	Events    *[]event.Event       `json:"events"`
	Snapshots *[]snapshot.Snapshot `json:"snapshots"`
}

// Serialize captures the whole store, deleted events included.
func (s *Store) Serialize() Document {
	return Document{
		Version:   FormatVersion,
		Events:    s.Events(),
		Snapshots: s.Snapshots(),
	}
}

func (s *Store) Marshal() ([]byte, error) {
	data, err := json.Marshal(s.Serialize())
	if err != nil {
		return nil, fmt.Errorf("marshaling store: %w", err)
	}
	return data, nil
}

// Deserialize rebuilds a store from Marshal output.
func Deserialize(data []byte) (*Store, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	switch {
	case raw.Version == nil:
		return nil, fmt.Errorf("%w: missing version", ErrMalformedData)
	case raw.Events == nil:
		return nil, fmt.Errorf("%w: missing events", ErrMalformedData)
	case raw.Snapshots == nil:
		return nil, fmt.Errorf("%w: missing snapshots", ErrMalformedData)
	}
	return FromDocument(Document{
		Version:   *raw.Version,
		Events:    *raw.Events,
		Snapshots: *raw.Snapshots,
	})
}

// FromDocument rebuilds a store from a decoded document.
func FromDocument(doc Document) (*Store, error) {
	if doc.Version < 1 || doc.Version > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedData, doc.Version)
	}

	s := New()
	for i, e := range doc.Events {
		if e.Payload == nil {
			return nil, fmt.Errorf("%w: event %d has no payload", ErrMalformedData, i)
		}
	}
	s.events = make([]event.Event, len(doc.Events))
	copy(s.events, doc.Events)
	event.Sort(s.events)

	for i, snap := range doc.Snapshots {
		switch snap.Type {
		case snapshot.TypeInitial:
			if s.initial != nil {
				return nil, fmt.Errorf("%w: more than one initial snapshot", ErrMalformedData)
			}
			s.SetInitialSnapshot(snap)
		case snapshot.TypeChapter:
			if snap.ChapterIndex == nil {
				return nil, fmt.Errorf("%w: chapter snapshot %d has no chapter index", ErrMalformedData, i)
			}
			s.PutChapterSnapshot(snap)
		default:
			return nil, fmt.Errorf("%w: snapshot %d has type %q", ErrMalformedData, i, snap.Type)
		}
	}
	return s, nil
}

// DeserializeOrEmpty is Deserialize that falls back to an empty store.
func DeserializeOrEmpty(data []byte) *Store {
	s, err := Deserialize(data)
	if err != nil {
		logrus.Warnf("store: discarding unreadable document: %v", err)
		return New()
	}
	return s
}
