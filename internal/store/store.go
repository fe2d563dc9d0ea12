// Package store holds the event log and snapshots for one conversation and
// projects narrative state from them. A Store is single-writer and does no
// locking of its own.
package store

import (
	"context"

	"chronicle/internal/event"
	"chronicle/internal/snapshot"
)

// Backend persists serialized stores, one document per conversation.
type Backend interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	Save(ctx context.Context, conversation string, doc Document) error
	Load(ctx context.Context, conversation string) (Document, error)
	Delete(ctx context.Context, conversation string) error
	ListConversations(ctx context.Context) ([]ConversationSummary, error)

	SourceHashes(ctx context.Context, conversation string) (map[string]string, error)
	PutSourceHash(ctx context.Context, conversation, path, hash string) error

	SearchChapters(ctx context.Context, conversation, query string) ([]ChapterHit, error)
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Store is the event log plus its snapshots.
type Store struct {
	events   []event.Event
	initial  *snapshot.Snapshot
	chapters []snapshot.Snapshot
}

func New() *Store {
	return &Store{}
}

// Clone returns a structurally independent copy of s.
func (s *Store) Clone() *Store {
	out := &Store{
		events:   make([]event.Event, len(s.events)),
		chapters: make([]snapshot.Snapshot, 0, len(s.chapters)),
	}
	copy(out.events, s.events)
	if s.initial != nil {
		initial := s.initial.Clone()
		out.initial = &initial
	}
	for _, snap := range s.chapters {
		out.chapters = append(out.chapters, snap.Clone())
	}
	return out
}
