package ingest

import (
	"context"
	"time"

	"chronicle/internal/chapter"
	"chronicle/internal/event"
	"chronicle/internal/store"
)

// Backend is the part of store.Backend that ingest uses.
type Backend interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context, conversation string) (store.Document, error)
	Save(ctx context.Context, conversation string, doc store.Document) error
	SourceHashes(ctx context.Context, conversation string) (map[string]string, error)
	PutSourceHash(ctx context.Context, conversation, path, hash string) error
}

type Result struct {
	FilesIngested    int
	FilesSkipped     int
	EventsAppended   int
	EventsDeleted    int
	InitialBuilt     bool
	SnapshotsRebuilt int
	ChaptersClosed   int
	Turns            []event.TurnRef
	Errors           []error
}

type Options struct {
	// Full re-ingests every file, ignoring stored hashes.
	Full bool
	// Chapters runs boundary detection on every ingested turn.
	Chapters bool

	Resolver store.Resolver
	Narrator chapter.Narrator
	Now      func() time.Time
}
