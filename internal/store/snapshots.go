package store

import (
	"slices"

	"chronicle/internal/event"
	"chronicle/internal/reducer"
	"chronicle/internal/snapshot"
)

// InitialSnapshot returns a copy of the initial snapshot.
func (s *Store) InitialSnapshot() (snapshot.Snapshot, bool) {
	if s.initial == nil {
		return snapshot.Snapshot{}, false
	}
	return s.initial.Clone(), true
}

func (s *Store) SetInitialSnapshot(snap snapshot.Snapshot) {
	snap = snap.Clone()
	snap.Type = snapshot.TypeInitial
	snap.ChapterIndex = nil
	s.initial = &snap
}

// BuildInitialSnapshot freezes the canonical events of turnID into the initial
// snapshot, replacing any existing one.
func (s *Store) BuildInitialSnapshot(turnID int, resolver Resolver, createdAt int64) snapshot.Snapshot {
	source := event.Ref(turnID, resolver.CanonicalVariant(turnID))
	p := snapshot.NewProjection(source)
	reducer.Replay(p, s.Canonical(turnID-1, turnID, resolver))

	snap := snapshot.FromProjection(p, snapshot.Meta{
		Type:      snapshot.TypeInitial,
		Source:    source,
		CreatedAt: createdAt,
	})
	s.initial = &snap
	return snap.Clone()
}

// RebuildInitialSnapshot recreates the initial snapshot at its own turn from
// that turn's canonical variant.
func (s *Store) RebuildInitialSnapshot(resolver Resolver, createdAt int64) (snapshot.Snapshot, error) {
	if s.initial == nil {
		return snapshot.Snapshot{}, ErrNotFound
	}
	return s.BuildInitialSnapshot(s.initial.Source.TurnID, resolver, createdAt), nil
}

// PutChapterSnapshot stores snap, replacing any snapshot for the same chapter.
func (s *Store) PutChapterSnapshot(snap snapshot.Snapshot) {
	snap = snap.Clone()
	snap.Type = snapshot.TypeChapter
	s.RemoveChapterSnapshot(snap.Chapter())
	s.chapters = append(s.chapters, snap)
	slices.SortStableFunc(s.chapters, func(a, b snapshot.Snapshot) int {
		return a.Chapter() - b.Chapter()
	})
}

// RemoveChapterSnapshot drops the snapshot closing chapter index and reports
// whether one existed.
func (s *Store) RemoveChapterSnapshot(index int) bool {
	before := len(s.chapters)
	s.chapters = slices.DeleteFunc(s.chapters, func(snap snapshot.Snapshot) bool {
		return snap.Chapter() == index
	})
	return len(s.chapters) != before
}

func (s *Store) ChapterSnapshot(index int) (snapshot.Snapshot, bool) {
	for _, snap := range s.chapters {
		if snap.Chapter() == index {
			return snap.Clone(), true
		}
	}
	return snapshot.Snapshot{}, false
}

// Snapshots returns copies of every snapshot, initial first, then chapters by
// index.
func (s *Store) Snapshots() []snapshot.Snapshot {
	out := make([]snapshot.Snapshot, 0, len(s.chapters)+1)
	if s.initial != nil {
		out = append(out, s.initial.Clone())
	}
	for _, snap := range s.chapters {
		out = append(out, snap.Clone())
	}
	return out
}

func reindexSnapshot(snap *snapshot.Snapshot, turnID, removed int) {
	if snap.Source.TurnID != turnID || snap.Source.VariantID <= removed {
		return
	}
	snap.Source.VariantID--
	snap.VariantID--
}
