package store

import (
	"chronicle/internal/snapshot"
)

// LatestSnapshot returns a copy of the snapshot ProjectStateAtMessage would
// start from for targetTurn.
//
// Candidates are the initial snapshot plus every chapter snapshot at or
// before targetTurn. The greatest turn wins; at equal turns a chapter beats
// the initial snapshot and a higher chapter index beats a lower one.
//
// A chapter snapshot is usable only while its variant is still the canonical
// one for its turn. The initial snapshot is treated differently: it is only
// rejected when targetTurn is its own turn and the canonical variant there
// has changed. For later targets it is used as is, even if the variant it was
// built from is no longer canonical. Callers that switch the canonical variant
// of the initial turn are expected to call RebuildInitialSnapshot.
func (s *Store) LatestSnapshot(targetTurn int, resolver Resolver) (snapshot.Snapshot, bool) {
	best := s.selectSnapshot(targetTurn, resolver)
	if best == nil {
		return snapshot.Snapshot{}, false
	}
	return best.Clone(), true
}

func (s *Store) selectSnapshot(targetTurn int, resolver Resolver) *snapshot.Snapshot {
	var best *snapshot.Snapshot
	if s.initial != nil && initialUsable(s.initial, targetTurn, resolver) {
		best = s.initial
	}
	for i := range s.chapters {
		snap := &s.chapters[i]
		turn := snap.Source.TurnID
		if turn > targetTurn || snap.VariantID != resolver.CanonicalVariant(turn) {
			continue
		}
		if best == nil || preferred(snap, best) {
			best = snap
		}
	}
	return best
}

func initialUsable(initial *snapshot.Snapshot, targetTurn int, resolver Resolver) bool {
	turn := initial.Source.TurnID
	if targetTurn < turn {
		return false
	}
	if targetTurn == turn {
		return initial.VariantID == resolver.CanonicalVariant(turn)
	}
	return true
}

// preferred reports whether candidate should replace current.
func preferred(candidate, current *snapshot.Snapshot) bool {
	if candidate.Source.TurnID != current.Source.TurnID {
		return candidate.Source.TurnID > current.Source.TurnID
	}
	if current.IsInitial() {
		return true
	}
	return candidate.Chapter() > current.Chapter()
}
