package store

import (
	"fmt"

	"chronicle/internal/event"
	"chronicle/internal/reducer"
	"chronicle/internal/snapshot"
)

// ProjectStateAtMessage reconstructs narrative state as of targetTurn: it
// starts from the best usable snapshot and replays the canonical live events
// after it. The result belongs to the caller.
func (s *Store) ProjectStateAtMessage(targetTurn int, resolver Resolver) (*snapshot.Projection, error) {
	base := s.selectSnapshot(targetTurn, resolver)
	if base == nil {
		return nil, fmt.Errorf("projecting turn %d: %w", targetTurn, ErrNoSnapshotAvailable)
	}
	return s.replayFrom(base, targetTurn, resolver), nil
}

// ProjectFromInitial reconstructs state at targetTurn from the initial
// snapshot alone, ignoring chapter snapshots. It must always agree with
// ProjectStateAtMessage.
func (s *Store) ProjectFromInitial(targetTurn int, resolver Resolver) (*snapshot.Projection, error) {
	if s.initial == nil || !initialUsable(s.initial, targetTurn, resolver) {
		return nil, fmt.Errorf("projecting turn %d from initial: %w", targetTurn, ErrNoSnapshotAvailable)
	}
	return s.replayFrom(s.initial, targetTurn, resolver), nil
}

func (s *Store) replayFrom(base *snapshot.Snapshot, targetTurn int, resolver Resolver) *snapshot.Projection {
	p := snapshot.ToProjection(*base)
	reducer.Replay(p, s.Canonical(base.Source.TurnID, targetTurn, resolver))
	p.Source = event.Ref(targetTurn, resolver.CanonicalVariant(targetTurn))
	return p
}
