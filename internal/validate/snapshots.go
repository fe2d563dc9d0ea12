package validate

import (
	"context"
	"fmt"
	"reflect"

	"chronicle/internal/snapshot"
	"chronicle/internal/store"
)

func checkSnapshots(ctx context.Context, st *store.Store, resolver store.Resolver) ([]Issue, error) {
	var issues []Issue

	if _, ok := st.InitialSnapshot(); !ok {
		if len(st.Active()) > 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMissingInitial,
				Message:  "events exist but there is no initial snapshot",
			})
		}
		return issues, nil
	}

	for _, snap := range st.Snapshots() {
		if snap.IsInitial() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !st.ChapterClosedAt(snap.Chapter(), snap.Source) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeOrphanedSnapshot,
				Message:  fmt.Sprintf("chapter %d snapshot has no chapter/ended event at %s", snap.Chapter(), snap.Source),
				Turn:     snap.Source.String(),
			})
			continue
		}
		if snap.VariantID != resolver.CanonicalVariant(snap.Source.TurnID) {
			continue
		}

		drift, err := drifted(st, snap, resolver)
		if err != nil {
			return nil, err
		}
		if drift {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeSnapshotDrift,
				Message:  fmt.Sprintf("chapter %d snapshot disagrees with a replay from the initial snapshot", snap.Chapter()),
				Turn:     snap.Source.String(),
			})
		}
	}
	return issues, nil
}

func drifted(st *store.Store, snap snapshot.Snapshot, resolver store.Resolver) (bool, error) {
	replayed, err := st.ProjectFromInitial(snap.Source.TurnID, resolver)
	if err != nil {
		return false, fmt.Errorf("replaying chapter %d: %w", snap.Chapter(), err)
	}
	meta := snapshot.Meta{
		Type:         snap.Type,
		ChapterIndex: snap.ChapterIndex,
		Source:       snap.Source,
		CreatedAt:    snap.CreatedAt,
	}
	stored := snapshot.FromProjection(snapshot.ToProjection(snap), meta)
	fresh := snapshot.FromProjection(replayed, meta)
	return !reflect.DeepEqual(stored, fresh), nil
}
