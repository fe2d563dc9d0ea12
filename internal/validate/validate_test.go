package validate

import (
	"context"
	"fmt"
	"testing"

	"chronicle/internal/config"
	"chronicle/internal/event"
	"chronicle/internal/narrative"
	"chronicle/internal/snapshot"
	"chronicle/internal/store"
)

var nextID int

func evt(turn int, ts int64, payload event.Payload) event.Event {
	nextID++
	return event.Event{
		ID:        fmt.Sprintf("v-%d", nextID),
		Source:    event.Ref(turn, 0),
		Timestamp: ts,
		Payload:   payload,
	}
}

func defaultSchema(t *testing.T) *config.Schema {
	t.Helper()
	schema, err := config.ParseSchema([]byte(config.DefaultSchema))
	if err != nil {
		t.Fatalf("parse default schema: %v", err)
	}
	return schema
}

// healthy returns a store with an initial snapshot and one closed chapter at turn 2.
func healthy(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	s.Append(evt(0, 1, event.TimeInitial{Time: narrative.Time{Year: 1203, Month: 3, Day: 14, Hour: 10}}))
	s.BuildInitialSnapshot(0, store.FixedResolver{}, 1)
	s.Append(
		evt(1, 2, event.TimeDelta{Delta: narrative.TimeDelta{Hours: 1}}),
		evt(2, 3, event.TimeDelta{Delta: narrative.TimeDelta{Hours: 8}}),
		evt(2, 4, event.ChapterEnded{ChapterIndex: 0, Reason: event.ReasonTimeJump}),
	)
	freeze(t, s, 0, event.Ref(2, 0))
	return s
}

func freeze(t *testing.T, s *store.Store, index int, at event.TurnRef) snapshot.Snapshot {
	t.Helper()
	p, err := s.ProjectFromInitial(at.TurnID, store.FixedResolver{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	snap := snapshot.FromProjection(p, snapshot.Meta{
		Type:         snapshot.TypeChapter,
		ChapterIndex: &index,
		Source:       at,
		CreatedAt:    5,
	})
	s.PutChapterSnapshot(snap)
	return snap
}

func codes(report *Report) map[string]int {
	out := make(map[string]int)
	for _, issue := range report.Issues {
		out[issue.Code]++
	}
	return out
}

func TestRunCleanStore(t *testing.T) {
	report, err := Run(context.Background(), defaultSchema(t), healthy(t), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	if report.HasErrors() {
		t.Fatalf("HasErrors() = true for a clean store")
	}
}

func TestRunMissingInitial(t *testing.T) {
	s := store.New()
	s.Append(evt(0, 1, event.TimeDelta{Delta: narrative.TimeDelta{Minutes: 5}}))

	report, err := Run(context.Background(), nil, s, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if codes(report)[codeMissingInitial] != 1 {
		t.Fatalf("expected %s, got %+v", codeMissingInitial, report.Issues)
	}
	if !report.HasErrors() {
		t.Fatalf("missing initial snapshot should be an error")
	}
}

func TestRunEmptyStoreIsClean(t *testing.T) {
	report, err := Run(context.Background(), nil, store.New(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestRunOrphanedChapterSnapshot(t *testing.T) {
	s := healthy(t)
	freeze(t, s, 4, event.Ref(1, 0))

	report, err := Run(context.Background(), nil, s, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := codes(report)
	if got[codeOrphanedSnapshot] != 1 {
		t.Fatalf("expected one orphan, got %+v", report.Issues)
	}
	if got[codeSnapshotDrift] != 0 {
		t.Fatalf("orphans should not also report drift: %+v", report.Issues)
	}
}

func TestRunSnapshotDrift(t *testing.T) {
	s := healthy(t)
	snap, ok := s.ChapterSnapshot(0)
	if !ok {
		t.Fatalf("chapter 0 snapshot missing")
	}
	tampered := snap.Clone()
	tampered.Time.Hour = 23
	s.PutChapterSnapshot(tampered)

	report, err := Run(context.Background(), nil, s, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if codes(report)[codeSnapshotDrift] != 1 {
		t.Fatalf("expected drift, got %+v", report.Issues)
	}
	if report.Issues[0].Turn != event.Ref(2, 0).String() {
		t.Fatalf("drift turn = %q", report.Issues[0].Turn)
	}
}

func TestRunSkipsDriftForNonCanonicalSnapshot(t *testing.T) {
	s := healthy(t)
	snap, _ := s.ChapterSnapshot(0)
	tampered := snap.Clone()
	tampered.Time.Hour = 23
	s.PutChapterSnapshot(tampered)

	report, err := Run(context.Background(), nil, s, store.FixedResolver{2: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if codes(report)[codeSnapshotDrift] != 0 {
		t.Fatalf("non-canonical snapshot should not be compared: %+v", report.Issues)
	}
}

func TestRunEnumValues(t *testing.T) {
	s := healthy(t)
	s.Append(
		evt(3, 6, event.RelationshipStatusChanged{A: "Aldo", B: "Mira", Status: "frenemies"}),
		evt(3, 7, event.SceneTension{Tension: narrative.Tension{Level: "HIGH", Direction: "sideways", Type: "conflict"}}),
		evt(3, 8, event.RelationshipStatusChanged{A: "Aldo", B: "Mira", Status: narrative.StatusFriendly}),
	)

	report, err := Run(context.Background(), defaultSchema(t), s, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := codes(report)[codeEnumInvalid]; n != 2 {
		t.Fatalf("expected 2 enum issues, got %d: %+v", n, report.Issues)
	}
	for _, issue := range report.Issues {
		if issue.Severity != SeverityWarn {
			t.Fatalf("enum issue severity = %q", issue.Severity)
		}
	}
	if report.HasErrors() {
		t.Fatalf("enum drift should only warn")
	}
}

func TestRunUnknownKindAndDuplicateIDs(t *testing.T) {
	s := healthy(t)
	unknown := evt(3, 6, event.Unknown{RawKind: "weather", RawSubkind: "storm"})
	dup := evt(3, 7, event.TimeDelta{Delta: narrative.TimeDelta{Minutes: 1}})
	dup.ID = unknown.ID
	s.Append(unknown, dup)

	report, err := Run(context.Background(), defaultSchema(t), s, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := codes(report)
	if got[codeUnknownKind] != 1 {
		t.Fatalf("expected unknown kind warning, got %+v", report.Issues)
	}
	if got[codeDuplicateID] != 1 {
		t.Fatalf("expected duplicate id error, got %+v", report.Issues)
	}
}

func TestRunRequiresStore(t *testing.T) {
	if _, err := Run(context.Background(), nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, nil, healthy(t), nil); err == nil {
		t.Fatalf("expected context error")
	}
}
