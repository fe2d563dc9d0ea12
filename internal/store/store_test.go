package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"chronicle/internal/event"
	"chronicle/internal/narrative"
	"chronicle/internal/snapshot"
)

var seq int

func at(turn, variant int, ts int64, payload event.Payload) event.Event {
	seq++
	return event.Event{
		ID:        fmt.Sprintf("evt-%d", seq),
		Source:    event.Ref(turn, variant),
		Timestamp: ts,
		Payload:   payload,
	}
}

func hours(h int) event.TimeDelta {
	return event.TimeDelta{Delta: narrative.TimeDelta{Hours: h}}
}

func morning() event.TimeInitial {
	return event.TimeInitial{Time: narrative.Time{Year: 1203, Month: 3, Day: 14, Hour: 10}}
}

// seeded returns a store with an initial snapshot at turn 0 holding 10:00.
func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.Append(at(0, 0, 1, morning()))
	s.BuildInitialSnapshot(0, FixedResolver{}, 100)
	return s
}

func hourAt(t *testing.T, s *Store, turn int, resolver Resolver) int {
	t.Helper()
	p, err := s.ProjectStateAtMessage(turn, resolver)
	require.NoError(t, err)
	require.NotNil(t, p.Time)
	return p.Time.Hour
}

func closeChapter(t *testing.T, s *Store, index int, trigger event.TurnRef, resolver Resolver) {
	t.Helper()
	p, err := s.ProjectFromInitial(trigger.TurnID, resolver)
	require.NoError(t, err)
	s.PutChapterSnapshot(snapshot.FromProjection(p, snapshot.Meta{
		Type:         snapshot.TypeChapter,
		ChapterIndex: &index,
		Source:       trigger,
	}))
}

func TestAppendKeepsTurnTimestampOrder(t *testing.T) {
	s := New()
	late := at(2, 0, 5, hours(1))
	early := at(1, 0, 9, hours(1))
	tieA := at(1, 0, 3, hours(1))
	tieB := at(1, 0, 3, hours(2))
	s.Append(late, early)
	s.Append(tieA, tieB)

	var ids []string
	for _, e := range s.Events() {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []string{tieA.ID, tieB.ID, early.ID, late.ID}, ids)
	require.Equal(t, []int{1, 2}, s.Turns())
	require.Len(t, s.ActiveUpTo(1), 3)
}

func TestSnapshotTransparency(t *testing.T) {
	s := seeded(t)
	resolver := FixedResolver{}
	s.Append(
		at(1, 0, 10, hours(2)),
		at(2, 0, 20, hours(3)),
		at(6, 0, 60, hours(1)),
	)
	closeChapter(t, s, 0, event.Ref(2, 0), resolver)

	snap, ok := s.ChapterSnapshot(0)
	require.True(t, ok)
	require.Equal(t, 15, snap.Time.Hour)

	viaSnapshot, err := s.ProjectStateAtMessage(6, resolver)
	require.NoError(t, err)
	viaInitial, err := s.ProjectFromInitial(6, resolver)
	require.NoError(t, err)

	require.Equal(t, 16, viaSnapshot.Time.Hour)
	require.Equal(t, viaInitial, viaSnapshot)

	chosen, ok := s.LatestSnapshot(6, resolver)
	require.True(t, ok)
	require.Equal(t, 0, chosen.Chapter())
}

func TestCanonicalFiltering(t *testing.T) {
	s := seeded(t)
	s.Append(
		at(1, 0, 10, hours(2)),
		at(1, 1, 11, hours(5)),
	)

	require.Equal(t, 15, hourAt(t, s, 1, FixedResolver{1: 1}))
	require.Equal(t, 12, hourAt(t, s, 1, FixedResolver{}))
	require.Equal(t, 15, hourAt(t, s, 1, ResolverFunc(func(int) int { return 1 })))
}

func TestStaleChapterSnapshotIsSkipped(t *testing.T) {
	s := seeded(t)
	s.Append(
		at(1, 0, 10, hours(2)),
		at(1, 1, 11, hours(5)),
	)
	closeChapter(t, s, 0, event.Ref(1, 0), FixedResolver{})

	chosen, ok := s.LatestSnapshot(3, FixedResolver{1: 1})
	require.True(t, ok)
	require.True(t, chosen.IsInitial())
	require.Equal(t, 15, hourAt(t, s, 3, FixedResolver{1: 1}))
}

func TestInitialSnapshotVariantCheckOnlyAtItsTurn(t *testing.T) {
	s := seeded(t)
	s.Append(at(1, 0, 10, hours(1)))
	switched := FixedResolver{0: 1}

	_, err := s.ProjectStateAtMessage(0, switched)
	require.ErrorIs(t, err, ErrNoSnapshotAvailable)

	require.Equal(t, 11, hourAt(t, s, 1, switched))

	s.Append(at(0, 1, 2, event.TimeInitial{Time: narrative.Time{Year: 1203, Month: 3, Day: 14, Hour: 20}}))
	rebuilt, err := s.RebuildInitialSnapshot(switched, 200)
	require.NoError(t, err)
	require.Equal(t, 1, rebuilt.VariantID)
	require.Equal(t, 20, hourAt(t, s, 0, switched))
	require.Equal(t, 21, hourAt(t, s, 1, switched))
}

func TestProjectionBoundaries(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		_, err := New().ProjectStateAtMessage(4, FixedResolver{})
		require.True(t, errors.Is(err, ErrNoSnapshotAvailable))
	})

	t.Run("target before initial", func(t *testing.T) {
		s := New()
		s.Append(at(3, 0, 1, morning()))
		s.BuildInitialSnapshot(3, FixedResolver{}, 0)
		_, err := s.ProjectStateAtMessage(2, FixedResolver{})
		require.ErrorIs(t, err, ErrNoSnapshotAvailable)
	})

	t.Run("no events after snapshot", func(t *testing.T) {
		s := seeded(t)
		initial, _ := s.InitialSnapshot()
		p, err := s.ProjectStateAtMessage(9, FixedResolver{})
		require.NoError(t, err)
		require.Equal(t, event.Ref(9, 0), p.Source)

		frozen := snapshot.FromProjection(p, snapshot.Meta{Type: snapshot.TypeInitial, Source: initial.Source, CreatedAt: initial.CreatedAt})
		require.Equal(t, initial, frozen)
	})

	t.Run("result is a private copy", func(t *testing.T) {
		s := seeded(t)
		p, err := s.ProjectStateAtMessage(0, FixedResolver{})
		require.NoError(t, err)
		p.Time.Hour = 23
		p.Character("Mira")
		require.Equal(t, 10, hourAt(t, s, 0, FixedResolver{}))
		initial, _ := s.InitialSnapshot()
		require.Empty(t, initial.Characters)
	})
}

func TestSoftDeleteAndReindex(t *testing.T) {
	s := seeded(t)
	s.Append(
		at(3, 0, 30, hours(1)),
		at(3, 1, 31, hours(2)),
		at(3, 1, 32, event.LocationPropAdded{Prop: "lantern"}),
		at(3, 2, 33, hours(3)),
	)
	closeChapter(t, s, 0, event.Ref(3, 2), FixedResolver{3: 2})

	require.Equal(t, 2, s.DeleteAtTurn(event.Ref(3, 1)))
	require.Equal(t, 0, s.DeleteAtTurn(event.Ref(3, 1)))
	require.Len(t, s.Events(), 5)
	require.Len(t, s.Active(), 3)

	s.ReindexVariantsAfterDeletion(3, 1)

	var variants []int
	for _, e := range s.Events() {
		if e.Source.TurnID == 3 {
			variants = append(variants, e.Source.VariantID)
		}
	}
	require.Equal(t, []int{0, 1, 1, 1}, variants)

	snap, ok := s.ChapterSnapshot(0)
	require.True(t, ok)
	require.Equal(t, event.Ref(3, 1), snap.Source)
	require.Equal(t, 1, snap.VariantID)

	require.Equal(t, 13, hourAt(t, s, 3, FixedResolver{3: 1}))
	chosen, _ := s.LatestSnapshot(3, FixedResolver{3: 1})
	require.Equal(t, 0, chosen.Chapter())
}

func TestDeleteWhere(t *testing.T) {
	s := seeded(t)
	s.Append(
		at(1, 0, 10, event.ChapterEnded{ChapterIndex: 0, Reason: event.ReasonManual}),
		at(1, 0, 11, event.ChapterDescribed{ChapterIndex: 0, Title: "Old"}),
	)
	n := s.DeleteWhere(func(e event.Event) bool {
		d, ok := e.Payload.(event.ChapterDescribed)
		return ok && d.ChapterIndex == 0
	})
	require.Equal(t, 1, n)
	_, ok := s.ChapterDescription(0, FixedResolver{})
	require.False(t, ok)
	_, ok = s.ChapterEnd(0, FixedResolver{})
	require.True(t, ok)
}

func TestChapters(t *testing.T) {
	s := seeded(t)
	s.Append(
		at(2, 0, 20, event.ChapterEnded{ChapterIndex: 0, Reason: event.ReasonTimeJump}),
		at(2, 0, 21, event.ChapterDescribed{ChapterIndex: 0, Title: "Arrival", Summary: "They land."}),
		at(2, 1, 22, event.ChapterEnded{ChapterIndex: 0, Reason: event.ReasonLocationChange}),
		at(5, 0, 50, event.ChapterEnded{ChapterIndex: 1, Reason: event.ReasonManual}),
	)
	closeChapter(t, s, 0, event.Ref(2, 0), FixedResolver{})

	chapters := s.Chapters(FixedResolver{})
	require.Len(t, chapters, 2)
	require.Equal(t, Chapter{
		Index:       0,
		Reason:      event.ReasonTimeJump,
		Trigger:     event.Ref(2, 0),
		Title:       "Arrival",
		Summary:     "They land.",
		HasSnapshot: true,
	}, chapters[0])
	require.False(t, chapters[1].HasSnapshot)
	require.Equal(t, 2, s.NextChapterIndex(FixedResolver{}))

	other := s.Chapters(FixedResolver{2: 1})
	require.Equal(t, event.ReasonLocationChange, other[0].Reason)
	require.Empty(t, other[0].Title)

	desc, ok := s.ChapterDescription(0, FixedResolver{})
	require.True(t, ok)
	require.Equal(t, "Arrival", desc.Title)
}

func TestSerializeRoundTrip(t *testing.T) {
	s := seeded(t)
	unknown := at(1, 0, 9, event.Unknown{
		RawKind:    "inventory",
		RawSubkind: "item_added",
		Fields:     map[string]json.RawMessage{"item": json.RawMessage(`"rope"`)},
	})
	s.Append(
		at(1, 0, 10, event.CharacterAppeared{Character: "Mira", Mood: []string{}}),
		at(1, 0, 11, event.LocationMoved{Place: strPtr("Lighthouse")}),
		unknown,
		at(2, 1, 20, hours(4)),
	)
	s.DeleteAtTurn(event.Ref(2, 1))
	closeChapter(t, s, 0, event.Ref(1, 0), FixedResolver{})

	data, err := s.Marshal()
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)
	again, err := restored.Marshal()
	require.NoError(t, err)
	require.JSONEq(t, string(data), string(again))
	require.Equal(t, s.Snapshots(), restored.Snapshots())

	events := restored.Events()
	require.Len(t, events, 5)
	require.True(t, events[4].Deleted)
	require.IsType(t, event.Unknown{}, events[1].Payload)
	appeared := events[2].Payload.(event.CharacterAppeared)
	require.NotNil(t, appeared.Mood)
	require.Nil(t, appeared.PhysicalState)

	snap, _ := restored.ChapterSnapshot(0)
	require.Nil(t, snap.Scene)
	require.NotNil(t, snap.Location.Props)
}

func strPtr(value string) *string { return &value }

func TestDeserializeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"missing version": `{"events":[],"snapshots":[]}`,
		"missing events":  `{"version":1,"snapshots":[]}`,
		"missing snaps":   `{"version":1,"events":[]}`,
		"future version":  `{"version":99,"events":[],"snapshots":[]}`,
		"event kind":      `{"version":1,"events":[{"id":"x","source":{"turnId":0,"variantId":0}}],"snapshots":[]}`,
		"event id":        `{"version":1,"events":[{"source":{"turnId":0,"variantId":0},"timestamp":1,"kind":"time","subkind":"delta"}],"snapshots":[]}`,
		"event source":    `{"version":1,"events":[{"id":"x","timestamp":1,"kind":"time","subkind":"delta"}],"snapshots":[]}`,
		"event timestamp": `{"version":1,"events":[{"id":"x","source":{"turnId":0,"variantId":0},"kind":"time","subkind":"delta"}],"snapshots":[]}`,
		"bad snapshot":    `{"version":1,"events":[],"snapshots":[{"type":"chapter","source":{"turnId":1,"variantId":0}}]}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Deserialize([]byte(input))
			require.ErrorIs(t, err, ErrMalformedData)
		})
	}

	empty := DeserializeOrEmpty([]byte(`{"events":[]}`))
	require.Empty(t, empty.Events())
	require.Empty(t, empty.Snapshots())
}

func TestEditSession(t *testing.T) {
	t.Run("cancel leaves store untouched", func(t *testing.T) {
		s := seeded(t)
		s.Append(at(1, 0, 10, hours(1)))
		before := s.Serialize()

		session := s.BeginEdit()
		session.Work().DeleteAtTurn(event.Ref(1, 0))
		session.Work().RemoveChapterSnapshot(0)
		session.Work().Append(at(2, 0, 20, hours(5)))
		session.Cancel()

		require.Equal(t, before, s.Serialize())
		require.ErrorIs(t, session.Commit(), ErrSessionClosed)
	})

	t.Run("commit applies staged changes", func(t *testing.T) {
		s := seeded(t)
		s.Append(at(1, 0, 10, hours(1)))

		session := s.BeginEdit()
		session.Work().DeleteAtTurn(event.Ref(1, 0))
		require.Equal(t, 11, hourAt(t, s, 1, FixedResolver{}))

		require.NoError(t, session.Commit())
		require.Equal(t, 10, hourAt(t, s, 1, FixedResolver{}))
	})
}
