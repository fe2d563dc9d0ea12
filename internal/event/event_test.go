package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chronicle/internal/narrative"
)

func TestMarshalFlattensPayload(t *testing.T) {
	evt := Event{
		ID:        "evt-1",
		Source:    Ref(3, 1),
		Timestamp: 1000,
		Payload:   CharacterMoodAdded{Character: "Mira", Mood: "wary"},
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	require.Equal(t, "character", fields["kind"])
	require.Equal(t, "mood_added", fields["subkind"])
	require.Equal(t, "Mira", fields["character"])
	require.Equal(t, "wary", fields["mood"])
	require.Equal(t, false, fields["deleted"])
}

func TestUnmarshalRestoresPayloadType(t *testing.T) {
	place := "harbour"
	original := Event{
		ID:        "evt-2",
		Source:    Ref(1, 0),
		Timestamp: 42,
		Deleted:   true,
		Payload:   LocationMoved{Place: &place},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, original, decoded)

	moved, ok := decoded.Payload.(LocationMoved)
	require.True(t, ok)
	require.Nil(t, moved.Area)
	require.Equal(t, "harbour", *moved.Place)
}

func TestUnknownKindRoundTrips(t *testing.T) {
	raw := []byte(`{"id":"x","source":{"turnId":2,"variantId":0},"timestamp":5,"kind":"inventory","subkind":"item_added","deleted":false,"item":"lantern"}`)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.False(t, decoded.Known())
	require.Equal(t, Kind("inventory"), decoded.Kind())

	again, err := json.Marshal(decoded)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(again))
}

func TestUnmarshalRequiresKind(t *testing.T) {
	var decoded Event
	err := json.Unmarshal([]byte(`{"id":"x","source":{"turnId":1,"variantId":0}}`), &decoded)
	require.Error(t, err)
}

func TestUnmarshalRequiresHeader(t *testing.T) {
	cases := map[string]string{
		"id":        `{"source":{"turnId":1,"variantId":0},"timestamp":3,"kind":"time","subkind":"delta"}`,
		"empty id":  `{"id":"","source":{"turnId":1,"variantId":0},"timestamp":3,"kind":"time","subkind":"delta"}`,
		"source":    `{"id":"x","timestamp":3,"kind":"time","subkind":"delta"}`,
		"timestamp": `{"id":"x","source":{"turnId":1,"variantId":0},"kind":"time","subkind":"delta"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var decoded Event
			require.Error(t, json.Unmarshal([]byte(raw), &decoded))
		})
	}

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","source":{"turnId":0,"variantId":0},"timestamp":0,"kind":"time","subkind":"delta"}`), &decoded))
	require.Equal(t, Ref(0, 0), decoded.Source)
	require.Zero(t, decoded.Timestamp)
}

func TestSortIsStableOnTies(t *testing.T) {
	events := []Event{
		{ID: "c", Source: Ref(2, 0), Timestamp: 10, Payload: TimeDelta{}},
		{ID: "a", Source: Ref(1, 0), Timestamp: 10, Payload: TimeDelta{}},
		{ID: "b", Source: Ref(1, 1), Timestamp: 10, Payload: TimeDelta{}},
		{ID: "d", Source: Ref(1, 0), Timestamp: 5, Payload: TimeDelta{}},
	}
	Sort(events)

	ids := make([]string, 0, len(events))
	for _, evt := range events {
		ids = append(ids, evt.ID)
	}
	require.Equal(t, []string{"d", "a", "b", "c"}, ids)
}

func TestNewAssignsIDAndMillis(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	evt := New(Ref(4, 2), at, TimeInitial{Time: narrative.Time{Year: 1200, Month: 5, Day: 1}})

	require.NotEmpty(t, evt.ID)
	require.Equal(t, at.UnixMilli(), evt.Timestamp)
	require.Equal(t, at, FromMillis(evt.Timestamp))
	require.True(t, IsKnown(evt.Kind(), evt.Subkind()))
}
