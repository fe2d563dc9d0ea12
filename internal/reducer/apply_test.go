package reducer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chronicle/internal/event"
	"chronicle/internal/narrative"
	"chronicle/internal/snapshot"
)

func strPtr(value string) *string { return &value }

func evt(turn int, ts int64, payload event.Payload) event.Event {
	return event.Event{ID: "e", Source: event.Ref(turn, 0), Timestamp: ts, Payload: payload}
}

func TestTimeDeltaBeforeInitialIsNoop(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))
	Apply(p, evt(0, 1, event.TimeDelta{Delta: narrative.TimeDelta{Hours: 3}}))
	require.Nil(t, p.Time)

	Apply(p, evt(0, 2, event.TimeInitial{Time: narrative.Time{Year: 2024, Month: 12, Day: 31, Hour: 22}}))
	Apply(p, evt(0, 3, event.TimeDelta{Delta: narrative.TimeDelta{Hours: 3}}))
	require.Equal(t, narrative.Time{Year: 2025, Month: 1, Day: 1, Hour: 1}, *p.Time)
}

func TestTimeInitialDefaultsMissingDate(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))
	Apply(p, evt(0, 1, event.TimeInitial{Time: narrative.Time{Year: 1203, Hour: 10}}))
	require.Equal(t, narrative.Time{Year: 1203, Month: 1, Day: 1, Hour: 10}, *p.Time)

	Apply(p, evt(0, 2, event.TimeDelta{Delta: narrative.TimeDelta{Hours: 1}}))
	require.Equal(t, narrative.Time{Year: 1203, Month: 1, Day: 1, Hour: 11}, *p.Time)
}

func TestLocationMoved(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))
	Apply(p, evt(0, 1, event.LocationMoved{Area: strPtr("Saltmarsh"), Place: strPtr("Tavern"), Position: strPtr("bar")}))
	Apply(p, evt(0, 2, event.LocationPropAdded{Prop: "hearth"}))
	Apply(p, evt(0, 3, event.LocationPropAdded{Prop: "hearth"}))
	require.Equal(t, []string{"hearth"}, p.Location.Props)

	t.Run("same place keeps props", func(t *testing.T) {
		Apply(p, evt(1, 1, event.LocationMoved{Place: strPtr("Tavern"), Position: strPtr("corner")}))
		require.Equal(t, []string{"hearth"}, p.Location.Props)
		require.Equal(t, "Saltmarsh", p.Location.Area)
		require.Equal(t, "corner", p.Location.Position)
	})

	t.Run("new place clears props", func(t *testing.T) {
		Apply(p, evt(2, 1, event.LocationMoved{Place: strPtr("Docks")}))
		require.Empty(t, p.Location.Props)
		require.Equal(t, "Saltmarsh", p.Location.Area)
		require.Equal(t, "corner", p.Location.Position)
	})

	t.Run("prop removal", func(t *testing.T) {
		Apply(p, evt(3, 1, event.LocationPropAdded{Prop: "crates"}))
		Apply(p, evt(3, 2, event.LocationPropRemoved{Prop: "crates"}))
		Apply(p, evt(3, 3, event.LocationPropRemoved{Prop: "missing"}))
		require.Empty(t, p.Location.Props)
	})
}

func TestAppearedCreatesRelationshipsWithPresentCharacters(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))

	Apply(p, evt(1, 1, event.CharacterAppeared{Character: "Mira"}))
	require.Empty(t, p.Relationships)
	require.Equal(t, []string{"Mira"}, p.CharactersPresent)

	Apply(p, evt(2, 1, event.CharacterAppeared{Character: "Aldo", Mood: []string{"tired", "tired"}}))
	require.Len(t, p.Relationships, 1)
	rel := p.Relationships[narrative.Pair{"Aldo", "Mira"}]
	require.NotNil(t, rel)
	require.Equal(t, narrative.StatusStrangers, rel.Status)
	require.Equal(t, []string{"tired"}, p.Characters["Aldo"].Mood)

	Apply(p, evt(3, 1, event.RelationshipStatusChanged{A: "Mira", B: "Aldo", Status: narrative.StatusFriendly}))
	Apply(p, evt(3, 2, event.FeelingAdded{From: "Mira", Toward: "Aldo", Value: "fondness"}))
	Apply(p, evt(4, 1, event.CharacterDeparted{Character: "Aldo"}))
	Apply(p, evt(5, 1, event.CharacterAppeared{Character: "Aldo"}))

	rel = p.Relationships[narrative.Pair{"Aldo", "Mira"}]
	require.Equal(t, narrative.StatusFriendly, rel.Status, "reappearance must not clobber the entry")
	require.Equal(t, []string{"fondness"}, rel.BToA.Feelings)
	require.Empty(t, rel.AToB.Feelings)
}

func TestDepartedRetainsCharacterData(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))
	Apply(p, evt(1, 1, event.CharacterAppeared{Character: "Mira", Activity: strPtr("reading")}))
	Apply(p, evt(1, 2, event.CharacterDeparted{Character: "Mira"}))

	require.Empty(t, p.CharactersPresent)
	require.Equal(t, "reading", p.Characters["Mira"].Activity)
}

func TestCharacterMutators(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))
	events := []event.Event{
		evt(1, 1, event.CharacterAppeared{Character: "Mira"}),
		evt(1, 2, event.CharacterMoodAdded{Character: "Mira", Mood: "calm"}),
		evt(1, 3, event.CharacterMoodAdded{Character: "Mira", Mood: "curious"}),
		evt(1, 4, event.CharacterMoodRemoved{Character: "Mira", Mood: "calm"}),
		evt(1, 5, event.CharacterPhysicalAdded{Character: "Mira", State: "soaked"}),
		evt(1, 6, event.CharacterPhysicalRemoved{Character: "Mira", State: "soaked"}),
		evt(1, 7, event.CharacterPhysicalAdded{Character: "Mira", State: "limping"}),
		evt(1, 8, event.CharacterPositionChanged{Character: "Mira", Position: "by the door"}),
		evt(1, 9, event.CharacterActivityChanged{Character: "Mira", Activity: "pacing"}),
		evt(1, 10, event.CharacterOutfitChanged{Character: "Mira", Slot: narrative.SlotJacket, Item: strPtr("oilskin coat")}),
		evt(1, 11, event.CharacterOutfitChanged{Character: "Mira", Slot: "tail", Item: strPtr("ribbon")}),
		evt(1, 12, event.CharacterProfileSet{Character: "Mira", Profile: narrative.Profile{Species: "human", Age: 31}}),
	}
	Replay(p, events)

	mira := p.Characters["Mira"]
	require.Equal(t, []string{"curious"}, mira.Mood)
	require.Equal(t, []string{"limping"}, mira.PhysicalState)
	require.Equal(t, "by the door", mira.Position)
	require.Equal(t, "pacing", mira.Activity)
	require.Equal(t, "oilskin coat", *mira.Outfit.Jacket)
	require.Nil(t, mira.Outfit.Head)
	require.Equal(t, 31, mira.Profile.Age)

	Apply(p, evt(2, 1, event.CharacterOutfitChanged{Character: "Mira", Slot: narrative.SlotJacket}))
	require.Nil(t, p.Characters["Mira"].Outfit.Jacket)
}

func TestRelationshipDirectedAttitudes(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))
	Replay(p, []event.Event{
		evt(1, 1, event.SecretAdded{From: "Aldo", Toward: "Mira", Value: "owes the guild"}),
		evt(1, 2, event.WantAdded{From: "Mira", Toward: "Aldo", Value: "the ledger"}),
		evt(1, 3, event.WantAdded{From: "Mira", Toward: "Aldo", Value: "the ledger"}),
		evt(1, 4, event.FeelingAdded{From: "Aldo", Toward: "Mira", Value: "guilt"}),
		evt(1, 5, event.FeelingRemoved{From: "Aldo", Toward: "Mira", Value: "guilt"}),
		evt(1, 6, event.SecretRemoved{From: "Mira", Toward: "Aldo", Value: "nothing"}),
		evt(1, 7, event.WantRemoved{From: "Aldo", Toward: "Mira", Value: "nothing"}),
	})

	rel := p.Relationships[narrative.Pair{"Aldo", "Mira"}]
	require.Equal(t, []string{"owes the guild"}, rel.AToB.Secrets)
	require.Empty(t, rel.AToB.Feelings)
	require.Equal(t, []string{"the ledger"}, rel.BToA.Wants)
	require.Equal(t, narrative.StatusStrangers, rel.Status)
}

func TestSceneChapterForecast(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))
	climate := &narrative.Climate{Temperature: 4, Conditions: "sleet"}
	Replay(p, []event.Event{
		evt(1, 1, event.SceneTopicTone{Topic: "the missing ship", Tone: "grim"}),
		evt(1, 2, event.SceneTension{Tension: narrative.Tension{Level: "high", Direction: "escalating", Type: "conflict"}}),
		evt(1, 3, event.ChapterEnded{ChapterIndex: 0, Reason: event.ReasonTimeJump}),
		evt(1, 4, event.ChapterDescribed{ChapterIndex: 0, Title: "Arrival"}),
		evt(1, 5, event.ForecastGenerated{Area: "Saltmarsh", Forecast: narrative.Forecast{Days: []narrative.ForecastDay{{High: 6, Low: 1}}}, Climate: climate}),
	})

	require.Equal(t, "the missing ship", p.Scene.Topic)
	require.Equal(t, "high", p.Scene.Tension.Level)
	require.Equal(t, 1, p.CurrentChapter)
	require.Len(t, p.Forecasts["Saltmarsh"].Days, 1)
	require.Equal(t, "sleet", p.Climate.Conditions)

	climate.Conditions = "clear"
	require.Equal(t, "sleet", p.Climate.Conditions)
}

func TestUnknownKindIgnored(t *testing.T) {
	p := snapshot.NewProjection(event.Ref(0, 0))
	before := p.Clone()
	Apply(p, evt(1, 1, event.Unknown{RawKind: "inventory", RawSubkind: "item_added"}))
	require.Equal(t, before, p)
}

func TestReplayIsDeterministic(t *testing.T) {
	base := snapshot.FromProjection(snapshot.NewProjection(event.Ref(0, 0)), snapshot.Meta{Type: snapshot.TypeInitial})
	events := []event.Event{
		evt(0, 1, event.TimeInitial{Time: narrative.Time{Year: 1203, Month: 1, Day: 1, Hour: 10}}),
		evt(1, 1, event.CharacterAppeared{Character: "Mira", Mood: []string{"calm"}}),
		evt(1, 2, event.CharacterAppeared{Character: "Aldo"}),
		evt(1, 3, event.CharacterAppeared{Character: "Bea"}),
		evt(2, 1, event.FeelingAdded{From: "Bea", Toward: "Aldo", Value: "envy"}),
		evt(2, 2, event.TimeDelta{Delta: narrative.TimeDelta{Hours: 30}}),
	}

	first := snapshot.ToProjection(base)
	Replay(first, events)
	second := snapshot.ToProjection(base)
	Replay(second, events)

	require.Equal(t, first, second)
	require.Len(t, first.Relationships, 3)
	require.Equal(t,
		snapshot.FromProjection(first, snapshot.Meta{Type: snapshot.TypeInitial}),
		snapshot.FromProjection(second, snapshot.Meta{Type: snapshot.TypeInitial}),
	)
}
