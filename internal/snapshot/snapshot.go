package snapshot

import (
	"maps"
	"slices"

	"chronicle/internal/event"
	"chronicle/internal/narrative"
)

type Type string

const (
	TypeInitial Type = "initial"
	TypeChapter Type = "chapter"
)

// Snapshot is a complete, serialisable capture of narrative state at one turn.
// It is never authoritative: the initial snapshot plus the event log can
// always reproduce it.
type Snapshot struct {
	Type              Type                          `json:"type"`
	ChapterIndex      *int                          `json:"chapterIndex,omitempty"`
	Source            event.TurnRef                 `json:"source"`
	CreatedAt         int64                         `json:"createdAt"`
	VariantID         int                           `json:"variantId"`
	Time              *narrative.Time               `json:"time,omitempty"`
	Location          *narrative.Location           `json:"location,omitempty"`
	Forecasts         map[string]narrative.Forecast `json:"forecasts"`
	Climate           *narrative.Climate            `json:"climate,omitempty"`
	Scene             *narrative.Scene              `json:"scene,omitempty"`
	Characters        []narrative.CharacterState    `json:"characters"`
	Relationships     []narrative.RelationshipState `json:"relationships"`
	CharactersPresent []string                      `json:"charactersPresent"`
	CurrentChapter    int                           `json:"currentChapter"`
	NarrativeEvents   []narrative.NarrativeEvent    `json:"narrativeEvents"`
}

func (s Snapshot) IsInitial() bool {
	return s.Type == TypeInitial
}

// Chapter returns the closed chapter index, or -1 for the initial snapshot.
func (s Snapshot) Chapter() int {
	if s.ChapterIndex == nil {
		return -1
	}
	return *s.ChapterIndex
}

func (s Snapshot) Clone() Snapshot {
	out := s
	if s.ChapterIndex != nil {
		index := *s.ChapterIndex
		out.ChapterIndex = &index
	}
	if s.Time != nil {
		t := *s.Time
		out.Time = &t
	}
	out.Location = s.Location.Clone()
	out.Forecasts = cloneForecasts(s.Forecasts)
	out.Climate = s.Climate.Clone()
	out.Scene = s.Scene.Clone()
	if s.Characters != nil {
		out.Characters = make([]narrative.CharacterState, 0, len(s.Characters))
		for i := range s.Characters {
			out.Characters = append(out.Characters, *s.Characters[i].Clone())
		}
	}
	if s.Relationships != nil {
		out.Relationships = make([]narrative.RelationshipState, 0, len(s.Relationships))
		for i := range s.Relationships {
			out.Relationships = append(out.Relationships, *s.Relationships[i].Clone())
		}
	}
	out.CharactersPresent = slices.Clone(s.CharactersPresent)
	out.NarrativeEvents = cloneNarrativeEvents(s.NarrativeEvents)
	return out
}

func cloneForecasts(in map[string]narrative.Forecast) map[string]narrative.Forecast {
	if in == nil {
		return nil
	}
	out := maps.Clone(in)
	for area, forecast := range out {
		out[area] = forecast.Clone()
	}
	return out
}

func cloneNarrativeEvents(in []narrative.NarrativeEvent) []narrative.NarrativeEvent {
	if in == nil {
		return nil
	}
	out := make([]narrative.NarrativeEvent, 0, len(in))
	for _, item := range in {
		out = append(out, item.Clone())
	}
	return out
}
