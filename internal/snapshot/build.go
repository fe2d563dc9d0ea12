package snapshot

import (
	"slices"
	"sort"

	"chronicle/internal/event"
	"chronicle/internal/narrative"
)

// Meta describes the snapshot being frozen from a projection.
type Meta struct {
	Type         Type
	ChapterIndex *int
	Source       event.TurnRef
	CreatedAt    int64
}

// ToProjection deep-copies s into a fresh Projection.
func ToProjection(s Snapshot) *Projection {
	p := NewProjection(s.Source)
	if s.Time != nil {
		t := *s.Time
		p.Time = &t
	}
	p.Location = s.Location.Clone()
	for area, forecast := range s.Forecasts {
		p.Forecasts[area] = forecast.Clone()
	}
	p.Climate = s.Climate.Clone()
	p.Scene = s.Scene.Clone()
	for i := range s.Characters {
		c := s.Characters[i].Clone()
		p.Characters[c.Name] = c
	}
	for i := range s.Relationships {
		rel := s.Relationships[i].Clone()
		p.Relationships[rel.Pair] = rel
	}
	p.CharactersPresent = append(p.CharactersPresent, s.CharactersPresent...)
	p.CurrentChapter = s.CurrentChapter
	for _, item := range s.NarrativeEvents {
		p.NarrativeEvents = append(p.NarrativeEvents, item.Clone())
	}
	return p
}

// FromProjection freezes p into a Snapshot. Characters are ordered by name and
// relationships by pair so that equal projections serialise identically.
func FromProjection(p *Projection, meta Meta) Snapshot {
	s := Snapshot{
		Type:              meta.Type,
		Source:            meta.Source,
		CreatedAt:         meta.CreatedAt,
		VariantID:         meta.Source.VariantID,
		Forecasts:         map[string]narrative.Forecast{},
		Characters:        []narrative.CharacterState{},
		Relationships:     []narrative.RelationshipState{},
		CharactersPresent: slices.Clone(p.CharactersPresent),
		CurrentChapter:    p.CurrentChapter,
		NarrativeEvents:   []narrative.NarrativeEvent{},
	}
	if s.CharactersPresent == nil {
		s.CharactersPresent = []string{}
	}
	if meta.ChapterIndex != nil {
		index := *meta.ChapterIndex
		s.ChapterIndex = &index
	}
	if p.Time != nil {
		t := *p.Time
		s.Time = &t
	}
	s.Location = p.Location.Clone()
	for area, forecast := range p.Forecasts {
		s.Forecasts[area] = forecast.Clone()
	}
	s.Climate = p.Climate.Clone()
	s.Scene = p.Scene.Clone()

	names := make([]string, 0, len(p.Characters))
	for name := range p.Characters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.Characters = append(s.Characters, *p.Characters[name].Clone())
	}

	pairs := make([]narrative.Pair, 0, len(p.Relationships))
	for pair := range p.Relationships {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Key() < pairs[j].Key()
	})
	for _, pair := range pairs {
		s.Relationships = append(s.Relationships, *p.Relationships[pair].Clone())
	}

	for _, item := range p.NarrativeEvents {
		s.NarrativeEvents = append(s.NarrativeEvents, item.Clone())
	}
	return s
}
