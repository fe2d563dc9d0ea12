package snapshot

import (
	"slices"
	"sort"

	"chronicle/internal/event"
	"chronicle/internal/narrative"
)

// Projection is the in-memory state computed for one turn. It is a working
// value owned by whoever received it.
type Projection struct {
	Source            event.TurnRef
	Time              *narrative.Time
	Location          *narrative.Location
	Forecasts         map[string]narrative.Forecast
	Climate           *narrative.Climate
	Scene             *narrative.Scene
	Characters        map[string]*narrative.CharacterState
	Relationships     map[narrative.Pair]*narrative.RelationshipState
	CharactersPresent []string
	CurrentChapter    int
	NarrativeEvents   []narrative.NarrativeEvent
}

func NewProjection(source event.TurnRef) *Projection {
	return &Projection{
		Source:            source,
		Forecasts:         map[string]narrative.Forecast{},
		Characters:        map[string]*narrative.CharacterState{},
		Relationships:     map[narrative.Pair]*narrative.RelationshipState{},
		CharactersPresent: []string{},
		NarrativeEvents:   []narrative.NarrativeEvent{},
	}
}

func (p *Projection) Clone() *Projection {
	if p == nil {
		return nil
	}
	return ToProjection(FromProjection(p, Meta{Source: p.Source}))
}

// Character returns the named character, creating it when absent.
func (p *Projection) Character(name string) *narrative.CharacterState {
	if c, ok := p.Characters[name]; ok {
		return c
	}
	c := narrative.NewCharacter(name)
	p.Characters[name] = c
	return c
}

// Relationship returns the entry for the pair, creating a strangers entry when absent.
func (p *Projection) Relationship(a, b string) *narrative.RelationshipState {
	pair := narrative.NewPair(a, b)
	if rel, ok := p.Relationships[pair]; ok {
		return rel
	}
	rel := narrative.NewRelationship(a, b)
	p.Relationships[pair] = rel
	return rel
}

func (p *Projection) IsPresent(name string) bool {
	return slices.Contains(p.CharactersPresent, name)
}

// RelationshipsOf lists the entries involving name, ordered by pair.
func (p *Projection) RelationshipsOf(name string) []*narrative.RelationshipState {
	var out []*narrative.RelationshipState
	for pair, rel := range p.Relationships {
		if pair.Contains(name) {
			out = append(out, rel)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Pair.Key() < out[j].Pair.Key()
	})
	return out
}
