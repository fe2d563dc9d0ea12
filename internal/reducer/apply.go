// Package reducer folds events into a projection. It never reads the wall
// clock or any other ambient state, so the same events over the same base
// always produce the same projection.
package reducer

import (
	"github.com/sirupsen/logrus"

	"chronicle/internal/event"
	"chronicle/internal/narrative"
	"chronicle/internal/snapshot"
)

// Apply mutates p in place with the effect of evt. Unknown kinds are ignored.
func Apply(p *snapshot.Projection, evt event.Event) {
	switch payload := evt.Payload.(type) {
	case event.TimeInitial:
		t := payload.Time.Normalized()
		p.Time = &t
	case event.TimeDelta:
		if p.Time == nil {
			return
		}
		advanced := p.Time.Add(payload.Delta)
		p.Time = &advanced

	case event.LocationMoved:
		applyMoved(p, payload)
	case event.LocationPropAdded:
		loc := ensureLocation(p)
		loc.Props = narrative.AddUnique(loc.Props, payload.Prop)
	case event.LocationPropRemoved:
		if p.Location != nil {
			p.Location.Props = narrative.RemoveValue(p.Location.Props, payload.Prop)
		}

	case event.CharacterAppeared:
		applyAppeared(p, payload)
	case event.CharacterDeparted:
		p.CharactersPresent = narrative.RemoveValue(p.CharactersPresent, payload.Character)
	case event.CharacterPositionChanged:
		p.Character(payload.Character).Position = payload.Position
	case event.CharacterActivityChanged:
		p.Character(payload.Character).Activity = payload.Activity
	case event.CharacterMoodAdded:
		c := p.Character(payload.Character)
		c.Mood = narrative.AddUnique(c.Mood, payload.Mood)
	case event.CharacterMoodRemoved:
		c := p.Character(payload.Character)
		c.Mood = narrative.RemoveValue(c.Mood, payload.Mood)
	case event.CharacterOutfitChanged:
		if !p.Character(payload.Character).Outfit.SetSlot(payload.Slot, payload.Item) {
			logrus.Debugf("reducer: ignoring unknown outfit slot %q for %s", payload.Slot, payload.Character)
		}
	case event.CharacterPhysicalAdded:
		c := p.Character(payload.Character)
		c.PhysicalState = narrative.AddUnique(c.PhysicalState, payload.State)
	case event.CharacterPhysicalRemoved:
		c := p.Character(payload.Character)
		c.PhysicalState = narrative.RemoveValue(c.PhysicalState, payload.State)
	case event.CharacterProfileSet:
		profile := payload.Profile
		p.Character(payload.Character).Profile = profile.Clone()

	case event.FeelingAdded:
		att := attitude(p, event.AttitudeChange(payload))
		att.Feelings = narrative.AddUnique(att.Feelings, payload.Value)
	case event.FeelingRemoved:
		att := attitude(p, event.AttitudeChange(payload))
		att.Feelings = narrative.RemoveValue(att.Feelings, payload.Value)
	case event.SecretAdded:
		att := attitude(p, event.AttitudeChange(payload))
		att.Secrets = narrative.AddUnique(att.Secrets, payload.Value)
	case event.SecretRemoved:
		att := attitude(p, event.AttitudeChange(payload))
		att.Secrets = narrative.RemoveValue(att.Secrets, payload.Value)
	case event.WantAdded:
		att := attitude(p, event.AttitudeChange(payload))
		att.Wants = narrative.AddUnique(att.Wants, payload.Value)
	case event.WantRemoved:
		att := attitude(p, event.AttitudeChange(payload))
		att.Wants = narrative.RemoveValue(att.Wants, payload.Value)
	case event.RelationshipStatusChanged:
		p.Relationship(payload.A, payload.B).Status = payload.Status

	case event.SceneTopicTone:
		scene := ensureScene(p)
		scene.Topic = payload.Topic
		scene.Tone = payload.Tone
	case event.SceneTension:
		ensureScene(p).Tension = payload.Tension

	case event.ChapterEnded:
		p.CurrentChapter = payload.ChapterIndex + 1
	case event.ChapterDescribed:
		// descriptions are read back from the log, not from state

	case event.ForecastGenerated:
		if p.Forecasts == nil {
			p.Forecasts = map[string]narrative.Forecast{}
		}
		p.Forecasts[payload.Area] = payload.Forecast.Clone()
		if payload.Climate != nil {
			p.Climate = payload.Climate.Clone()
		}

	default:
		logrus.Debugf("reducer: skipping %s/%s event %s", evt.Kind(), evt.Subkind(), evt.ID)
	}
}

// Replay applies events in order.
func Replay(p *snapshot.Projection, events []event.Event) {
	for _, evt := range events {
		Apply(p, evt)
	}
}

func applyMoved(p *snapshot.Projection, moved event.LocationMoved) {
	loc := ensureLocation(p)
	if moved.Area != nil {
		loc.Area = *moved.Area
	}
	if moved.Place != nil && *moved.Place != loc.Place {
		loc.Place = *moved.Place
		loc.Props = []string{}
	}
	if moved.Position != nil {
		loc.Position = *moved.Position
	}
}

func applyAppeared(p *snapshot.Projection, appeared event.CharacterAppeared) {
	c := p.Character(appeared.Character)
	if appeared.Position != nil {
		c.Position = *appeared.Position
	}
	if appeared.Activity != nil {
		c.Activity = *appeared.Activity
	}
	if appeared.Mood != nil {
		c.Mood = narrative.Unique(appeared.Mood)
	}
	if appeared.PhysicalState != nil {
		c.PhysicalState = narrative.Unique(appeared.PhysicalState)
	}

	if p.IsPresent(appeared.Character) {
		return
	}
	for _, other := range p.CharactersPresent {
		if other == appeared.Character {
			continue
		}
		p.Relationship(appeared.Character, other)
	}
	p.CharactersPresent = append(p.CharactersPresent, appeared.Character)
}

func attitude(p *snapshot.Projection, change event.AttitudeChange) *narrative.Attitude {
	return p.Relationship(change.From, change.Toward).Directed(change.From)
}

func ensureLocation(p *snapshot.Projection) *narrative.Location {
	if p.Location == nil {
		p.Location = &narrative.Location{Props: []string{}}
	}
	return p.Location
}

func ensureScene(p *snapshot.Projection) *narrative.Scene {
	if p.Scene == nil {
		p.Scene = &narrative.Scene{}
	}
	return p.Scene
}
