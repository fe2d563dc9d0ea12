package event

import (
	"encoding/json"

	"chronicle/internal/narrative"
)

// Payload is the closed set of event bodies. Every implementation lives in this file.
type Payload interface {
	Kind() Kind
	Subkind() Subkind
	isPayload()
}

type timeKind struct{}

func (timeKind) Kind() Kind { return KindTime }
func (timeKind) isPayload() {}

type locationKind struct{}

func (locationKind) Kind() Kind { return KindLocation }
func (locationKind) isPayload() {}

type characterKind struct{}

func (characterKind) Kind() Kind { return KindCharacter }
func (characterKind) isPayload() {}

type relationshipKind struct{}

func (relationshipKind) Kind() Kind { return KindRelationship }
func (relationshipKind) isPayload() {}

type sceneKind struct{}

func (sceneKind) Kind() Kind { return KindScene }
func (sceneKind) isPayload() {}

type chapterKind struct{}

func (chapterKind) Kind() Kind { return KindChapter }
func (chapterKind) isPayload() {}

type forecastKind struct{}

func (forecastKind) Kind() Kind { return KindForecast }
func (forecastKind) isPayload() {}

type TimeInitial struct {
	timeKind
	Time narrative.Time `json:"time"`
}

func (TimeInitial) Subkind() Subkind { return SubkindInitial }

type TimeDelta struct {
	timeKind
	Delta narrative.TimeDelta `json:"delta"`
}

func (TimeDelta) Subkind() Subkind { return SubkindDelta }

// LocationMoved carries only the fields that changed; nil means keep.
type LocationMoved struct {
	locationKind
	Area     *string `json:"area,omitempty"`
	Place    *string `json:"place,omitempty"`
	Position *string `json:"position,omitempty"`
}

func (LocationMoved) Subkind() Subkind { return SubkindMoved }

type LocationPropAdded struct {
	locationKind
	Prop string `json:"prop"`
}

func (LocationPropAdded) Subkind() Subkind { return SubkindPropAdded }

type LocationPropRemoved struct {
	locationKind
	Prop string `json:"prop"`
}

func (LocationPropRemoved) Subkind() Subkind { return SubkindPropRemoved }

type CharacterAppeared struct {
	characterKind
	Character     string   `json:"character"`
	Position      *string  `json:"position,omitempty"`
	Activity      *string  `json:"activity,omitempty"`
	Mood          []string `json:"mood"`
	PhysicalState []string `json:"physicalState"`
}

func (CharacterAppeared) Subkind() Subkind { return SubkindAppeared }

type CharacterDeparted struct {
	characterKind
	Character string `json:"character"`
}

func (CharacterDeparted) Subkind() Subkind { return SubkindDeparted }

type CharacterPositionChanged struct {
	characterKind
	Character string `json:"character"`
	Position  string `json:"position"`
}

func (CharacterPositionChanged) Subkind() Subkind { return SubkindPositionChanged }

type CharacterActivityChanged struct {
	characterKind
	Character string `json:"character"`
	Activity  string `json:"activity"`
}

func (CharacterActivityChanged) Subkind() Subkind { return SubkindActivityChanged }

type CharacterMoodAdded struct {
	characterKind
	Character string `json:"character"`
	Mood      string `json:"mood"`
}

func (CharacterMoodAdded) Subkind() Subkind { return SubkindMoodAdded }

type CharacterMoodRemoved struct {
	characterKind
	Character string `json:"character"`
	Mood      string `json:"mood"`
}

func (CharacterMoodRemoved) Subkind() Subkind { return SubkindMoodRemoved }

// CharacterOutfitChanged sets one slot; a nil Item empties it.
type CharacterOutfitChanged struct {
	characterKind
	Character string  `json:"character"`
	Slot      string  `json:"slot"`
	Item      *string `json:"item"`
}

func (CharacterOutfitChanged) Subkind() Subkind { return SubkindOutfitChanged }

type CharacterPhysicalAdded struct {
	characterKind
	Character string `json:"character"`
	State     string `json:"state"`
}

func (CharacterPhysicalAdded) Subkind() Subkind { return SubkindPhysicalAdded }

type CharacterPhysicalRemoved struct {
	characterKind
	Character string `json:"character"`
	State     string `json:"state"`
}

func (CharacterPhysicalRemoved) Subkind() Subkind { return SubkindPhysicalRemoved }

type CharacterProfileSet struct {
	characterKind
	Character string            `json:"character"`
	Profile   narrative.Profile `json:"profile"`
}

func (CharacterProfileSet) Subkind() Subkind { return SubkindProfileSet }

// AttitudeChange is the shared body of the directed relationship events.
// From is the actor whose attitude toward Toward changes.
type AttitudeChange struct {
	relationshipKind
	From   string `json:"from"`
	Toward string `json:"toward"`
	Value  string `json:"value"`
}

type (
	FeelingAdded   AttitudeChange
	FeelingRemoved AttitudeChange
	SecretAdded    AttitudeChange
	SecretRemoved  AttitudeChange
	WantAdded      AttitudeChange
	WantRemoved    AttitudeChange
)

func (FeelingAdded) Subkind() Subkind   { return SubkindFeelingAdded }
func (FeelingRemoved) Subkind() Subkind { return SubkindFeelingRemoved }
func (SecretAdded) Subkind() Subkind    { return SubkindSecretAdded }
func (SecretRemoved) Subkind() Subkind  { return SubkindSecretRemoved }
func (WantAdded) Subkind() Subkind      { return SubkindWantAdded }
func (WantRemoved) Subkind() Subkind    { return SubkindWantRemoved }

type RelationshipStatusChanged struct {
	relationshipKind
	A      string                       `json:"a"`
	B      string                       `json:"b"`
	Status narrative.RelationshipStatus `json:"status"`
}

func (RelationshipStatusChanged) Subkind() Subkind { return SubkindStatusChanged }

type SceneTopicTone struct {
	sceneKind
	Topic string `json:"topic"`
	Tone  string `json:"tone"`
}

func (SceneTopicTone) Subkind() Subkind { return SubkindTopicTone }

type SceneTension struct {
	sceneKind
	Tension narrative.Tension `json:"tension"`
}

func (SceneTension) Subkind() Subkind { return SubkindTension }

type ChapterEnded struct {
	chapterKind
	ChapterIndex int           `json:"chapterIndex"`
	Reason       ChapterReason `json:"reason"`
}

func (ChapterEnded) Subkind() Subkind { return SubkindEnded }

type ChapterDescribed struct {
	chapterKind
	ChapterIndex int    `json:"chapterIndex"`
	Title        string `json:"title"`
	Summary      string `json:"summary"`
}

func (ChapterDescribed) Subkind() Subkind { return SubkindDescribed }

type ForecastGenerated struct {
	forecastKind
	Area     string             `json:"area"`
	Forecast narrative.Forecast `json:"forecast"`
	Climate  *narrative.Climate `json:"climate,omitempty"`
}

func (ForecastGenerated) Subkind() Subkind { return SubkindGenerated }

// Unknown keeps an unrecognised kind/subkind and its raw fields so that a
// store written by a newer version round-trips without loss.
type Unknown struct {
	RawKind    Kind
	RawSubkind Subkind
	Fields     map[string]json.RawMessage
}

func (u Unknown) Kind() Kind       { return u.RawKind }
func (u Unknown) Subkind() Subkind { return u.RawSubkind }
func (Unknown) isPayload()         {}
