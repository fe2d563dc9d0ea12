package event

import (
	"encoding/json"
	"fmt"
)

type header struct {
	ID        string  `json:"id"`
	Source    TurnRef `json:"source"`
	Timestamp int64   `json:"timestamp"`
	Kind      Kind    `json:"kind"`
	Subkind   Subkind `json:"subkind"`
	Deleted   bool    `json:"deleted"`
}

// storedHeader is header as read back, with the required fields as pointers
// so that absent ones can be told apart from zero values.
type storedHeader struct {
	ID        *string  `json:"id"`
	Source    *TurnRef `json:"source"`
	Timestamp *int64   `json:"timestamp"`
	Kind      Kind     `json:"kind"`
	Subkind   Subkind  `json:"subkind"`
	Deleted   bool     `json:"deleted"`
}

var headerFields = []string{"id", "source", "timestamp", "kind", "subkind", "deleted"}

var decoders = map[string]func([]byte) (Payload, error){
	key(KindTime, SubkindInitial):                decodeAs[TimeInitial],
	key(KindTime, SubkindDelta):                  decodeAs[TimeDelta],
	key(KindLocation, SubkindMoved):              decodeAs[LocationMoved],
	key(KindLocation, SubkindPropAdded):          decodeAs[LocationPropAdded],
	key(KindLocation, SubkindPropRemoved):        decodeAs[LocationPropRemoved],
	key(KindCharacter, SubkindAppeared):          decodeAs[CharacterAppeared],
	key(KindCharacter, SubkindDeparted):          decodeAs[CharacterDeparted],
	key(KindCharacter, SubkindPositionChanged):   decodeAs[CharacterPositionChanged],
	key(KindCharacter, SubkindActivityChanged):   decodeAs[CharacterActivityChanged],
	key(KindCharacter, SubkindMoodAdded):         decodeAs[CharacterMoodAdded],
	key(KindCharacter, SubkindMoodRemoved):       decodeAs[CharacterMoodRemoved],
	key(KindCharacter, SubkindOutfitChanged):     decodeAs[CharacterOutfitChanged],
	key(KindCharacter, SubkindPhysicalAdded):     decodeAs[CharacterPhysicalAdded],
	key(KindCharacter, SubkindPhysicalRemoved):   decodeAs[CharacterPhysicalRemoved],
	key(KindCharacter, SubkindProfileSet):        decodeAs[CharacterProfileSet],
	key(KindRelationship, SubkindFeelingAdded):   decodeAs[FeelingAdded],
	key(KindRelationship, SubkindFeelingRemoved): decodeAs[FeelingRemoved],
	key(KindRelationship, SubkindSecretAdded):    decodeAs[SecretAdded],
	key(KindRelationship, SubkindSecretRemoved):  decodeAs[SecretRemoved],
	key(KindRelationship, SubkindWantAdded):      decodeAs[WantAdded],
	key(KindRelationship, SubkindWantRemoved):    decodeAs[WantRemoved],
	key(KindRelationship, SubkindStatusChanged):  decodeAs[RelationshipStatusChanged],
	key(KindScene, SubkindTopicTone):             decodeAs[SceneTopicTone],
	key(KindScene, SubkindTension):               decodeAs[SceneTension],
	key(KindChapter, SubkindEnded):               decodeAs[ChapterEnded],
	key(KindChapter, SubkindDescribed):           decodeAs[ChapterDescribed],
	key(KindForecast, SubkindGenerated):          decodeAs[ForecastGenerated],
}

func decodeAs[T Payload](data []byte) (Payload, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// IsKnown reports whether kind/subkind is part of the recognised set.
func IsKnown(kind Kind, subkind Subkind) bool {
	_, ok := decoders[key(kind, subkind)]
	return ok
}

// MarshalJSON writes the event as one flat object: header fields plus payload fields.
func (e Event) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage)

	switch payload := e.Payload.(type) {
	case nil:
		return nil, fmt.Errorf("event %s has no payload", e.ID)
	case Unknown:
		for name, raw := range payload.Fields {
			fields[name] = raw
		}
	default:
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", key(e.Kind(), e.Subkind()), err)
		}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("flattening %s payload: %w", key(e.Kind(), e.Subkind()), err)
		}
	}

	head, err := json.Marshal(header{
		ID:        e.ID,
		Source:    e.Source,
		Timestamp: e.Timestamp,
		Kind:      e.Kind(),
		Subkind:   e.Subkind(),
		Deleted:   e.Deleted,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding event header: %w", err)
	}
	var headFields map[string]json.RawMessage
	if err := json.Unmarshal(head, &headFields); err != nil {
		return nil, fmt.Errorf("encoding event header: %w", err)
	}
	for name, raw := range headFields {
		fields[name] = raw
	}

	return json.Marshal(fields)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var stored storedHeader
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("decoding event header: %w", err)
	}
	switch {
	case stored.ID == nil || *stored.ID == "":
		return fmt.Errorf("event missing id")
	case stored.Kind == "":
		return fmt.Errorf("event %q missing kind", *stored.ID)
	case stored.Source == nil:
		return fmt.Errorf("event %q missing source", *stored.ID)
	case stored.Timestamp == nil:
		return fmt.Errorf("event %q missing timestamp", *stored.ID)
	}
	head := header{
		ID:        *stored.ID,
		Source:    *stored.Source,
		Timestamp: *stored.Timestamp,
		Kind:      stored.Kind,
		Subkind:   stored.Subkind,
		Deleted:   stored.Deleted,
	}

	var payload Payload
	if decode, ok := decoders[key(head.Kind, head.Subkind)]; ok {
		decoded, err := decode(data)
		if err != nil {
			return fmt.Errorf("decoding %s payload: %w", key(head.Kind, head.Subkind), err)
		}
		payload = decoded
	} else {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decoding unknown payload: %w", err)
		}
		for _, name := range headerFields {
			delete(fields, name)
		}
		payload = Unknown{RawKind: head.Kind, RawSubkind: head.Subkind, Fields: fields}
	}

	*e = Event{
		ID:        head.ID,
		Source:    head.Source,
		Timestamp: head.Timestamp,
		Deleted:   head.Deleted,
		Payload:   payload,
	}
	return nil
}
