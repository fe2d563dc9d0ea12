package event

// Kind is the top-level discriminant of an event.
type Kind string

// Subkind refines Kind.
type Subkind string

const (
	KindTime         Kind = "time"
	KindLocation     Kind = "location"
	KindCharacter    Kind = "character"
	KindRelationship Kind = "relationship"
	KindScene        Kind = "scene"
	KindChapter      Kind = "chapter"
	KindForecast     Kind = "forecast"
)

const (
	SubkindInitial Subkind = "initial"
	SubkindDelta   Subkind = "delta"

	SubkindMoved       Subkind = "moved"
	SubkindPropAdded   Subkind = "prop_added"
	SubkindPropRemoved Subkind = "prop_removed"

	SubkindAppeared        Subkind = "appeared"
	SubkindDeparted        Subkind = "departed"
	SubkindPositionChanged Subkind = "position_changed"
	SubkindActivityChanged Subkind = "activity_changed"
	SubkindMoodAdded       Subkind = "mood_added"
	SubkindMoodRemoved     Subkind = "mood_removed"
	SubkindOutfitChanged   Subkind = "outfit_changed"
	SubkindPhysicalAdded   Subkind = "physical_added"
	SubkindPhysicalRemoved Subkind = "physical_removed"
	SubkindProfileSet      Subkind = "profile_set"

	SubkindFeelingAdded   Subkind = "feeling_added"
	SubkindFeelingRemoved Subkind = "feeling_removed"
	SubkindSecretAdded    Subkind = "secret_added"
	SubkindSecretRemoved  Subkind = "secret_removed"
	SubkindWantAdded      Subkind = "want_added"
	SubkindWantRemoved    Subkind = "want_removed"
	SubkindStatusChanged  Subkind = "status_changed"

	SubkindTopicTone Subkind = "topic_tone"
	SubkindTension   Subkind = "tension"

	SubkindEnded     Subkind = "ended"
	SubkindDescribed Subkind = "described"

	SubkindGenerated Subkind = "generated"
)

// ChapterReason explains why a chapter closed.
type ChapterReason string

const (
	ReasonLocationChange ChapterReason = "location_change"
	ReasonTimeJump       ChapterReason = "time_jump"
	ReasonBoth           ChapterReason = "both"
	ReasonManual         ChapterReason = "manual"
)

func (k Kind) String() string { return string(k) }

func (s Subkind) String() string { return string(s) }

func key(kind Kind, subkind Subkind) string {
	return string(kind) + "/" + string(subkind)
}
