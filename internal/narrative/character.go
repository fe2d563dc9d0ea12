package narrative

import "slices"

// Outfit slots. The set is fixed; unknown slots are rejected by SetSlot.
const (
	SlotHead      = "head"
	SlotNeck      = "neck"
	SlotJacket    = "jacket"
	SlotBack      = "back"
	SlotTorso     = "torso"
	SlotLegwear   = "legwear"
	SlotFootwear  = "footwear"
	SlotSocks     = "socks"
	SlotUnderwear = "underwear"
)

var OutfitSlots = []string{
	SlotHead, SlotNeck, SlotJacket, SlotBack, SlotTorso,
	SlotLegwear, SlotFootwear, SlotSocks, SlotUnderwear,
}

// Outfit maps every slot to an item or null.
type Outfit struct {
	Head      *string `json:"head"`
	Neck      *string `json:"neck"`
	Jacket    *string `json:"jacket"`
	Back      *string `json:"back"`
	Torso     *string `json:"torso"`
	Legwear   *string `json:"legwear"`
	Footwear  *string `json:"footwear"`
	Socks     *string `json:"socks"`
	Underwear *string `json:"underwear"`
}

func (o *Outfit) slot(name string) **string {
	switch name {
	case SlotHead:
		return &o.Head
	case SlotNeck:
		return &o.Neck
	case SlotJacket:
		return &o.Jacket
	case SlotBack:
		return &o.Back
	case SlotTorso:
		return &o.Torso
	case SlotLegwear:
		return &o.Legwear
	case SlotFootwear:
		return &o.Footwear
	case SlotSocks:
		return &o.Socks
	case SlotUnderwear:
		return &o.Underwear
	default:
		return nil
	}
}

// SetSlot assigns item (nil clears the slot). It reports false for unknown slots.
func (o *Outfit) SetSlot(name string, item *string) bool {
	ptr := o.slot(name)
	if ptr == nil {
		return false
	}
	*ptr = cloneString(item)
	return true
}

// Slot returns the item worn in the named slot.
func (o Outfit) Slot(name string) *string {
	ptr := (&o).slot(name)
	if ptr == nil {
		return nil
	}
	return *ptr
}

func (o Outfit) Clone() Outfit {
	var out Outfit
	for _, name := range OutfitSlots {
		out.SetSlot(name, o.Slot(name))
	}
	return out
}

type Profile struct {
	Sex         string   `json:"sex,omitempty"`
	Species     string   `json:"species,omitempty"`
	Age         int      `json:"age,omitempty"`
	Appearance  []string `json:"appearance"`
	Personality []string `json:"personality"`
}

func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Appearance = slices.Clone(p.Appearance)
	out.Personality = slices.Clone(p.Personality)
	return &out
}

type CharacterState struct {
	Name          string   `json:"name"`
	Profile       *Profile `json:"profile,omitempty"`
	Position      string   `json:"position"`
	Activity      string   `json:"activity"`
	Mood          []string `json:"mood"`
	PhysicalState []string `json:"physicalState"`
	Outfit        Outfit   `json:"outfit"`
}

func NewCharacter(name string) *CharacterState {
	return &CharacterState{
		Name:          name,
		Mood:          []string{},
		PhysicalState: []string{},
	}
}

func (c *CharacterState) Clone() *CharacterState {
	if c == nil {
		return nil
	}
	out := *c
	out.Profile = c.Profile.Clone()
	out.Mood = slices.Clone(c.Mood)
	out.PhysicalState = slices.Clone(c.PhysicalState)
	out.Outfit = c.Outfit.Clone()
	return &out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
