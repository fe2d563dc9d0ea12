package narrative

import (
	"slices"
	"strings"
)

type RelationshipStatus string

const (
	StatusStrangers     RelationshipStatus = "strangers"
	StatusAcquaintances RelationshipStatus = "acquaintances"
	StatusFriendly      RelationshipStatus = "friendly"
	StatusClose         RelationshipStatus = "close"
	StatusIntimate      RelationshipStatus = "intimate"
	StatusStrained      RelationshipStatus = "strained"
	StatusHostile       RelationshipStatus = "hostile"
	StatusComplicated   RelationshipStatus = "complicated"
)

// Pair is an alphabetically sorted pair of character names.
type Pair [2]string

// NewPair sorts a and b into a Pair.
func NewPair(a, b string) Pair {
	if strings.Compare(a, b) > 0 {
		return Pair{b, a}
	}
	return Pair{a, b}
}

func (p Pair) Key() string {
	return p[0] + "|" + p[1]
}

func (p Pair) Contains(name string) bool {
	return p[0] == name || p[1] == name
}

// Attitude is how one side of a pair regards the other.
type Attitude struct {
	Feelings []string `json:"feelings"`
	Secrets  []string `json:"secrets"`
	Wants    []string `json:"wants"`
}

func NewAttitude() Attitude {
	return Attitude{Feelings: []string{}, Secrets: []string{}, Wants: []string{}}
}

func (a Attitude) Clone() Attitude {
	return Attitude{
		Feelings: slices.Clone(a.Feelings),
		Secrets:  slices.Clone(a.Secrets),
		Wants:    slices.Clone(a.Wants),
	}
}

type RelationshipState struct {
	Pair   Pair               `json:"pair"`
	Status RelationshipStatus `json:"status"`
	AToB   Attitude           `json:"aToB"`
	BToA   Attitude           `json:"bToA"`
}

// NewRelationship returns an empty strangers entry for the sorted pair.
func NewRelationship(a, b string) *RelationshipState {
	return &RelationshipState{
		Pair:   NewPair(a, b),
		Status: StatusStrangers,
		AToB:   NewAttitude(),
		BToA:   NewAttitude(),
	}
}

// Directed returns the attitude held by actor toward the other side.
func (r *RelationshipState) Directed(actor string) *Attitude {
	if actor == r.Pair[0] {
		return &r.AToB
	}
	return &r.BToA
}

func (r *RelationshipState) Clone() *RelationshipState {
	if r == nil {
		return nil
	}
	out := *r
	out.AToB = r.AToB.Clone()
	out.BToA = r.BToA.Clone()
	return &out
}
