package store

// Resolver reports the canonical variant of a turn. The store never decides
// this itself.
type Resolver interface {
	CanonicalVariant(turnID int) int
}

type ResolverFunc func(turnID int) int

func (f ResolverFunc) CanonicalVariant(turnID int) int { return f(turnID) }

// FixedResolver maps turn ids to their canonical variant. Turns not in the
// map resolve to variant 0.
type FixedResolver map[int]int

func (r FixedResolver) CanonicalVariant(turnID int) int { return r[turnID] }
