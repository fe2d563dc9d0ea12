package store

import (
	"sort"

	"chronicle/internal/event"
)

// ChapterEnd finds the live chapter/ended event for index. With a resolver only
// canonical variants are considered; the latest match in log order wins.
func (s *Store) ChapterEnd(index int, resolver Resolver) (event.Event, bool) {
	var (
		found event.Event
		ok    bool
	)
	for _, e := range s.live(resolver) {
		if ended, isEnd := e.Payload.(event.ChapterEnded); isEnd && ended.ChapterIndex == index {
			found, ok = e, true
		}
	}
	return found, ok
}

// ChapterClosedAt reports whether a live chapter/ended event for index was
// recorded at ref. A chapter snapshot without one is orphaned.
func (s *Store) ChapterClosedAt(index int, ref event.TurnRef) bool {
	for _, e := range s.events {
		ended, ok := e.Payload.(event.ChapterEnded)
		if ok && !e.Deleted && ended.ChapterIndex == index && e.Source == ref {
			return true
		}
	}
	return false
}

// ChapterDescription returns the current description of chapter index.
func (s *Store) ChapterDescription(index int, resolver Resolver) (event.ChapterDescribed, bool) {
	var (
		found event.ChapterDescribed
		ok    bool
	)
	for _, e := range s.live(resolver) {
		if described, isDesc := e.Payload.(event.ChapterDescribed); isDesc && described.ChapterIndex == index {
			found, ok = described, true
		}
	}
	return found, ok
}

// Chapters lists closed chapters ordered by index. A nil resolver includes
// every live variant.
func (s *Store) Chapters(resolver Resolver) []Chapter {
	byIndex := map[int]*Chapter{}
	get := func(index int) *Chapter {
		if c, ok := byIndex[index]; ok {
			return c
		}
		c := &Chapter{Index: index}
		byIndex[index] = c
		return c
	}

	for _, e := range s.live(resolver) {
		switch payload := e.Payload.(type) {
		case event.ChapterEnded:
			c := get(payload.ChapterIndex)
			c.Reason = payload.Reason
			c.Trigger = e.Source
		case event.ChapterDescribed:
			c := get(payload.ChapterIndex)
			c.Title = payload.Title
			c.Summary = payload.Summary
		}
	}

	out := make([]Chapter, 0, len(byIndex))
	for _, c := range byIndex {
		if c.Reason == "" {
			// description without a closing event
			continue
		}
		_, c.HasSnapshot = s.ChapterSnapshot(c.Index)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// NextChapterIndex is one past the highest chapter index closed in the
// canonical log.
func (s *Store) NextChapterIndex(resolver Resolver) int {
	next := 0
	for _, e := range s.live(resolver) {
		if ended, ok := e.Payload.(event.ChapterEnded); ok && ended.ChapterIndex >= next {
			next = ended.ChapterIndex + 1
		}
	}
	return next
}

func (s *Store) live(resolver Resolver) []event.Event {
	var out []event.Event
	for _, e := range s.events {
		if e.Deleted {
			continue
		}
		if resolver != nil && e.Source.VariantID != resolver.CanonicalVariant(e.Source.TurnID) {
			continue
		}
		out = append(out, e)
	}
	return out
}
