package chapter

import (
	"context"

	"chronicle/internal/event"
	"chronicle/internal/snapshot"
)

// Input is what a Narrator sees when describing a closed chapter.
type Input struct {
	Index   int
	Reason  event.ChapterReason
	Trigger event.TurnRef
	State   *snapshot.Projection
	Events  []event.Event
}

type Description struct {
	Title   string
	Summary string
}

// Narrator writes the prose description of a chapter. It is an external
// collaborator, usually backed by a language model.
type Narrator interface {
	Describe(ctx context.Context, in Input) (Description, error)
}

// NarratorFunc adapts a function to Narrator.
type NarratorFunc func(ctx context.Context, in Input) (Description, error)

func (f NarratorFunc) Describe(ctx context.Context, in Input) (Description, error) {
	return f(ctx, in)
}

// Untitled is a Narrator that names chapters by index and reason only.
var Untitled Narrator = NarratorFunc(func(_ context.Context, in Input) (Description, error) {
	return Description{Title: untitled(in.Index, in.Reason)}, nil
})
