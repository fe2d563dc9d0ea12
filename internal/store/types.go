package store

import (
	"time"

	"chronicle/internal/event"
)

// Chapter is a closed chapter as read back from the log.
type Chapter struct {
	Index       int                 `json:"index"`
	Reason      event.ChapterReason `json:"reason"`
	Trigger     event.TurnRef       `json:"trigger"`
	Title       string              `json:"title,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	HasSnapshot bool                `json:"hasSnapshot"`
}

// ConversationSummary describes one persisted document.
type ConversationSummary struct {
	ID        string
	Version   int
	Events    int
	Snapshots int
	UpdatedAt time.Time
}

// ChapterHit is one chapter description matched by a backend search.
type ChapterHit struct {
	Conversation string
	Index        int
	Trigger      event.TurnRef
	Title        string
	Snippet      string
	Score        float64
}
