package chapter

import (
	"testing"

	"chronicle/internal/event"
	"chronicle/internal/narrative"
	"chronicle/internal/snapshot"
)

func projection(area, place string, hour int) *snapshot.Projection {
	p := snapshot.NewProjection(event.Ref(0, 0))
	if place != "" {
		p.Location = &narrative.Location{Area: area, Place: place, Props: []string{}}
	}
	if hour >= 0 {
		p.Time = &narrative.Time{Year: 1203, Month: 3, Day: 14, Hour: hour}
	}
	return p
}

func TestDetectBoundary(t *testing.T) {
	tests := []struct {
		name   string
		prev   *snapshot.Projection
		next   *snapshot.Projection
		cfg    Config
		reason event.ChapterReason
		ok     bool
	}{
		{"same place short gap", projection("Town", "Inn", 8), projection("Town", "Inn", 10), DefaultConfig(), "", false},
		{"place change", projection("Town", "Inn", 8), projection("Town", "Docks", 9), DefaultConfig(), event.ReasonLocationChange, true},
		{"area change", projection("Town", "Inn", 8), projection("Coast", "Inn", 9), DefaultConfig(), event.ReasonLocationChange, true},
		{"exact threshold", projection("Town", "Inn", 8), projection("Town", "Inn", 14), DefaultConfig(), event.ReasonTimeJump, true},
		{"both", projection("Town", "Inn", 8), projection("Town", "Docks", 20), DefaultConfig(), event.ReasonBoth, true},
		{"location disabled", projection("Town", "Inn", 8), projection("Town", "Docks", 9), Config{TimeJumpMinutes: 360}, "", false},
		{"no time yet", projection("Town", "Inn", -1), projection("Town", "Inn", 23), DefaultConfig(), "", false},
		{"first location", projection("", "", 8), projection("Town", "Inn", 9), DefaultConfig(), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := DetectBoundary(tt.prev, tt.next, tt.cfg)
			if ok != tt.ok || reason != tt.reason {
				t.Fatalf("DetectBoundary() = (%q, %v), want (%q, %v)", reason, ok, tt.reason, tt.ok)
			}
		})
	}
}
