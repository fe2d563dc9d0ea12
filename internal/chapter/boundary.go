// Package chapter closes chapters at narrative boundaries and keeps chapter
// snapshots consistent when descriptions or canonical variants change.
package chapter

import (
	"time"

	"chronicle/internal/config"
	"chronicle/internal/event"
	"chronicle/internal/snapshot"
)

const DefaultTimeJumpMinutes = 360

// Config controls boundary detection.
type Config struct {
	TimeJumpMinutes int
	LocationChange  bool
}

func DefaultConfig() Config {
	return Config{TimeJumpMinutes: DefaultTimeJumpMinutes, LocationChange: true}
}

// ConfigFrom reads the chapters section of a project config.
func ConfigFrom(cfg *config.ProjectConfig) Config {
	return Config{
		TimeJumpMinutes: cfg.Chapters.TimeJumpMinutes,
		LocationChange:  cfg.Chapters.LocationChangeEnabled(),
	}
}

// DetectBoundary compares the state before and after a turn and reports
// whether a chapter should close, and why.
func DetectBoundary(prev, next *snapshot.Projection, cfg Config) (event.ChapterReason, bool) {
	if prev == nil || next == nil {
		return "", false
	}
	moved := cfg.LocationChange && locationChanged(prev, next)
	jumped := cfg.TimeJumpMinutes > 0 && timeJumped(prev, next, cfg.TimeJumpMinutes)

	switch {
	case moved && jumped:
		return event.ReasonBoth, true
	case moved:
		return event.ReasonLocationChange, true
	case jumped:
		return event.ReasonTimeJump, true
	}
	return "", false
}

func locationChanged(prev, next *snapshot.Projection) bool {
	if prev.Location == nil || next.Location == nil {
		return false
	}
	return prev.Location.Place != next.Location.Place || prev.Location.Area != next.Location.Area
}

func timeJumped(prev, next *snapshot.Projection, minutes int) bool {
	if prev.Time == nil || next.Time == nil {
		return false
	}
	return next.Time.Since(*prev.Time) >= time.Duration(minutes)*time.Minute
}
