// Package validate checks a conversation's event store for structural
// problems and vocabulary drift.
package validate

import (
	"context"
	"fmt"

	"chronicle/internal/config"
	"chronicle/internal/event"
	"chronicle/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingInitial   = "missing_initial_snapshot"
	codeOrphanedSnapshot = "orphaned_chapter_snapshot"
	codeSnapshotDrift    = "snapshot_drift"
	codeEnumInvalid      = "enum_value_invalid"
	codeUnknownKind      = "unknown_event_kind"
	codeDuplicateID      = "duplicate_event_id"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Turn     string
	EventID  string
}

type Report struct {
	Issues []Issue
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Run checks st against schema. The resolver decides which chapter snapshots
// are compared against a full replay.
func Run(ctx context.Context, schema *config.Schema, st *store.Store, resolver store.Resolver) (*Report, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if resolver == nil {
		resolver = store.FixedResolver{}
	}

	issues := make([]Issue, 0)
	issues = append(issues, checkDuplicateIDs(st.Events())...)

	for _, e := range st.Active() {
		issues = append(issues, checkEvent(schema, e)...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshotIssues, err := checkSnapshots(ctx, st, resolver)
	if err != nil {
		return nil, err
	}
	issues = append(issues, snapshotIssues...)

	return &Report{Issues: issues}, nil
}

func checkDuplicateIDs(events []event.Event) []Issue {
	var issues []Issue
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, dup := seen[e.ID]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeDuplicateID,
				Message:  fmt.Sprintf("event id %q appears more than once", e.ID),
				Turn:     e.Source.String(),
				EventID:  e.ID,
			})
			continue
		}
		seen[e.ID] = struct{}{}
	}
	return issues
}

func checkEvent(schema *config.Schema, e event.Event) []Issue {
	if !e.Known() {
		return []Issue{{
			Severity: SeverityWarn,
			Code:     codeUnknownKind,
			Message:  fmt.Sprintf("unknown event kind %s/%s is ignored during replay", e.Kind(), e.Subkind()),
			Turn:     e.Source.String(),
			EventID:  e.ID,
		}}
	}

	var values [][2]string
	switch payload := e.Payload.(type) {
	case event.RelationshipStatusChanged:
		values = append(values, [2]string{config.VocabRelationshipStatus, string(payload.Status)})
	case event.SceneTension:
		values = append(values,
			[2]string{config.VocabTensionLevel, payload.Tension.Level},
			[2]string{config.VocabTensionDirection, payload.Tension.Direction},
			[2]string{config.VocabTensionType, payload.Tension.Type},
		)
	case event.ChapterEnded:
		values = append(values, [2]string{config.VocabChapterReason, string(payload.Reason)})
	}

	var issues []Issue
	for _, pair := range values {
		if schema.Allows(pair[0], pair[1]) {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeEnumInvalid,
			Message:  fmt.Sprintf("invalid %s value: %s", pair[0], pair[1]),
			Turn:     e.Source.String(),
			EventID:  e.ID,
		})
	}
	return issues
}
