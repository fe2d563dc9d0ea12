package store

import (
	"encoding/json"
	"fmt"
)

// EventRow is one event flattened for a backend's query tables.
type EventRow struct {
	Seq       int
	ID        string
	TurnID    int
	VariantID int
	Timestamp int64
	Kind      string
	Subkind   string
	Deleted   bool
	Payload   []byte
}

// SnapshotRow is one snapshot flattened for a backend's query tables.
type SnapshotRow struct {
	Type         string
	ChapterIndex *int
	TurnID       int
	VariantID    int
	CreatedAt    int64
	Body         []byte
}

// Index is the queryable projection of a Document that backends keep next to
// the document itself.
type Index struct {
	Events    []EventRow
	Snapshots []SnapshotRow
	Chapters  []Chapter
}

// BuildIndex flattens doc. Chapters cover every live variant so that search
// finds descriptions on branches too.
func BuildIndex(doc Document) (Index, error) {
	st, err := FromDocument(doc)
	if err != nil {
		return Index{}, err
	}

	idx := Index{
		Events:    make([]EventRow, 0, len(doc.Events)),
		Snapshots: make([]SnapshotRow, 0, len(doc.Snapshots)),
		Chapters:  st.Chapters(nil),
	}
	for i, e := range st.Events() {
		payload, err := json.Marshal(e)
		if err != nil {
			return Index{}, fmt.Errorf("encoding event %s: %w", e.ID, err)
		}
		idx.Events = append(idx.Events, EventRow{
			Seq:       i,
			ID:        e.ID,
			TurnID:    e.Source.TurnID,
			VariantID: e.Source.VariantID,
			Timestamp: e.Timestamp,
			Kind:      e.Kind().String(),
			Subkind:   e.Subkind().String(),
			Deleted:   e.Deleted,
			Payload:   payload,
		})
	}
	for _, snap := range st.Snapshots() {
		body, err := json.Marshal(snap)
		if err != nil {
			return Index{}, fmt.Errorf("encoding snapshot at %s: %w", snap.Source, err)
		}
		idx.Snapshots = append(idx.Snapshots, SnapshotRow{
			Type:         string(snap.Type),
			ChapterIndex: snap.ChapterIndex,
			TurnID:       snap.Source.TurnID,
			VariantID:    snap.Source.VariantID,
			CreatedAt:    snap.CreatedAt,
			Body:         body,
		})
	}
	return idx, nil
}
