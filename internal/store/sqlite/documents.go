package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chronicle/internal/store"
)

func (c *Client) Save(ctx context.Context, conversation string, doc store.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	idx, err := store.BuildIndex(doc)
	if err != nil {
		return fmt.Errorf("indexing document: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO conversations (id, version, document, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		version = excluded.version,
		document = excluded.document,
		updated_at = excluded.updated_at
	`, conversation, doc.Version, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upserting conversation %q: %w", conversation, err)
	}

	if err := writeIndex(ctx, tx, conversation, idx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

func (c *Client) Load(ctx context.Context, conversation string) (store.Document, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		"SELECT document FROM conversations WHERE id = ?", conversation,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, fmt.Errorf("conversation %q: %w", conversation, store.ErrNotFound)
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("loading conversation %q: %w", conversation, err)
	}

	st, err := store.Deserialize([]byte(data))
	if err != nil {
		return store.Document{}, fmt.Errorf("decoding conversation %q: %w", conversation, err)
	}
	return st.Serialize(), nil
}

func (c *Client) Delete(ctx context.Context, conversation string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		"DELETE FROM chapters_fts WHERE conversation = ?",
		"DELETE FROM source_hashes WHERE conversation = ?",
		"DELETE FROM events WHERE conversation = ?",
		"DELETE FROM snapshots WHERE conversation = ?",
		"DELETE FROM conversations WHERE id = ?",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, conversation); err != nil {
			return fmt.Errorf("deleting conversation %q: %w", conversation, err)
		}
	}
	return tx.Commit()
}

func (c *Client) ListConversations(ctx context.Context) ([]store.ConversationSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT c.id, c.version, c.updated_at,
		(SELECT COUNT(*) FROM events e WHERE e.conversation = c.id),
		(SELECT COUNT(*) FROM snapshots s WHERE s.conversation = c.id)
	FROM conversations c
	ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	summaries := make([]store.ConversationSummary, 0)
	for rows.Next() {
		var s store.ConversationSummary
		var updated string
		if err := rows.Scan(&s.ID, &s.Version, &updated, &s.Events, &s.Snapshots); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		s.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at for %q: %w", s.ID, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return summaries, nil
}

func writeIndex(ctx context.Context, tx *sql.Tx, conversation string, idx store.Index) error {
	for _, table := range []string{"events", "snapshots", "chapters_fts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE conversation = ?", conversation); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, row := range idx.Events {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO events (conversation, seq, id, turn_id, variant_id, timestamp, kind, subkind, deleted, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, conversation, row.Seq, row.ID, row.TurnID, row.VariantID, row.Timestamp,
			row.Kind, row.Subkind, row.Deleted, string(row.Payload))
		if err != nil {
			return fmt.Errorf("indexing event %s: %w", row.ID, err)
		}
	}

	for _, row := range idx.Snapshots {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (conversation, type, chapter_index, turn_id, variant_id, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`, conversation, row.Type, row.ChapterIndex, row.TurnID, row.VariantID, row.CreatedAt, string(row.Body))
		if err != nil {
			return fmt.Errorf("indexing %s snapshot: %w", row.Type, err)
		}
	}

	for _, ch := range idx.Chapters {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO chapters_fts (conversation, chapter_index, turn_id, variant_id, title, summary)
		VALUES (?, ?, ?, ?, ?, ?)
		`, conversation, ch.Index, ch.Trigger.TurnID, ch.Trigger.VariantID, ch.Title, ch.Summary)
		if err != nil {
			return fmt.Errorf("indexing chapter %d: %w", ch.Index, err)
		}
	}
	return nil
}
