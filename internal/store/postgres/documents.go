package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

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

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO conversations (id, version, document, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id) DO UPDATE SET
    version = EXCLUDED.version,
    document = EXCLUDED.document,
    updated_at = now()
`, conversation, doc.Version, data)
	if err != nil {
		return fmt.Errorf("upserting conversation %q: %w", conversation, err)
	}

	batch := indexBatch(conversation, idx)
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("writing index row %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing index batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

func (c *Client) Load(ctx context.Context, conversation string) (store.Document, error) {
	var data []byte
	err := c.pool.QueryRow(ctx,
		"SELECT document FROM conversations WHERE id = $1", conversation,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Document{}, fmt.Errorf("conversation %q: %w", conversation, store.ErrNotFound)
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("loading conversation %q: %w", conversation, err)
	}

	st, err := store.Deserialize(data)
	if err != nil {
		return store.Document{}, fmt.Errorf("decoding conversation %q: %w", conversation, err)
	}
	return st.Serialize(), nil
}

// Delete removes the document, its index rows and its source hashes.
func (c *Client) Delete(ctx context.Context, conversation string) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM source_hashes WHERE conversation = $1", conversation); err != nil {
		return fmt.Errorf("deleting source hashes: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM conversations WHERE id = $1", conversation); err != nil {
		return fmt.Errorf("deleting conversation %q: %w", conversation, err)
	}
	return tx.Commit(ctx)
}

func (c *Client) ListConversations(ctx context.Context) ([]store.ConversationSummary, error) {
	rows, err := c.pool.Query(ctx, `
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
		var events, snapshots int64
		if err := rows.Scan(&s.ID, &s.Version, &s.UpdatedAt, &events, &snapshots); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		s.Events = int(events)
		s.Snapshots = int(snapshots)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return summaries, nil
}

func indexBatch(conversation string, idx store.Index) *pgx.Batch {
	batch := &pgx.Batch{}
	batch.Queue("DELETE FROM events WHERE conversation = $1", conversation)
	batch.Queue("DELETE FROM snapshots WHERE conversation = $1", conversation)
	batch.Queue("DELETE FROM chapters WHERE conversation = $1", conversation)

	for _, row := range idx.Events {
		batch.Queue(`
INSERT INTO events (conversation, seq, id, turn_id, variant_id, timestamp, kind, subkind, deleted, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, conversation, row.Seq, row.ID, row.TurnID, row.VariantID, row.Timestamp,
			row.Kind, row.Subkind, row.Deleted, row.Payload)
	}
	for _, row := range idx.Snapshots {
		batch.Queue(`
INSERT INTO snapshots (conversation, type, chapter_index, turn_id, variant_id, created_at, body)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, conversation, row.Type, row.ChapterIndex, row.TurnID, row.VariantID, row.CreatedAt, row.Body)
	}
	for _, ch := range idx.Chapters {
		batch.Queue(`
INSERT INTO chapters (conversation, chapter_index, turn_id, variant_id, title, summary)
VALUES ($1, $2, $3, $4, $5, $6)
`, conversation, ch.Index, ch.Trigger.TurnID, ch.Trigger.VariantID, ch.Title, ch.Summary)
	}
	return batch
}
