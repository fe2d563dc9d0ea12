package sqlite

import (
	"context"
	"fmt"
	"time"
)

func (c *Client) SourceHashes(ctx context.Context, conversation string) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT path, hash FROM source_hashes WHERE conversation = ?", conversation)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}
	return hashes, nil
}

func (c *Client) PutSourceHash(ctx context.Context, conversation, path, hash string) error {
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO source_hashes (conversation, path, hash, ingested_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (conversation, path) DO UPDATE SET
		hash = excluded.hash,
		ingested_at = excluded.ingested_at
	`, conversation, path, hash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing hash for %s: %w", path, err)
	}
	return nil
}
