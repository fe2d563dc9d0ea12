package postgres

import (
	"context"
	"fmt"
)

func (c *Client) SourceHashes(ctx context.Context, conversation string) (map[string]string, error) {
	rows, err := c.pool.Query(ctx,
		"SELECT path, hash FROM source_hashes WHERE conversation = $1", conversation)
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
	_, err := c.pool.Exec(ctx, `
INSERT INTO source_hashes (conversation, path, hash)
VALUES ($1, $2, $3)
ON CONFLICT (conversation, path) DO UPDATE SET
    hash = EXCLUDED.hash,
    ingested_at = now()
`, conversation, path, hash)
	if err != nil {
		return fmt.Errorf("storing hash for %s: %w", path, err)
	}
	return nil
}
