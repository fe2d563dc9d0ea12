package postgres

import (
	"context"
	"fmt"
)

// The events, snapshots and chapters tables are a read index over the
// document column and are rewritten on every Save.
const ddl = `
CREATE TABLE IF NOT EXISTS conversations (
    id         TEXT PRIMARY KEY,
    version    INTEGER NOT NULL,
    document   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS events (
    conversation TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    seq          INTEGER NOT NULL,
    id           TEXT NOT NULL,
    turn_id      INTEGER NOT NULL,
    variant_id   INTEGER NOT NULL,
    timestamp    BIGINT NOT NULL,
    kind         TEXT NOT NULL,
    subkind      TEXT NOT NULL,
    deleted      BOOLEAN NOT NULL DEFAULT FALSE,
    payload      JSONB NOT NULL,
    PRIMARY KEY (conversation, seq)
);

CREATE TABLE IF NOT EXISTS snapshots (
    conversation  TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    type          TEXT NOT NULL,
    chapter_index INTEGER,
    turn_id       INTEGER NOT NULL,
    variant_id    INTEGER NOT NULL,
    created_at    BIGINT NOT NULL,
    body          JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS chapters (
    conversation  TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    chapter_index INTEGER NOT NULL,
    turn_id       INTEGER NOT NULL,
    variant_id    INTEGER NOT NULL,
    title         TEXT NOT NULL DEFAULT '',
    summary       TEXT NOT NULL DEFAULT '',
    search_vector TSVECTOR GENERATED ALWAYS AS (
        setweight(to_tsvector('english', title), 'A') ||
        setweight(to_tsvector('english', summary), 'B')
    ) STORED
);

CREATE TABLE IF NOT EXISTS source_hashes (
    conversation TEXT NOT NULL,
    path         TEXT NOT NULL,
    hash         TEXT NOT NULL,
    ingested_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (conversation, path)
);

CREATE INDEX IF NOT EXISTS idx_events_turn ON events (conversation, turn_id, variant_id);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events (conversation, kind, subkind);
CREATE INDEX IF NOT EXISTS idx_events_payload ON events USING GIN (payload);
CREATE INDEX IF NOT EXISTS idx_snapshots_turn ON snapshots (conversation, turn_id);
CREATE INDEX IF NOT EXISTS idx_chapters_search ON chapters USING GIN (search_vector);
`

// EnsureSchema sends all DDL in one call, which PostgreSQL runs as a single
// implicit transaction.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
