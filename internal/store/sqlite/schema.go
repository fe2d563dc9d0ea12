package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// The whole document is the source of truth. The events, snapshots and
// chapters_fts tables are a read index rebuilt on every Save.
const ddl = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	conversation TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	id           TEXT NOT NULL,
	turn_id      INTEGER NOT NULL,
	variant_id   INTEGER NOT NULL,
	timestamp    INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	subkind      TEXT NOT NULL,
	deleted      INTEGER NOT NULL DEFAULT 0,
	payload      TEXT NOT NULL,
	PRIMARY KEY (conversation, seq)
);

CREATE TABLE IF NOT EXISTS snapshots (
	conversation  TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	type          TEXT NOT NULL,
	chapter_index INTEGER,
	turn_id       INTEGER NOT NULL,
	variant_id    INTEGER NOT NULL,
	created_at    INTEGER NOT NULL,
	body          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS source_hashes (
	conversation TEXT NOT NULL,
	path         TEXT NOT NULL,
	hash         TEXT NOT NULL,
	ingested_at  TEXT NOT NULL,
	PRIMARY KEY (conversation, path)
);

CREATE INDEX IF NOT EXISTS idx_events_turn ON events (conversation, turn_id, variant_id);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events (conversation, kind, subkind);
CREATE INDEX IF NOT EXISTS idx_snapshots_turn ON snapshots (conversation, turn_id);

CREATE VIRTUAL TABLE IF NOT EXISTS chapters_fts USING fts5(
	conversation UNINDEXED,
	chapter_index UNINDEXED,
	turn_id UNINDEXED,
	variant_id UNINDEXED,
	title,
	summary
);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements cuts ddl at lines ending in ';'. It does not understand
// trigger bodies.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
