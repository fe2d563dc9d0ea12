package postgres

import (
	"context"
	"fmt"
	"strings"

	"chronicle/internal/event"
	"chronicle/internal/store"
)

// SearchChapters runs websearch syntax against chapter titles and summaries.
// An empty conversation searches all of them.
func (c *Client) SearchChapters(ctx context.Context, conversation, query string) ([]store.ChapterHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT conversation, chapter_index, turn_id, variant_id, title,
    ts_rank(search_vector, websearch_to_tsquery('english', $1)) AS score,
    CASE WHEN summary <> '' THEN
        ts_headline('english', summary, websearch_to_tsquery('english', $1),
            'MaxFragments=2, MaxWords=32, MinWords=12, StartSel=**, StopSel=**')
    ELSE '' END AS snippet
FROM chapters
WHERE search_vector @@ websearch_to_tsquery('english', $1)
  AND ($2 = '' OR conversation = $2)
ORDER BY score DESC, conversation ASC, chapter_index ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query, conversation)
	if err != nil {
		return nil, fmt.Errorf("searching chapters: %w", err)
	}
	defer rows.Close()

	hits := make([]store.ChapterHit, 0)
	for rows.Next() {
		var hit store.ChapterHit
		var turn, variant int32
		var score float32
		if err := rows.Scan(&hit.Conversation, &hit.Index, &turn, &variant, &hit.Title, &score, &hit.Snippet); err != nil {
			return nil, fmt.Errorf("scanning chapter hit: %w", err)
		}
		hit.Trigger = event.Ref(int(turn), int(variant))
		hit.Score = float64(score)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapter hits: %w", err)
	}
	return hits, nil
}
