package sqlite

import (
	"context"
	"fmt"
	"strings"

	"chronicle/internal/event"
	"chronicle/internal/store"
)

// SearchChapters matches chapter titles and summaries. An empty conversation
// searches all of them.
func (c *Client) SearchChapters(ctx context.Context, conversation, query string) ([]store.ChapterHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT conversation, chapter_index, turn_id, variant_id, title,
		   bm25(chapters_fts, 0.0, 0.0, 0.0, 0.0, 4.0, 1.0) AS score,
		   snippet(chapters_fts, 5, '**', '**', '...', 32) AS snippet
	FROM chapters_fts
	WHERE chapters_fts MATCH ?
	  AND (? = '' OR conversation = ?)
	ORDER BY score ASC, conversation ASC, chapter_index ASC
	LIMIT 50
	`, convertWebsearchToFTS5(query), conversation, conversation)
	if err != nil {
		return nil, fmt.Errorf("searching chapters: %w", err)
	}
	defer rows.Close()

	hits := make([]store.ChapterHit, 0)
	for rows.Next() {
		var hit store.ChapterHit
		var turn, variant int
		if err := rows.Scan(&hit.Conversation, &hit.Index, &turn, &variant, &hit.Title, &hit.Score, &hit.Snippet); err != nil {
			return nil, fmt.Errorf("scanning chapter hit: %w", err)
		}
		hit.Trigger = event.Ref(turn, variant)
		// bm25 is lower for better matches
		hit.Score = -hit.Score
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapter hits: %w", err)
	}
	return hits, nil
}

// convertWebsearchToFTS5 rewrites web-style search syntax (quoted phrases,
// -term, implicit AND) into an FTS5 MATCH expression.
func convertWebsearchToFTS5(query string) string {
	var result strings.Builder
	var inQuote bool
	var current strings.Builder

	flushToken := func() {
		token := current.String()
		current.Reset()
		if token == "" {
			return
		}

		upper := strings.ToUpper(token)
		switch upper {
		case "AND", "OR", "NOT":
			if result.Len() > 0 {
				result.WriteString(" ")
			}
			result.WriteString(upper)
			return
		}

		if result.Len() > 0 {
			lastWord := lastWord(result.String())
			if lastWord != "AND" && lastWord != "OR" && lastWord != "NOT" && lastWord != "" {
				result.WriteString(" AND ")
			} else {
				result.WriteString(" ")
			}
		}

		if strings.HasPrefix(token, "-") && len(token) > 1 {
			result.WriteString("NOT ")
			token = token[1:]
		}
		result.WriteString(token)
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				token := current.String()
				current.Reset()
				if token != "" {
					if result.Len() > 0 {
						result.WriteString(" AND ")
					}
					result.WriteString(`"`)
					result.WriteString(token)
					result.WriteString(`"`)
				}
			} else {
				flushToken()
				inQuote = true
			}
		case inQuote:
			current.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			flushToken()
		default:
			current.WriteByte(ch)
		}
	}

	flushToken()

	return result.String()
}

func lastWord(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
