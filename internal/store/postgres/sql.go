package postgres

import (
	"context"
	"fmt"
	"strconv"
)

// RunSQL runs a read query against the index tables with $1..$n bound from
// the "1".."n" keys of params.
func (c *Client) RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	args, err := positionalArgs(params)
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running sql: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	results := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("getting row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sql rows: %w", err)
	}
	return results, nil
}

// positionalArgs orders params by their numeric keys. Gaps and non-numeric
// keys are rejected since $n placeholders cannot bind them.
func positionalArgs(params map[string]any) ([]any, error) {
	args := make([]any, 0, len(params))
	for i := 1; i <= len(params); i++ {
		val, ok := params[strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("sql params must be keyed 1..%d, missing %d", len(params), i)
		}
		args = append(args, val)
	}
	return args, nil
}
