package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func querySQLCmd() *cobra.Command {
	var paramPairs []string
	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Run a read query against the events, snapshots and chapter index",
		Long: `Run a read query against the index tables rewritten on every save:
events, snapshots and the chapter search table. Parameters bind by position,
so --param 1=42 fills the first placeholder. Integer values bind as integers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParamPairs(paramPairs)
			if err != nil {
				return err
			}
			return runSQL(strings.Join(args, " "), params)
		},
	}
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, "Query parameter as n=value for the nth placeholder (repeatable)")
	return cmd
}

func runSQL(query string, params map[string]any) error {
	ctx := context.Background()

	p, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	rows, err := p.db.RunSQL(ctx, query, params)
	if err != nil {
		return fmt.Errorf("query %s: %w", p.cfg.Conversation, err)
	}
	return printJSON(rows)
}

func parseParamPairs(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid param %q: expected n=value", pair)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" {
			return nil, fmt.Errorf("invalid param %q: empty key", pair)
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			params[key] = n
			continue
		}
		params[key] = value
	}
	return params, nil
}
