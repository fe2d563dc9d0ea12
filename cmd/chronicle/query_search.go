package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func querySearchCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Full-text search over chapter titles and summaries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(strings.Join(args, " "), all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Search every conversation, not just the configured one")
	return cmd
}

func runQuerySearch(query string, all bool) error {
	ctx := context.Background()

	p, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	conversation := p.cfg.Conversation
	if all {
		conversation = ""
	}
	hits, err := p.db.SearchChapters(ctx, conversation, query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}

	for _, hit := range hits {
		fmt.Fprintf(os.Stdout, "[%s] chapter %d: %s (turn %s) score=%.2f\n",
			hit.Conversation, hit.Index, hit.Title, hit.Trigger, hit.Score)
		if hit.Snippet != "" {
			fmt.Fprintf(os.Stdout, "  %s\n", hit.Snippet)
		}
	}
	return nil
}
