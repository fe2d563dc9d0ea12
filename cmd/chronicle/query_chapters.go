package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryChaptersCmd() *cobra.Command {
	var variantPairs []string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "List closed chapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryChapters(variantPairs, asJSON)
		},
	}
	cmd.Flags().StringArrayVar(&variantPairs, "variant", nil, "Canonical variant as turn=variant (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func runQueryChapters(variantPairs []string, asJSON bool) error {
	ctx := context.Background()

	p, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	resolver, err := p.resolver(variantPairs)
	if err != nil {
		return err
	}
	st, err := p.loadStore(ctx)
	if err != nil {
		return err
	}

	chapters := st.Chapters(resolver)
	if asJSON {
		return printJSON(chapters)
	}
	if len(chapters) == 0 {
		fmt.Fprintln(os.Stdout, "No chapters closed yet.")
		return nil
	}
	for _, ch := range chapters {
		snap := ""
		if !ch.HasSnapshot {
			snap = " [no snapshot]"
		}
		fmt.Fprintf(os.Stdout, "%d. %s (%s at turn %s)%s\n", ch.Index, ch.Title, ch.Reason, ch.Trigger, snap)
		if ch.Summary != "" {
			fmt.Fprintf(os.Stdout, "   %s\n", ch.Summary)
		}
	}
	return nil
}
