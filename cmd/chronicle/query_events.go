package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chronicle/internal/event"
)

func queryEventsCmd() *cobra.Command {
	var fromTurn, toTurn int
	var kind string
	var includeDeleted, asJSON bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List logged events in turn order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryEvents(fromTurn, toTurn, kind, includeDeleted, asJSON)
		},
	}
	cmd.Flags().IntVar(&fromTurn, "from", 0, "First turn to list")
	cmd.Flags().IntVar(&toTurn, "to", -1, "Last turn to list (default: all)")
	cmd.Flags().StringVar(&kind, "kind", "", "Event kind filter (time, location, character, relationship, scene, chapter, forecast)")
	cmd.Flags().BoolVar(&includeDeleted, "deleted", false, "Include soft-deleted events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func runQueryEvents(fromTurn, toTurn int, kind string, includeDeleted, asJSON bool) error {
	ctx := context.Background()

	p, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	st, err := p.loadStore(ctx)
	if err != nil {
		return err
	}

	events := st.Active()
	if includeDeleted {
		events = st.Events()
	}

	var selected []event.Event
	for _, e := range events {
		if e.Source.TurnID < fromTurn || (toTurn >= 0 && e.Source.TurnID > toTurn) {
			continue
		}
		if kind != "" && string(e.Kind()) != kind {
			continue
		}
		selected = append(selected, e)
	}

	if asJSON {
		if selected == nil {
			selected = []event.Event{}
		}
		return printJSON(selected)
	}
	if len(selected) == 0 {
		fmt.Fprintln(os.Stdout, "No events found.")
		return nil
	}
	for _, e := range selected {
		marker := ""
		if e.Deleted {
			marker = " [deleted]"
		}
		fmt.Fprintf(os.Stdout, "%-6s %s/%s %s%s\n", e.Source, e.Kind(), e.Subkind(), e.ID, marker)
	}
	return nil
}
