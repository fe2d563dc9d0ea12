package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chronicle/internal/narrative"
)

func queryRelationsCmd() *cobra.Command {
	var flags stateFlags
	cmd := &cobra.Command{
		Use:   "relations <name>",
		Short: "Display a character's relationships at a turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryRelations(&flags, args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

func runQueryRelations(flags *stateFlags, name string) error {
	ctx := context.Background()

	p, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	state, err := flags.project(ctx, p)
	if err != nil {
		return err
	}
	rels := state.RelationshipsOf(name)
	if flags.asJSON {
		return printJSON(rels)
	}
	if len(rels) == 0 {
		fmt.Fprintf(os.Stdout, "No relationships found for %q.\n", name)
		return nil
	}

	for _, rel := range rels {
		other := rel.Pair[0]
		if other == name {
			other = rel.Pair[1]
		}
		fmt.Fprintf(os.Stdout, "%s <-> %s [%s]\n", name, other, rel.Status)
		printAttitude("  "+name+" -> "+other, rel.Directed(name))
		printAttitude("  "+other+" -> "+name, rel.Directed(other))
	}
	return nil
}

func printAttitude(label string, attitude *narrative.Attitude) {
	if attitude == nil {
		return
	}
	var parts []string
	if len(attitude.Feelings) > 0 {
		parts = append(parts, "feels "+strings.Join(attitude.Feelings, ", "))
	}
	if len(attitude.Wants) > 0 {
		parts = append(parts, "wants "+strings.Join(attitude.Wants, ", "))
	}
	if len(attitude.Secrets) > 0 {
		parts = append(parts, "hides "+strings.Join(attitude.Secrets, ", "))
	}
	if len(parts) == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "%s: %s\n", label, strings.Join(parts, "; "))
}
