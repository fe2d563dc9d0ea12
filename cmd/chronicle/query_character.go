package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chronicle/internal/narrative"
)

var outfitSlots = []string{"head", "neck", "jacket", "back", "torso", "legwear", "footwear", "socks", "underwear"}

func queryCharacterCmd() *cobra.Command {
	var flags stateFlags
	cmd := &cobra.Command{
		Use:   "character <name>",
		Short: "Display a character's state at a turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryCharacter(&flags, args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

func runQueryCharacter(flags *stateFlags, name string) error {
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
	c := state.Character(name)
	if c == nil {
		fmt.Fprintf(os.Stdout, "No character %q at turn %s.\n", name, state.Source)
		return nil
	}
	if flags.asJSON {
		return printJSON(c)
	}

	presence := "absent"
	if state.IsPresent(name) {
		presence = "present"
	}
	fmt.Fprintf(os.Stdout, "Name: %s (%s)\n", c.Name, presence)
	if c.Position != "" {
		fmt.Fprintf(os.Stdout, "Position: %s\n", c.Position)
	}
	if c.Activity != "" {
		fmt.Fprintf(os.Stdout, "Activity: %s\n", c.Activity)
	}
	if len(c.Mood) > 0 {
		fmt.Fprintf(os.Stdout, "Mood: %s\n", strings.Join(c.Mood, ", "))
	}
	if len(c.PhysicalState) > 0 {
		fmt.Fprintf(os.Stdout, "Physical: %s\n", strings.Join(c.PhysicalState, ", "))
	}
	printProfile(c.Profile)

	var worn []string
	for _, slot := range outfitSlots {
		if item := c.Outfit.Slot(slot); item != nil {
			worn = append(worn, fmt.Sprintf("%s: %s", slot, *item))
		}
	}
	if len(worn) > 0 {
		fmt.Fprintln(os.Stdout, "Outfit:")
		for _, line := range worn {
			fmt.Fprintf(os.Stdout, "  %s\n", line)
		}
	}
	return nil
}

func printProfile(profile *narrative.Profile) {
	if profile == nil {
		return
	}
	fmt.Fprintln(os.Stdout, "Profile:")
	if details := joinNonEmpty(", ", profile.Sex, profile.Species); details != "" {
		fmt.Fprintf(os.Stdout, "  %s\n", details)
	}
	if profile.Age > 0 {
		fmt.Fprintf(os.Stdout, "  Age: %d\n", profile.Age)
	}
	if len(profile.Appearance) > 0 {
		fmt.Fprintf(os.Stdout, "  Appearance: %s\n", strings.Join(profile.Appearance, ", "))
	}
	if len(profile.Personality) > 0 {
		fmt.Fprintf(os.Stdout, "  Personality: %s\n", strings.Join(profile.Personality, ", "))
	}
}
