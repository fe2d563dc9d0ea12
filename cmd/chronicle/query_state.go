package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chronicle/internal/narrative"
	"chronicle/internal/snapshot"
)

// stateFlags are shared by the query commands that project state.
type stateFlags struct {
	turn     int
	variants []string
	asJSON   bool
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.turn, "turn", -1, "Turn to project at (default: latest)")
	cmd.Flags().StringArrayVar(&f.variants, "variant", nil, "Canonical variant as turn=variant (repeatable)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print JSON instead of text")
}

// project loads the store and projects state at the requested turn.
func (f *stateFlags) project(ctx context.Context, p *project) (*snapshot.Projection, error) {
	resolver, err := p.resolver(f.variants)
	if err != nil {
		return nil, err
	}
	st, err := p.loadStore(ctx)
	if err != nil {
		return nil, err
	}
	turn := f.turn
	if turn < 0 {
		turns := st.Turns()
		if len(turns) == 0 {
			return nil, fmt.Errorf("conversation %q has no events", p.cfg.Conversation)
		}
		turn = turns[len(turns)-1]
	}
	return st.ProjectStateAtMessage(turn, resolver)
}

func queryStateCmd() *cobra.Command {
	var flags stateFlags
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Project narrative state at a turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryState(&flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runQueryState(flags *stateFlags) error {
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
	if flags.asJSON {
		return printJSON(snapshot.FromProjection(state, snapshot.Meta{Source: state.Source}))
	}

	fmt.Fprintf(os.Stdout, "Turn %s, chapter %d\n", state.Source, state.CurrentChapter)
	if state.Time != nil {
		fmt.Fprintf(os.Stdout, "Time: %s\n", formatTime(*state.Time))
	}
	if loc := state.Location; loc != nil {
		fmt.Fprintf(os.Stdout, "Location: %s\n", joinNonEmpty(", ", loc.Place, loc.Area, loc.Position))
		if len(loc.Props) > 0 {
			fmt.Fprintf(os.Stdout, "  Props: %s\n", strings.Join(loc.Props, ", "))
		}
	}
	if scene := state.Scene; scene != nil {
		fmt.Fprintf(os.Stdout, "Scene: %s (%s)\n", scene.Topic, scene.Tone)
		fmt.Fprintf(os.Stdout, "  Tension: %s, %s, %s\n", scene.Tension.Level, scene.Tension.Direction, scene.Tension.Type)
	}
	if len(state.CharactersPresent) > 0 {
		fmt.Fprintln(os.Stdout, "Present:")
		for _, name := range state.CharactersPresent {
			printCharacterLine(state.Character(name))
		}
	}
	return nil
}

func printCharacterLine(c *narrative.CharacterState) {
	if c == nil {
		return
	}
	line := joinNonEmpty("; ", c.Position, c.Activity)
	if len(c.Mood) > 0 {
		line = joinNonEmpty("; ", line, "mood: "+strings.Join(c.Mood, ", "))
	}
	fmt.Fprintf(os.Stdout, "  - %s", c.Name)
	if line != "" {
		fmt.Fprintf(os.Stdout, " (%s)", line)
	}
	fmt.Fprintln(os.Stdout)
}

func formatTime(t narrative.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d (%s)", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Weekday())
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}

func printJSON(value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))
	return nil
}
