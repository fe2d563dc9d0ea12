package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"chronicle/internal/chapter"
)

func chapterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapter",
		Short: "Close, recalculate or invalidate chapters",
	}
	cmd.AddCommand(chapterActionCmd("close <turn>", "Close a chapter manually at a turn",
		func(ctx context.Context, m *chapter.Manager, turn int) (chapter.Result, error) {
			return m.CloseManually(ctx, turn)
		}))
	cmd.AddCommand(chapterActionCmd("recalc <index>", "Regenerate a chapter's description and snapshot",
		func(ctx context.Context, m *chapter.Manager, index int) (chapter.Result, error) {
			return m.Recalculate(ctx, index)
		}))
	cmd.AddCommand(chapterActionCmd("invalidate <index>", "Re-evaluate a chapter after its trigger turn's canonical variant changed",
		func(ctx context.Context, m *chapter.Manager, index int) (chapter.Result, error) {
			return m.Invalidate(ctx, index)
		}))
	return cmd
}

type chapterAction func(ctx context.Context, m *chapter.Manager, arg int) (chapter.Result, error)

func chapterActionCmd(use, short string, action chapterAction) *cobra.Command {
	var variantPairs []string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg, err := strconv.Atoi(args[0])
			if err != nil || arg < 0 {
				return fmt.Errorf("invalid argument %q: expected a non-negative integer", args[0])
			}
			return runChapterAction(action, arg, variantPairs)
		},
	}
	cmd.Flags().StringArrayVar(&variantPairs, "variant", nil, "Canonical variant as turn=variant (repeatable)")
	return cmd
}

func runChapterAction(action chapterAction, arg int, variantPairs []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close(context.Background())

	resolver, err := p.resolver(variantPairs)
	if err != nil {
		return err
	}
	st, err := p.loadStore(ctx)
	if err != nil {
		return err
	}

	manager := chapter.NewManager(st, resolver, chapter.Untitled, chapter.ConfigFrom(p.cfg))
	result, err := action(ctx, manager, arg)
	if err != nil {
		return err
	}

	switch result.Status {
	case chapter.StatusAborted:
		fmt.Fprintln(os.Stdout, "Aborted; nothing changed.")
		return nil
	case chapter.StatusNoBoundary:
		fmt.Fprintln(os.Stdout, "No chapter boundary found.")
		return nil
	case chapter.StatusMerged:
		fmt.Fprintf(os.Stdout, "Chapter %d no longer has a boundary and was merged forward.\n", result.Index)
	default:
		fmt.Fprintf(os.Stdout, "Chapter %d %s at turn %s.\n", result.Index, result.Reason, result.Trigger)
	}
	if result.DescriptionErr != nil {
		fmt.Fprintf(os.Stdout, "  Description kept: %v\n", result.DescriptionErr)
	}

	// saving is not cancellable once the store has changed
	return p.save(context.Background(), st)
}
