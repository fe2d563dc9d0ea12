package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"chronicle/internal/chapter"
	"chronicle/internal/event"
	"chronicle/internal/store"
)

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Rewrite the event log for regenerated or discarded turns",
	}
	cmd.AddCommand(editDeleteTurnCmd())
	cmd.AddCommand(editRemoveVariantCmd())
	return cmd
}

func editDeleteTurnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-turn <turn> <variant>",
		Short: "Soft-delete every event extracted from one turn variant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseTurnRef(args[0], args[1])
			if err != nil {
				return err
			}
			return runEdit(func(work *store.Store) (string, error) {
				n := work.DeleteAtTurn(ref)
				removed := dropChapterSnapshotsAt(work, ref)
				return fmt.Sprintf("Deleted %d events at %s (%d chapter snapshots).", n, ref, removed), nil
			}, ref.TurnID)
		},
	}
}

func editRemoveVariantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-variant <turn> <variant>",
		Short: "Drop a turn variant and shift the later variants of that turn down by one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseTurnRef(args[0], args[1])
			if err != nil {
				return err
			}
			return runEdit(func(work *store.Store) (string, error) {
				n := work.DeleteAtTurn(ref)
				removed := dropChapterSnapshotsAt(work, ref)
				work.ReindexVariantsAfterDeletion(ref.TurnID, ref.VariantID)
				return fmt.Sprintf("Removed variant %s (%d events, %d chapter snapshots).", ref, n, removed), nil
			}, ref.TurnID)
		},
	}
}

// dropChapterSnapshotsAt removes the chapter snapshots frozen at ref, whose
// closing events DeleteAtTurn has just removed.
func dropChapterSnapshotsAt(work *store.Store, ref event.TurnRef) int {
	removed := 0
	for _, snap := range work.Snapshots() {
		if !snap.IsInitial() && snap.Source == ref && work.RemoveChapterSnapshot(snap.Chapter()) {
			removed++
		}
	}
	return removed
}

// runEdit applies change in an edit session, then resynchronises snapshots
// from turn onward and saves.
func runEdit(change func(work *store.Store) (string, error), turn int) error {
	ctx := context.Background()

	p, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	resolver, err := p.resolver(nil)
	if err != nil {
		return err
	}
	st, err := p.loadStore(ctx)
	if err != nil {
		return err
	}

	session := st.BeginEdit()
	summary, err := change(session.Work())
	if err != nil {
		session.Cancel()
		return err
	}
	if err := session.Commit(); err != nil {
		return err
	}

	manager := chapter.NewManager(st, resolver, chapter.Untitled, chapter.ConfigFrom(p.cfg))
	if _, err := manager.SyncInitial(turn); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	rebuilt, err := manager.RefreshSnapshots(turn)
	if err != nil {
		return err
	}

	if err := p.save(ctx, st); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, summary)
	if rebuilt > 0 {
		fmt.Fprintf(os.Stdout, "Rebuilt %d chapter snapshots.\n", rebuilt)
	}
	return nil
}

func parseTurnRef(turnText, variantText string) (event.TurnRef, error) {
	turn, err := strconv.Atoi(turnText)
	if err != nil || turn < 0 {
		return event.TurnRef{}, fmt.Errorf("invalid turn %q", turnText)
	}
	variant, err := strconv.Atoi(variantText)
	if err != nil || variant < 0 {
		return event.TurnRef{}, fmt.Errorf("invalid variant %q", variantText)
	}
	return event.Ref(turn, variant), nil
}
