package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chronicle/internal/chapter"
	"chronicle/internal/ingest"
)

var (
	ingestFull     bool
	ingestChapters bool
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Append turn files to the conversation's event log",
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	cmd.Flags().BoolVar(&ingestChapters, "chapters", false, "Detect chapter boundaries on each ingested turn")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	result, err := ingest.Run(ctx, p.cfg, p.db, ingest.Options{
		Full:     ingestFull,
		Chapters: ingestChapters,
		Resolver: resolver,
		Narrator: chapter.Untitled,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Files ingested:    %d\n", result.FilesIngested)
	fmt.Fprintf(os.Stdout, "  Files skipped:     %d\n", result.FilesSkipped)
	fmt.Fprintf(os.Stdout, "  Events appended:   %d\n", result.EventsAppended)
	fmt.Fprintf(os.Stdout, "  Events replaced:   %d\n", result.EventsDeleted)
	fmt.Fprintf(os.Stdout, "  Snapshots rebuilt: %d\n", result.SnapshotsRebuilt)
	if result.InitialBuilt {
		fmt.Fprintln(os.Stdout, "  Initial snapshot built.")
	}
	if ingestChapters {
		fmt.Fprintf(os.Stdout, "  Chapters closed:   %d\n", result.ChaptersClosed)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}
	return nil
}
