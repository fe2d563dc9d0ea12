package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"chronicle/internal/validate"
)

func validateCmd() *cobra.Command {
	var variantPairs []string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against the event log and snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(variantPairs)
		},
	}
	cmd.Flags().StringArrayVar(&variantPairs, "variant", nil, "Canonical variant as turn=variant (repeatable)")
	return cmd
}

func runValidate(variantPairs []string) error {
	ctx := context.Background()

	p, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	schema, err := loadSchema()
	if err != nil {
		return err
	}
	resolver, err := p.resolver(variantPairs)
	if err != nil {
		return err
	}
	st, err := p.loadStore(ctx)
	if err != nil {
		return err
	}

	report, err := validate.Run(ctx, schema, st, resolver)
	if err != nil {
		return err
	}

	errs, warns := splitIssues(report.Issues)
	if len(errs) == 0 && len(warns) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}
	printSection(os.Stdout, "Errors", errs)
	if len(errs) > 0 && len(warns) > 0 {
		fmt.Fprintln(os.Stdout)
	}
	printSection(os.Stdout, "Warnings", warns)

	if report.HasErrors() {
		return fmt.Errorf("validation found %d errors", len(errs))
	}
	return nil
}

func splitIssues(issues []validate.Issue) (errs, warns []validate.Issue) {
	for _, issue := range issues {
		if issue.Severity == validate.SeverityError {
			errs = append(errs, issue)
		} else {
			warns = append(warns, issue)
		}
	}
	return errs, warns
}

func printSection(out io.Writer, title string, issues []validate.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", title, len(issues))
	printIssues(out, issues)
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := "store"
		if issue.Turn != "" {
			location = "turn " + issue.Turn
		}
		if issue.EventID != "" {
			location = fmt.Sprintf("%s (event %s)", location, issue.EventID)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
