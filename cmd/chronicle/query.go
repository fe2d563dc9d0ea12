package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect the conversation from the CLI",
	}
	cmd.AddCommand(queryStateCmd())
	cmd.AddCommand(queryEventsCmd())
	cmd.AddCommand(queryChaptersCmd())
	cmd.AddCommand(queryCharacterCmd())
	cmd.AddCommand(queryRelationsCmd())
	cmd.AddCommand(querySearchCmd())
	cmd.AddCommand(querySQLCmd())
	return cmd
}
