package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:          "chronicle",
		Short:        "Event-sourced narrative state for long-running roleplay conversations",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "chronicle.yaml", "Project config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides logging.level)")
	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(chapterCmd())
	root.AddCommand(editCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
