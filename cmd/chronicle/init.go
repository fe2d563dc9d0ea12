package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"chronicle/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var dsn string
	var sources string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new chronicle project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(cmd, projectName, dsn, sources)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://chronicle.db", "Database DSN (sqlite:// or postgres://)")
	cmd.Flags().StringVar(&sources, "sources", "./turns/", "Directory holding turn files")
	return cmd
}

func runInit(cmd *cobra.Command, projectName, dsn, sources string) error {
	schemaPath := schemaPathFor(configPath)
	for _, path := range []string{configPath, schemaPath} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	configContents := fmt.Sprintf(`project: %s
version: 1
conversation: %s

database:
  dsn: %s

sources:
  - %s

chapters:
  time_jump_minutes: %d
  location_change: true

logging:
  level: info
`, projectName, config.DefaultConversation, dsn, sources, config.DefaultTimeJumpMinutes)

	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, []byte(config.DefaultSchema), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}
	if err := os.MkdirAll(sources, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", sources, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialised %s in %s\n", projectName, filepath.Dir(configPath))
	return nil
}

// schemaPathFor places schema.yaml next to the project config.
func schemaPathFor(configFile string) string {
	return filepath.Join(filepath.Dir(configFile), "schema.yaml")
}

func loadSchema() (*config.Schema, error) {
	return config.LoadSchema(schemaPathFor(configPath))
}
