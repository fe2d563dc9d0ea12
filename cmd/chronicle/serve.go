package main

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"chronicle/internal/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
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

	server := mcp.NewServer(schema, p.db, p.cfg.Conversation, p.cfg.Canonical, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
