// Package mcp exposes read-only narrative state over the Model Context
// Protocol.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"

	"chronicle/internal/config"
	"chronicle/internal/store"
	"chronicle/internal/telemetry"
)

// Reader is the part of store.Backend the tools read from.
type Reader interface {
	Load(ctx context.Context, conversation string) (store.Document, error)
	SearchChapters(ctx context.Context, conversation, query string) ([]store.ChapterHit, error)
}

type Server struct {
	schema       *config.Schema
	db           Reader
	conversation string
	canonical    map[int]int
	tracer       trace.Tracer
	mcp          *sdk.Server
}

// NewServer registers the tools. conversation is used when a call names none,
// and canonical picks variants for turns the call does not override.
func NewServer(schema *config.Schema, db Reader, conversation string, canonical map[int]int, version string) *Server {
	s := &Server{
		schema:       schema,
		db:           db,
		conversation: conversation,
		canonical:    canonical,
		tracer:       telemetry.Tracer(),
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "chronicle",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
