package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chronicle/internal/config"
	"chronicle/internal/event"
	"chronicle/internal/snapshot"
	"chronicle/internal/store"
)

type ProjectStateInput struct {
	Conversation string         `json:"conversation,omitempty" jsonschema:"conversation id, defaults to the project conversation"`
	Turn         int            `json:"turn" jsonschema:"turn to project state at"`
	Variants     map[string]int `json:"variants,omitempty" jsonschema:"canonical variant per turn id, overriding the project defaults"`
}

type ListEventsInput struct {
	Conversation   string `json:"conversation,omitempty" jsonschema:"conversation id"`
	FromTurn       int    `json:"from_turn,omitempty" jsonschema:"first turn to include"`
	ToTurn         *int   `json:"to_turn,omitempty" jsonschema:"last turn to include"`
	Kind           string `json:"kind,omitempty" jsonschema:"event kind filter such as character or chapter"`
	IncludeDeleted bool   `json:"include_deleted,omitempty" jsonschema:"include soft-deleted events"`
}

type ListChaptersInput struct {
	Conversation string         `json:"conversation,omitempty" jsonschema:"conversation id"`
	Variants     map[string]int `json:"variants,omitempty" jsonschema:"canonical variant per turn id"`
}

type SearchChaptersInput struct {
	Query        string `json:"query" jsonschema:"search terms"`
	Conversation string `json:"conversation,omitempty" jsonschema:"restrict to one conversation"`
}

type GetSchemaInput struct{}

type ProjectStateOutput struct {
	Conversation string         `json:"conversation"`
	Turn         int            `json:"turn"`
	Variant      int            `json:"variant"`
	State        map[string]any `json:"state"`
}

type EventOutput struct {
	ID        string         `json:"id"`
	Turn      int            `json:"turn"`
	Variant   int            `json:"variant"`
	Timestamp int64          `json:"timestamp"`
	Kind      string         `json:"kind"`
	Subkind   string         `json:"subkind"`
	Deleted   bool           `json:"deleted"`
	Data      map[string]any `json:"data"`
}

type ListEventsOutput struct {
	Events []EventOutput `json:"events"`
}

type ChapterOutput struct {
	Index       int    `json:"index"`
	Reason      string `json:"reason"`
	Turn        int    `json:"turn"`
	Variant     int    `json:"variant"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	HasSnapshot bool   `json:"has_snapshot"`
}

type ListChaptersOutput struct {
	Chapters []ChapterOutput `json:"chapters"`
}

type ChapterHitOutput struct {
	Conversation string  `json:"conversation"`
	Index        int     `json:"index"`
	Turn         int     `json:"turn"`
	Variant      int     `json:"variant"`
	Title        string  `json:"title"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

type SearchChaptersOutput struct {
	Results []ChapterHitOutput `json:"results"`
}

type VocabularyOutput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Values      []string `json:"values"`
}

type SchemaOutput struct {
	Version      int                `json:"version"`
	Vocabularies []VocabularyOutput `json:"vocabularies"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "project_state",
		Description: "Project the narrative state at a turn under the canonical variants",
	}, s.handleProjectState)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_events",
		Description: "List logged events in turn order",
	}, s.handleListEvents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_chapters",
		Description: "List closed chapters with their titles and summaries",
	}, s.handleListChapters)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_chapters",
		Description: "Full-text search over chapter titles and summaries",
	}, s.handleSearchChapters)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_schema",
		Description: "Return the vocabularies used to validate event values",
	}, s.handleGetSchema)
}

func (s *Server) handleProjectState(ctx context.Context, req *sdk.CallToolRequest, input ProjectStateInput) (*sdk.CallToolResult, ProjectStateOutput, error) {
	ctx, span := s.tracer.Start(ctx, "mcp.project_state", trace.WithAttributes(attribute.Int("turn", input.Turn)))
	defer span.End()

	conversation := s.conversationOr(input.Conversation)
	resolver, err := s.resolver(input.Variants)
	if err != nil {
		return nil, ProjectStateOutput{}, fail(span, err)
	}
	st, err := s.load(ctx, conversation)
	if err != nil {
		return nil, ProjectStateOutput{}, fail(span, err)
	}

	projection, err := st.ProjectStateAtMessage(input.Turn, resolver)
	if err != nil {
		return nil, ProjectStateOutput{}, fail(span, err)
	}
	frozen := snapshot.FromProjection(projection, snapshot.Meta{Source: projection.Source})
	state, err := toMap(frozen)
	if err != nil {
		return nil, ProjectStateOutput{}, fail(span, err)
	}
	// snapshot bookkeeping is meaningless for an ad-hoc projection
	delete(state, "type")
	delete(state, "createdAt")

	return nil, ProjectStateOutput{
		Conversation: conversation,
		Turn:         input.Turn,
		Variant:      projection.Source.VariantID,
		State:        state,
	}, nil
}

func (s *Server) handleListEvents(ctx context.Context, req *sdk.CallToolRequest, input ListEventsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	ctx, span := s.tracer.Start(ctx, "mcp.list_events")
	defer span.End()

	st, err := s.load(ctx, s.conversationOr(input.Conversation))
	if err != nil {
		return nil, ListEventsOutput{}, fail(span, err)
	}

	events := st.Active()
	if input.IncludeDeleted {
		events = st.Events()
	}

	output := make([]EventOutput, 0, len(events))
	for _, e := range events {
		if e.Source.TurnID < input.FromTurn {
			continue
		}
		if input.ToTurn != nil && e.Source.TurnID > *input.ToTurn {
			break
		}
		if input.Kind != "" && string(e.Kind()) != input.Kind {
			continue
		}
		out, err := eventOutput(e)
		if err != nil {
			return nil, ListEventsOutput{}, fail(span, err)
		}
		output = append(output, out)
	}
	span.SetAttributes(attribute.Int("events", len(output)))
	return nil, ListEventsOutput{Events: output}, nil
}

func (s *Server) handleListChapters(ctx context.Context, req *sdk.CallToolRequest, input ListChaptersInput) (*sdk.CallToolResult, ListChaptersOutput, error) {
	ctx, span := s.tracer.Start(ctx, "mcp.list_chapters")
	defer span.End()

	resolver, err := s.resolver(input.Variants)
	if err != nil {
		return nil, ListChaptersOutput{}, fail(span, err)
	}
	st, err := s.load(ctx, s.conversationOr(input.Conversation))
	if err != nil {
		return nil, ListChaptersOutput{}, fail(span, err)
	}

	chapters := st.Chapters(resolver)
	output := make([]ChapterOutput, 0, len(chapters))
	for _, ch := range chapters {
		output = append(output, ChapterOutput{
			Index:       ch.Index,
			Reason:      string(ch.Reason),
			Turn:        ch.Trigger.TurnID,
			Variant:     ch.Trigger.VariantID,
			Title:       ch.Title,
			Summary:     ch.Summary,
			HasSnapshot: ch.HasSnapshot,
		})
	}
	return nil, ListChaptersOutput{Chapters: output}, nil
}

func (s *Server) handleSearchChapters(ctx context.Context, req *sdk.CallToolRequest, input SearchChaptersInput) (*sdk.CallToolResult, SearchChaptersOutput, error) {
	ctx, span := s.tracer.Start(ctx, "mcp.search_chapters")
	defer span.End()

	if input.Query == "" {
		return nil, SearchChaptersOutput{}, fail(span, fmt.Errorf("query is required"))
	}
	hits, err := s.db.SearchChapters(ctx, input.Conversation, input.Query)
	if err != nil {
		return nil, SearchChaptersOutput{}, fail(span, err)
	}

	output := make([]ChapterHitOutput, 0, len(hits))
	for _, hit := range hits {
		output = append(output, ChapterHitOutput{
			Conversation: hit.Conversation,
			Index:        hit.Index,
			Turn:         hit.Trigger.TurnID,
			Variant:      hit.Trigger.VariantID,
			Title:        hit.Title,
			Snippet:      hit.Snippet,
			Score:        hit.Score,
		})
	}
	return nil, SearchChaptersOutput{Results: output}, nil
}

func (s *Server) handleGetSchema(ctx context.Context, req *sdk.CallToolRequest, input GetSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	return nil, schemaOutputFromConfig(s.schema), nil
}

func (s *Server) conversationOr(conversation string) string {
	if conversation != "" {
		return conversation
	}
	return s.conversation
}

func (s *Server) load(ctx context.Context, conversation string) (*store.Store, error) {
	doc, err := s.db.Load(ctx, conversation)
	if err != nil {
		return nil, err
	}
	return store.FromDocument(doc)
}

// resolver layers per-call variant choices over the project defaults.
func (s *Server) resolver(overrides map[string]int) (store.Resolver, error) {
	fixed := store.FixedResolver{}
	maps.Copy(fixed, s.canonical)
	for key, variant := range overrides {
		turn, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("variants key %q is not a turn id", key)
		}
		if variant < 0 {
			return nil, fmt.Errorf("variant for turn %d must not be negative", turn)
		}
		fixed[turn] = variant
	}
	return fixed, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func eventOutput(e event.Event) (EventOutput, error) {
	data, err := toMap(e)
	if err != nil {
		return EventOutput{}, fmt.Errorf("encoding event %s: %w", e.ID, err)
	}
	for _, field := range []string{"id", "source", "timestamp", "kind", "subkind", "deleted"} {
		delete(data, field)
	}
	return EventOutput{
		ID:        e.ID,
		Turn:      e.Source.TurnID,
		Variant:   e.Source.VariantID,
		Timestamp: e.Timestamp,
		Kind:      e.Kind().String(),
		Subkind:   e.Subkind().String(),
		Deleted:   e.Deleted,
		Data:      data,
	}, nil
}

func toMap(value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func schemaOutputFromConfig(schema *config.Schema) SchemaOutput {
	if schema == nil {
		return SchemaOutput{Vocabularies: []VocabularyOutput{}}
	}

	out := SchemaOutput{
		Version:      schema.Version,
		Vocabularies: make([]VocabularyOutput, 0, len(schema.Vocabularies)),
	}
	for _, vocab := range schema.Vocabularies {
		out.Vocabularies = append(out.Vocabularies, VocabularyOutput{
			Name:        vocab.Name,
			Description: vocab.Description,
			Values:      append([]string{}, vocab.Values...),
		})
	}
	return out
}
