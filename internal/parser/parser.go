// Package parser reads turn files: markdown messages whose YAML frontmatter
// carries the turn reference and the events extracted from the message.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"chronicle/internal/event"
)

type Document struct {
	Frontmatter map[string]any
	Turn        event.TurnRef
	Speaker     string
	Events      []map[string]any
	Body        string
	SourceFile  string
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTurn   = errors.New("frontmatter missing required 'turn' field")
	ErrInvalidEvent  = errors.New("invalid event in frontmatter")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := string(rest[end+len("---\n"):])

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	turn, ok := intField(frontmatter, "turn")
	if !ok || turn < 0 {
		return nil, ErrMissingTurn
	}
	variant := 0
	if _, present := frontmatter["variant"]; present {
		variant, ok = intField(frontmatter, "variant")
		if !ok || variant < 0 {
			return nil, fmt.Errorf("%w: variant must be a non-negative integer", ErrInvalidEvent)
		}
	}

	events, err := parseEvents(frontmatter["events"])
	if err != nil {
		return nil, err
	}

	speaker, _ := frontmatter["speaker"].(string)

	return &Document{
		Frontmatter: frontmatter,
		Turn:        event.Ref(turn, variant),
		Speaker:     speaker,
		Events:      events,
		Body:        strings.TrimLeft(body, "\n"),
	}, nil
}

// Decode turns the raw frontmatter events into store events for the
// document's turn. Events without a timestamp are stamped base, base+1, ...
// in file order; events without an id get a fresh one.
func (d *Document) Decode(base int64) ([]event.Event, error) {
	out := make([]event.Event, 0, len(d.Events))
	for i, raw := range d.Events {
		fields := make(map[string]any, len(raw)+3)
		for k, v := range raw {
			fields[k] = v
		}
		fields["source"] = d.Turn
		if _, ok := fields["timestamp"]; !ok {
			fields["timestamp"] = base + int64(i)
		}
		if _, ok := fields["id"]; !ok {
			fields["id"] = uuid.NewString()
		}

		data, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrInvalidEvent, i, err)
		}
		var evt event.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrInvalidEvent, i, err)
		}
		out = append(out, evt)
	}
	return out, nil
}

func parseEvents(value any) ([]map[string]any, error) {
	if value == nil {
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: events must be a list", ErrInvalidEvent)
	}
	events := make([]map[string]any, 0, len(list))
	for i, item := range list {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: event %d must be a mapping", ErrInvalidEvent, i)
		}
		kind, _ := fields["kind"].(string)
		if strings.TrimSpace(kind) == "" {
			return nil, fmt.Errorf("%w: event %d has no kind", ErrInvalidEvent, i)
		}
		events = append(events, fields)
	}
	return events, nil
}

func intField(frontmatter map[string]any, name string) (int, bool) {
	switch v := frontmatter[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}
