package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary names checked by validation.
const (
	VocabRelationshipStatus = "relationship_status"
	VocabTensionLevel       = "tension_level"
	VocabTensionDirection   = "tension_direction"
	VocabTensionType        = "tension_type"
	VocabChapterReason      = "chapter_reason"
)

// Schema lists the closed vocabularies that extracted events are expected to
// draw from.
type Schema struct {
	Version      int          `yaml:"version"`
	Vocabularies []Vocabulary `yaml:"vocabularies"`

	index map[string]*Vocabulary
}

type Vocabulary struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Values      []string `yaml:"values"`
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return ParseSchema(data)
}

func ParseSchema(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := validateSchema(&schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	schema.index = make(map[string]*Vocabulary)
	for i := range schema.Vocabularies {
		vocab := &schema.Vocabularies[i]
		schema.index[strings.ToLower(vocab.Name)] = vocab
	}

	return &schema, nil
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}
	if len(s.Vocabularies) == 0 {
		return fmt.Errorf("at least one vocabulary is required")
	}

	names := make(map[string]struct{})
	for i, vocab := range s.Vocabularies {
		if strings.TrimSpace(vocab.Name) == "" {
			return fmt.Errorf("vocabulary %d name is required", i)
		}
		key := strings.ToLower(vocab.Name)
		if _, exists := names[key]; exists {
			return fmt.Errorf("duplicate vocabulary name: %s", vocab.Name)
		}
		names[key] = struct{}{}
		if len(vocab.Values) == 0 {
			return fmt.Errorf("vocabulary %s has no values", vocab.Name)
		}
	}

	return nil
}

func (s *Schema) Vocabulary(name string) (*Vocabulary, bool) {
	if s == nil {
		return nil, false
	}
	vocab, ok := s.index[strings.ToLower(name)]
	return vocab, ok
}

// Allows reports whether value belongs to the named vocabulary. Vocabularies
// missing from the schema allow anything, and so does the empty value.
func (s *Schema) Allows(name, value string) bool {
	vocab, ok := s.Vocabulary(name)
	if !ok || value == "" {
		return true
	}
	return slices.ContainsFunc(vocab.Values, func(v string) bool {
		return strings.EqualFold(v, value)
	})
}

// DefaultSchema is written by `chronicle init`.
const DefaultSchema = `version: 1
vocabularies:
  - name: relationship_status
    values: [strangers, acquaintances, friendly, close, intimate, strained, hostile, complicated]
  - name: tension_level
    values: [relaxed, low, moderate, high, extreme]
  - name: tension_direction
    values: [escalating, stable, decreasing]
  - name: tension_type
    values: [conversation, confrontation, romantic, suspense, vulnerable, celebratory, intimate, conflict]
  - name: chapter_reason
    values: [location_change, time_jump, both, manual]
`
