package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"
)

// FieldType is the JSON type of a response field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
)

// SchemaField describes one property of a structured model response.
type SchemaField struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
}

// ResponseSchema describes the JSON object a model must return.
// Field order is significant and is sent to the model as property ordering.
type ResponseSchema struct {
	Name    string
	Version int
	Fields  []SchemaField

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

var classificationSchema = &ResponseSchema{
	Name:    "classification",
	Version: 1,
	Fields: []SchemaField{
		{Name: "category", Type: FieldString, Required: true},
		{Name: "reason", Type: FieldString, Required: true},
	},
}

var impactSchema = &ResponseSchema{
	Name:    "impact",
	Version: 1,
	Fields: []SchemaField{
		{Name: "co2Saved", Type: FieldNumber, Description: "Estimated CO2 saved in kg", Required: true},
		{Name: "impactStatement", Type: FieldString, Description: "A catchy one-sentence impact statement", Required: true},
	},
}

// ID returns a stable identifier such as "impact/v1".
func (s *ResponseSchema) ID() string {
	return fmt.Sprintf("%s/v%d", s.Name, s.Version)
}

func (s *ResponseSchema) required() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// GenaiSchema converts the descriptor to a Gemini response schema.
func (s *ResponseSchema) GenaiSchema() *genai.Schema {
	properties := make(map[string]*genai.Schema, len(s.Fields))
	ordering := make([]string, 0, len(s.Fields))

	for _, f := range s.Fields {
		prop := &genai.Schema{Description: f.Description}
		switch f.Type {
		case FieldNumber:
			prop.Type = genai.TypeNumber
		default:
			prop.Type = genai.TypeString
		}
		properties[f.Name] = prop
		ordering = append(ordering, f.Name)
	}

	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       properties,
		Required:         s.required(),
		PropertyOrdering: ordering,
	}
}

// JSONSchema renders the descriptor as a JSON Schema document.
func (s *ResponseSchema) JSONSchema() string {
	properties := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{"type": string(f.Type)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		properties[f.Name] = prop
	}

	doc := map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": properties,
	}
	if req := s.required(); len(req) > 0 {
		doc["required"] = req
	}

	out, _ := json.Marshal(doc)
	return string(out)
}

func (s *ResponseSchema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		url := "https://upcycle-connect.local/schemas/" + s.Name + "-v" + fmt.Sprint(s.Version) + ".json"
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(url, strings.NewReader(s.JSONSchema())); err != nil {
			s.err = fmt.Errorf("failed to add schema %s: %w", s.ID(), err)
			return
		}
		s.compiled, s.err = c.Compile(url)
	})
	return s.compiled, s.err
}

// Validate checks a decoded JSON value against the schema.
// The value should be decoded with json.Decoder.UseNumber.
func (s *ResponseSchema) Validate(v any) error {
	sch, err := s.compile()
	if err != nil {
		return err
	}
	return sch.Validate(v)
}

// decodeResponse strictly parses model output into out. Surrounding
// whitespace is trimmed; anything else that is not a single JSON document
// matching schema is an error.
func decodeResponse(text string, schema *ResponseSchema, out any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &CallError{Kind: KindEmpty, Err: fmt.Errorf("model returned empty response")}
	}

	if !json.Valid([]byte(text)) {
		return &CallError{Kind: KindMalformed, Err: fmt.Errorf("response is not valid JSON: %q", text)}
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return &CallError{Kind: KindMalformed, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if err := schema.Validate(raw); err != nil {
		return &CallError{Kind: KindSchema, Err: fmt.Errorf("response does not match %s: %w", schema.ID(), err)}
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &CallError{Kind: KindMalformed, Err: fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, text)}
	}

	return nil
}
