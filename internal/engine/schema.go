package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResponseSchema is the JSON schema a structured model reply must satisfy.
// JSONSchema is kept as a raw string so property order survives the trip to
// the provider; the order doubles as an instruction to the model.
type ResponseSchema struct {
	Name        string
	Description string
	JSONSchema  string
}

// Property describes one field of an object schema.
type Property struct {
	Name        string
	Type        string // "string", "boolean", "integer", "number", "array"
	Description string
	Enum        []string
	ItemsType   string // element type when Type is "array"
	Nullable    bool
	Required    bool
}

// ObjectSchema is an ordered object schema that renders to JSON Schema text.
type ObjectSchema struct {
	Title       string
	Description string
	Properties  []Property
}

// JSON renders the schema keeping properties in declaration order.
func (o ObjectSchema) JSON() string {
	var buf bytes.Buffer
	buf.WriteString(`{"$schema":"http://json-schema.org/draft-07/schema#","type":"object"`)
	if o.Title != "" {
		buf.WriteString(`,"title":`)
		writeJSON(&buf, o.Title)
	}
	if o.Description != "" {
		buf.WriteString(`,"description":`)
		writeJSON(&buf, o.Description)
	}
	buf.WriteString(`,"properties":{`)
	var required []string
	for i, p := range o.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSON(&buf, p.Name)
		buf.WriteByte(':')
		p.writeTo(&buf)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	buf.WriteString(`}`)
	if len(required) > 0 {
		buf.WriteString(`,"required":`)
		writeJSON(&buf, required)
	}
	buf.WriteString(`}`)
	return buf.String()
}

// Schema wraps the rendered object schema as a named ResponseSchema.
func (o ObjectSchema) Schema(name string) ResponseSchema {
	return ResponseSchema{Name: name, Description: o.Description, JSONSchema: o.JSON()}
}

func (p Property) writeTo(buf *bytes.Buffer) {
	buf.WriteString(`{"type":`)
	if p.Nullable {
		writeJSON(buf, []string{p.Type, "null"})
	} else {
		writeJSON(buf, p.Type)
	}
	if p.Description != "" {
		buf.WriteString(`,"description":`)
		writeJSON(buf, p.Description)
	}
	if len(p.Enum) > 0 {
		buf.WriteString(`,"enum":`)
		enum := make([]any, 0, len(p.Enum)+1)
		for _, v := range p.Enum {
			enum = append(enum, v)
		}
		if p.Nullable {
			enum = append(enum, nil)
		}
		writeJSON(buf, enum)
	}
	if p.Type == "array" {
		itemType := p.ItemsType
		if itemType == "" {
			itemType = "string"
		}
		buf.WriteString(`,"items":{"type":`)
		writeJSON(buf, itemType)
		buf.WriteString(`}`)
	}
	buf.WriteString(`}`)
}

func writeJSON(buf *bytes.Buffer, v any) {
	data, _ := json.Marshal(v)
	buf.Write(data)
}

// ValidateResponse checks raw model output against schema and returns the
// decoded document. Any failure is a *ResponseValidationError.
func ValidateResponse(schema ResponseSchema, raw []byte) (map[string]any, error) {
	raw = StripCodeFence(raw)

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ResponseValidationError{
			Schema: schema.Name,
			Errors: []string{fmt.Sprintf("response is not a JSON object: %v", err)},
			Raw:    string(raw),
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema.JSONSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("schema %s: validation failed: %w", schema.Name, err)
	}

	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, &ResponseValidationError{
			Schema: schema.Name,
			Errors: msgs,
			Raw:    string(raw),
		}
	}

	return doc, nil
}

// StripCodeFence removes a surrounding ```json fence some models add even in
// JSON mode.
func StripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
