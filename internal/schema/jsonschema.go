package schema

import (
	"encoding/json"
	"fmt"
)

// JSONSchemaMode selects how much of the card shape the generated JSON
// Schema constrains.
type JSONSchemaMode int

const (
	// ShapeOnly constrains only mapping shapes: the document, metadata and
	// every section must be objects (or null). The loader validates with it.
	ShapeOnly JSONSchemaMode = iota
	// Document adds per-field types, required lists and descriptions. It is
	// the schema published for editors and external tooling.
	Document
)

// SchemaID returns the $id of the JSON Schema generated for mode.
func (s *Schema) SchemaID(mode JSONSchemaMode) string {
	kind := "card"
	if mode == ShapeOnly {
		kind = "shape"
	}
	return fmt.Sprintf("https://modelcard.local/schema/%s/%s.json", s.Version(), kind)
}

// JSONSchema renders the schema as a JSON Schema (draft 2020-12) document.
func (s *Schema) JSONSchema(mode JSONSchemaMode) ([]byte, error) {
	scalar := []string{"string", "number", "boolean", "null"}

	metadata := map[string]any{
		"type": []string{"object", "null"},
		"properties": map[string]any{
			"model_name":   map[string]any{"type": scalar},
			"version":      map[string]any{"type": scalar},
			"generated_at": map[string]any{"type": scalar},
			"authors": map[string]any{
				"type":  []string{"array", "string", "null"},
				"items": map[string]any{"type": scalar},
			},
		},
	}

	props := map[string]any{
		"schema_version": map[string]any{"type": []string{"string", "number"}},
		"metadata":       metadata,
	}
	var requiredSections []string
	for _, sec := range s.sections {
		secSchema := map[string]any{
			"type": []string{"object", "null"},
		}
		if mode == Document {
			secSchema["type"] = "object"
			secSchema["title"] = sec.Title
			secSchema["description"] = fmt.Sprintf("NIST AI RMF %s. %s", sec.Category.Title(), sec.Description)
			fieldProps := make(map[string]any, len(sec.Fields))
			var required []string
			for _, f := range sec.Fields {
				fieldProps[f.ID] = fieldJSONSchema(f)
				if f.Required {
					required = append(required, f.ID)
				}
			}
			secSchema["properties"] = fieldProps
			if len(required) > 0 {
				secSchema["required"] = required
			}
			if sec.Required {
				requiredSections = append(requiredSections, sec.ID)
			}
		}
		props[sec.ID] = secSchema
	}

	doc := map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"$id":        s.SchemaID(mode),
		"title":      "NIST AI RMF Model Card",
		"type":       "object",
		"properties": props,
	}
	if mode == Document && len(requiredSections) > 0 {
		doc["required"] = requiredSections
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: json schema marshal: %w", err)
	}
	return b, nil
}

func fieldJSONSchema(f Field) map[string]any {
	out := map[string]any{
		"title":       f.Label,
		"description": f.Description,
	}
	switch f.Type {
	case TypeText:
		out["type"] = []string{"string", "number", "boolean"}
	case TypeDate:
		out["type"] = "string"
		out["format"] = "date"
	case TypeList:
		out["type"] = "array"
		out["items"] = map[string]any{"type": []string{"string", "number", "boolean"}}
	case TypeTable:
		row := map[string]any{"type": "object"}
		if len(f.Columns) > 0 {
			cols := make(map[string]any, len(f.Columns))
			for _, c := range f.Columns {
				cols[c] = map[string]any{"type": []string{"string", "number", "boolean", "null"}}
			}
			row["properties"] = cols
		}
		out["type"] = "array"
		out["items"] = row
	}
	return out
}
