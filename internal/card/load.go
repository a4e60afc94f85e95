package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// Reserved top-level keys that are not sections.
const (
	KeySchemaVersion = "schema_version"
	KeyMetadata      = "metadata"
)

// Load reads and normalizes the YAML card at path.
func Load(path string, s *schema.Schema) (*Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("card: read %s: %w", path, err)
	}
	return Parse(data, s)
}

// Parse decodes a YAML document and normalizes it against s. An empty
// document yields a fresh card.
func Parse(data []byte, s *schema.Schema) (*Card, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedInputError{Path: RootPath, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return FromValue(raw, s)
}

// FromValue normalizes an already-decoded document (as produced by yaml or
// json decoding into any). nil yields a fresh card.
func FromValue(raw any, s *schema.Schema) (*Card, error) {
	c := New(s)
	if raw == nil {
		return c, nil
	}

	doc := normalize(raw)
	if err := checkShape(doc, s); err != nil {
		return nil, err
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &MalformedInputError{Path: RootPath, Reason: "expected a mapping"}
	}

	for key, v := range m {
		switch {
		case key == KeySchemaVersion:
			declared := scalarString(v)
			if err := s.Accepts(declared); err != nil {
				return nil, &MalformedInputError{Path: KeySchemaVersion, Reason: err.Error()}
			}
			if declared != "" {
				c.SchemaVersion = declared
			}
		case key == KeyMetadata:
			md, err := parseMetadata(v)
			if err != nil {
				return nil, err
			}
			c.Metadata = md
		case s.HasSection(key):
			sec, _ := s.FindSection(key)
			fields, err := parseSection(sec, v)
			if err != nil {
				return nil, err
			}
			c.Sections[key] = fields
		default:
			c.Extra[key] = v
		}
	}
	return c, nil
}

func parseSection(sec schema.Section, v any) (Fields, error) {
	if v == nil {
		return Fields{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &MalformedInputError{Path: sec.ID, Reason: fmt.Sprintf("expected a mapping, got %s", kindOf(v))}
	}
	fields := make(Fields, len(m))
	for k, val := range m {
		if f, ok := sec.FindField(k); ok {
			val = coerce(f, val)
		}
		fields[k] = val
	}
	return fields, nil
}

// coerce adapts shorthand values to the field's declared shape: a single
// scalar for a list, a single row for a table.
func coerce(f schema.Field, v any) any {
	switch f.Type {
	case schema.TypeList:
		switch t := v.(type) {
		case nil, []any, map[string]any:
			return v
		case string:
			if strings.TrimSpace(t) == "" {
				return v
			}
			return []any{t}
		default:
			return []any{v}
		}
	case schema.TypeTable:
		if row, ok := v.(map[string]any); ok {
			return []any{row}
		}
	}
	return v
}

func parseMetadata(v any) (Metadata, error) {
	var md Metadata
	if v == nil {
		return md, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return md, &MalformedInputError{Path: KeyMetadata, Reason: fmt.Sprintf("expected a mapping, got %s", kindOf(v))}
	}
	for k, val := range m {
		switch k {
		case "model_name":
			md.ModelName = scalarString(val)
		case "version":
			md.Version = scalarString(val)
		case "generated_at":
			md.GeneratedAt = scalarString(val)
		case "authors":
			md.Authors = stringList(val)
		default:
			if md.Other == nil {
				md.Other = make(map[string]any)
			}
			md.Other[k] = val
		}
	}
	return md, nil
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := strings.TrimSpace(scalarString(e)); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case nil:
		return nil
	default:
		if s := strings.TrimSpace(scalarString(t)); s != "" {
			return []string{s}
		}
		return nil
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// normalize converts a decoded YAML tree into JSON-compatible values:
// string map keys, json.Number for numbers, and strings for timestamps.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return strconv.FormatFloat(t, 'g', -1, 64)
		}
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	case nil, string, bool, json.Number:
		return t
	default:
		return fmt.Sprint(t)
	}
}

var (
	shapeMu    sync.Mutex
	shapeCache = map[*schema.Schema]*jsonschema.Schema{}
)

// shapeValidator compiles, once per schema, the JSON Schema that constrains
// the mapping shape of a card document.
func shapeValidator(s *schema.Schema) (*jsonschema.Schema, error) {
	shapeMu.Lock()
	defer shapeMu.Unlock()
	if v, ok := shapeCache[s]; ok {
		return v, nil
	}
	doc, err := s.JSONSchema(schema.ShapeOnly)
	if err != nil {
		return nil, err
	}
	id := s.SchemaID(schema.ShapeOnly)
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(id, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("card: shape schema load: %w", err)
	}
	compiled, err := c.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("card: shape schema compile: %w", err)
	}
	shapeCache[s] = compiled
	return compiled, nil
}

func checkShape(doc any, s *schema.Schema) error {
	v, err := shapeValidator(s)
	if err != nil {
		return err
	}
	err = v.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("card: shape check: %w", err)
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &MalformedInputError{Path: pointerPath(ve.InstanceLocation), Reason: ve.Message}
}

// pointerPath turns a JSON pointer ("/governance/policies") into a dotted
// key path ("governance.policies").
func pointerPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return RootPath
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}
