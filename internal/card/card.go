// Package card holds the in-memory model card and the loader that turns a
// YAML document into one. Every schema section is always present in a loaded
// card, so downstream code checks value presence and never key existence.
package card

import (
	"encoding/json"
	"sort"

	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// Metadata is the top-level identity block of a card.
type Metadata struct {
	ModelName   string
	Version     string
	Authors     []string
	GeneratedAt string
	// Other keeps unrecognized metadata keys so they survive a round trip.
	Other map[string]any
}

// Fields maps field identifiers to values. Values are JSON-compatible:
// string, json.Number, bool, nil, []any or map[string]any.
type Fields map[string]any

// Card is a model card keyed by schema section identifier.
type Card struct {
	SchemaVersion string
	Metadata      Metadata
	Sections      map[string]Fields
	// Extra holds unknown top-level keys verbatim.
	Extra map[string]any
}

// New returns an empty card with every section of s present.
func New(s *schema.Schema) *Card {
	c := &Card{
		SchemaVersion: s.Version(),
		Sections:      make(map[string]Fields),
		Extra:         make(map[string]any),
	}
	for _, sec := range s.ListSections() {
		c.Sections[sec.ID] = Fields{}
	}
	return c
}

// Get returns the value stored at section.field.
func (c *Card) Get(section, field string) (any, bool) {
	fields, ok := c.Sections[section]
	if !ok {
		return nil, false
	}
	v, ok := fields[field]
	return v, ok
}

// Set stores v at section.field, creating the section map when needed.
func (c *Card) Set(section, field string, v any) {
	if c.Sections == nil {
		c.Sections = make(map[string]Fields)
	}
	fields, ok := c.Sections[section]
	if !ok || fields == nil {
		fields = Fields{}
		c.Sections[section] = fields
	}
	fields[field] = v
}

// Clone returns a deep copy of c.
func (c *Card) Clone() *Card {
	out := &Card{
		SchemaVersion: c.SchemaVersion,
		Metadata: Metadata{
			ModelName:   c.Metadata.ModelName,
			Version:     c.Metadata.Version,
			Authors:     append([]string(nil), c.Metadata.Authors...),
			GeneratedAt: c.Metadata.GeneratedAt,
		},
		Sections: make(map[string]Fields, len(c.Sections)),
		Extra:    make(map[string]any, len(c.Extra)),
	}
	if c.Metadata.Other != nil {
		out.Metadata.Other = cloneValue(c.Metadata.Other).(map[string]any)
	}
	for id, fields := range c.Sections {
		cp := make(Fields, len(fields))
		for k, v := range fields {
			cp[k] = cloneValue(v)
		}
		out.Sections[id] = cp
	}
	for k, v := range c.Extra {
		out.Extra[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// MetadataMap returns the metadata block as a generic map, omitting empty
// values. Used by the serializers and the digest.
func (m Metadata) MetadataMap() map[string]any {
	out := make(map[string]any, 4+len(m.Other))
	for k, v := range m.Other {
		out[k] = v
	}
	if m.ModelName != "" {
		out["model_name"] = m.ModelName
	}
	if m.Version != "" {
		out["version"] = m.Version
	}
	if len(m.Authors) > 0 {
		authors := make([]any, len(m.Authors))
		for i, a := range m.Authors {
			authors[i] = a
		}
		out["authors"] = authors
	}
	if m.GeneratedAt != "" {
		out["generated_at"] = m.GeneratedAt
	}
	return out
}

// metadataKeys is the display order of known metadata keys.
var metadataKeys = []string{"model_name", "version", "authors", "generated_at"}

// MetadataKeys returns the metadata keys present in m: known keys first in
// a fixed order, then unknown keys sorted.
func (m Metadata) MetadataKeys() []string {
	all := m.MetadataMap()
	keys := make([]string, 0, len(all))
	known := make(map[string]bool, len(metadataKeys))
	for _, k := range metadataKeys {
		known[k] = true
		if _, ok := all[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range all {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// SectionKeys returns the keys of section id: schema fields first in schema
// order, then unknown fields sorted.
func (c *Card) SectionKeys(s *schema.Schema, id string) []string {
	fields := c.Sections[id]
	var keys []string
	known := map[string]bool{}
	if sec, err := s.FindSection(id); err == nil {
		for _, f := range sec.Fields {
			known[f.ID] = true
			if _, ok := fields[f.ID]; ok {
				keys = append(keys, f.ID)
			}
		}
	}
	var rest []string
	for k := range fields {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// ExtraKeys returns the unknown top-level keys sorted.
func (c *Card) ExtraKeys() []string {
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsMap returns the card as a generic document, the inverse of FromValue.
func (c *Card) AsMap() map[string]any {
	out := make(map[string]any, len(c.Sections)+len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.SchemaVersion != "" {
		out["schema_version"] = c.SchemaVersion
	}
	if md := c.Metadata.MetadataMap(); len(md) > 0 {
		out["metadata"] = md
	}
	for id, fields := range c.Sections {
		m := make(map[string]any, len(fields))
		for k, v := range fields {
			m[k] = v
		}
		out[id] = m
	}
	return out
}

// MarshalJSON encodes the card as its generic document. Key order is the
// encoding/json map order (sorted); use the render package for schema order.
func (c *Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.AsMap())
}
