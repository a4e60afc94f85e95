package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// orderedObject is a JSON object whose keys encode in a fixed order.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func newOrderedObject() *orderedObject {
	return &orderedObject{values: make(map[string]any)}
}

func (o *orderedObject) set(k string, v any) {
	if _, exists := o.values[k]; !exists {
		o.keys = append(o.keys, k)
	}
	o.values[k] = v
}

func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON serializes c as an object with keys schema_version, metadata, then
// every schema section in schema order, then the card's extra top-level keys
// sorted. Fields within a section follow schema order, unknown fields sorted
// after them. The output loads back through card.FromValue unchanged.
func JSON(c *card.Card, s *schema.Schema) ([]byte, error) {
	root := newOrderedObject()

	version := c.SchemaVersion
	if version == "" {
		version = s.Version()
	}
	root.set(card.KeySchemaVersion, version)

	md := newOrderedObject()
	all := c.Metadata.MetadataMap()
	for _, k := range c.Metadata.MetadataKeys() {
		md.set(k, all[k])
	}
	root.set(card.KeyMetadata, md)

	for _, sec := range s.ListSections() {
		obj := newOrderedObject()
		fields := c.Sections[sec.ID]
		for _, k := range c.SectionKeys(s, sec.ID) {
			obj.set(k, fields[k])
		}
		root.set(sec.ID, obj)
	}

	for _, k := range c.ExtraKeys() {
		root.set(k, c.Extra[k])
	}

	b, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return append(b, '\n'), nil
}
