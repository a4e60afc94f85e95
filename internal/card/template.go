package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KoryJCampbell/modelcard/internal/schema"
)

const templateHeader = `NIST AI RMF model card.
Fill in every field marked "required"; run "modelcard validate" to check coverage.`

// Template renders c as YAML in schema order. Every schema field is emitted,
// empty fields included, and each section carries a comment naming its NIST
// AI RMF category, so the output doubles as a starter file.
func Template(c *Card, s *schema.Schema) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	version := c.SchemaVersion
	if version == "" {
		version = s.Version()
	}
	key := keyNode(KeySchemaVersion)
	key.HeadComment = comment(templateHeader)
	root.Content = append(root.Content, key, strNode(version))

	md, err := metadataNode(c.Metadata)
	if err != nil {
		return nil, err
	}
	root.Content = append(root.Content, keyNode(KeyMetadata), md)

	for _, sec := range s.ListSections() {
		key := keyNode(sec.ID)
		optional := ""
		if !sec.Required {
			optional = ", optional section"
		}
		key.HeadComment = comment(fmt.Sprintf("%s (NIST AI RMF: %s%s)\n%s",
			sec.Title, sec.Category.Title(), optional, sec.Description))

		body := &yaml.Node{Kind: yaml.MappingNode}
		fields := c.Sections[sec.ID]
		for _, f := range sec.Fields {
			fk := keyNode(f.ID)
			v, ok := fields[f.ID]
			var vn *yaml.Node
			if ok && v != nil {
				if vn, err = valueNode(v); err != nil {
					return nil, fmt.Errorf("card: template %s.%s: %w", sec.ID, f.ID, err)
				}
			} else {
				vn = emptyNode(f.Type)
			}
			annotate(fk, vn, fieldComment(f))
			body.Content = append(body.Content, fk, vn)
		}
		for _, k := range c.SectionKeys(s, sec.ID) {
			if _, known := sec.FindField(k); known {
				continue
			}
			vn, err := valueNode(fields[k])
			if err != nil {
				return nil, fmt.Errorf("card: template %s.%s: %w", sec.ID, k, err)
			}
			body.Content = append(body.Content, keyNode(k), vn)
		}
		root.Content = append(root.Content, key, body)
	}

	for _, k := range c.ExtraKeys() {
		vn, err := valueNode(c.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("card: template %s: %w", k, err)
		}
		root.Content = append(root.Content, keyNode(k), vn)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("card: template encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("card: template encode: %w", err)
	}
	return buf.Bytes(), nil
}

func metadataNode(md Metadata) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	authors := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, a := range md.Authors {
		authors.Content = append(authors.Content, strNode(a))
	}
	n.Content = append(n.Content,
		keyNode("model_name"), strNode(md.ModelName),
		keyNode("version"), strNode(md.Version),
		keyNode("authors"), authors,
		keyNode("generated_at"), strNode(md.GeneratedAt),
	)
	for _, k := range md.MetadataKeys() {
		v, ok := md.Other[k]
		if !ok {
			continue
		}
		vn, err := valueNode(v)
		if err != nil {
			return nil, fmt.Errorf("card: template metadata.%s: %w", k, err)
		}
		n.Content = append(n.Content, keyNode(k), vn)
	}
	return n, nil
}

func fieldComment(f schema.Field) string {
	req := "optional"
	if f.Required {
		req = "required"
	}
	return fmt.Sprintf("%s %s", req, f.Type)
}

// annotate attaches a field comment. Scalars and empty flow sequences carry
// it on the value line; block values get it above the key.
func annotate(key, value *yaml.Node, text string) {
	switch {
	case value.Kind == yaml.ScalarNode:
		value.LineComment = comment(text)
	case value.Kind == yaml.SequenceNode && len(value.Content) == 0:
		value.Style = yaml.FlowStyle
		value.LineComment = comment(text)
	default:
		key.HeadComment = comment(text)
	}
}

func comment(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "# " + l
	}
	return strings.Join(lines, "\n")
}

func keyNode(k string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
}

func strNode(v string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	if v == "" {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func emptyNode(t schema.FieldType) *yaml.Node {
	switch t {
	case schema.TypeList, schema.TypeTable:
		return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	default:
		return strNode("")
	}
}

func valueNode(v any) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(yamlValue(v)); err != nil {
		return nil, err
	}
	return n, nil
}

// yamlValue replaces json.Number leaves with plain numeric scalars so that
// numbers survive a save and reload as numbers.
func yamlValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		tag := "!!int"
		if _, err := t.Int64(); err != nil {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = yamlValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlValue(e)
		}
		return out
	default:
		return v
	}
}
