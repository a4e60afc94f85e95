package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// NotProvided marks an empty required field in rendered documents.
const NotProvided = "_— not provided —_"

const untitled = "Untitled model"

// Markdown renders c as GitHub-flavoured Markdown: one "##" heading per
// schema section and one "###" block per field, both in schema order.
func Markdown(c *card.Card, s *schema.Schema) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Model Card: %s\n\n", title(c))
	writeMetadata(&sb, c)

	for _, sec := range s.ListSections() {
		fmt.Fprintf(&sb, "## %s\n\n", sectionHeading(sec))
		if sec.Description != "" {
			fmt.Fprintf(&sb, "_%s_\n\n", sec.Description)
		}
		fields := c.Sections[sec.ID]
		for _, k := range fieldOrder(c, s, sec) {
			f, known := sec.FindField(k)
			if !known {
				f = schema.Field{ID: k, Label: label(k), Type: inferType(fields[k])}
			}
			v := fields[k]
			if !coverage.Present(f, v) {
				if f.Required {
					fmt.Fprintf(&sb, "### %s\n\n%s\n\n", f.Label, NotProvided)
				}
				continue
			}
			fmt.Fprintf(&sb, "### %s\n\n", f.Label)
			writeValue(&sb, f, v)
		}
	}

	if len(c.Extra) > 0 {
		sb.WriteString("## Additional Information\n\n")
		out, err := yaml.Marshal(c.Extra)
		if err != nil {
			out = []byte(fmt.Sprintf("# unrenderable: %v\n", err))
		}
		sb.WriteString("```yaml\n")
		sb.Write(out)
		sb.WriteString("```\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// sectionHeading is the "##" heading text for sec.
func sectionHeading(sec schema.Section) string {
	return fmt.Sprintf("%s (NIST AI RMF: %s)", sec.Title, sec.Category.Title())
}

func title(c *card.Card) string {
	if name := strings.TrimSpace(c.Metadata.ModelName); name != "" {
		return name
	}
	return untitled
}

// fieldOrder lists every schema field of sec, then unknown card fields
// sorted.
func fieldOrder(c *card.Card, s *schema.Schema, sec schema.Section) []string {
	keys := make([]string, 0, len(sec.Fields))
	for _, f := range sec.Fields {
		keys = append(keys, f.ID)
	}
	for _, k := range c.SectionKeys(s, sec.ID) {
		if _, known := sec.FindField(k); !known {
			keys = append(keys, k)
		}
	}
	return keys
}

func writeMetadata(sb *strings.Builder, c *card.Card) {
	if c.SchemaVersion != "" {
		fmt.Fprintf(sb, "- **Schema Version:** %s\n", c.SchemaVersion)
	}
	md := c.Metadata.MetadataMap()
	keys := c.Metadata.MetadataKeys()
	for _, k := range keys {
		v := md[k]
		if list, ok := v.([]any); ok {
			parts := make([]string, 0, len(list))
			for _, e := range list {
				parts = append(parts, inline(e))
			}
			fmt.Fprintf(sb, "- **%s:** %s\n", label(k), strings.Join(parts, ", "))
			continue
		}
		fmt.Fprintf(sb, "- **%s:** %s\n", label(k), inline(v))
	}
	if c.SchemaVersion != "" || len(keys) > 0 {
		sb.WriteString("\n")
	}
}

func writeValue(sb *strings.Builder, f schema.Field, v any) {
	switch t := v.(type) {
	case []any:
		if f.Type == schema.TypeTable && writeTable(sb, f, t) {
			return
		}
		for _, e := range t {
			if !coverage.Present(schema.Field{Type: schema.TypeText}, e) {
				continue
			}
			fmt.Fprintf(sb, "- %s\n", inline(e))
		}
		sb.WriteString("\n")
	case map[string]any:
		out, err := yaml.Marshal(t)
		if err != nil {
			fmt.Fprintf(sb, "%s\n\n", inline(t))
			return
		}
		fmt.Fprintf(sb, "```yaml\n%s```\n\n", out)
	default:
		text := strings.TrimSpace(scalar(v))
		if f.Type == schema.TypeList {
			fmt.Fprintf(sb, "- %s\n\n", oneLine(text))
			return
		}
		fmt.Fprintf(sb, "%s\n\n", escapeBlock(text))
	}
}

// escapeBlock backslash-escapes any line-leading character that would start
// a Markdown block construct.
func escapeBlock(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		rest := strings.TrimLeft(l, " \t")
		if rest != "" && strings.ContainsRune("#>-+*=", rune(rest[0])) {
			lines[i] = l[:len(l)-len(rest)] + "\\" + rest
		}
	}
	return strings.Join(lines, "\n")
}

// writeTable renders rows as a GFM table. It reports false when no column
// can be derived, leaving the caller to fall back to a list.
func writeTable(sb *strings.Builder, f schema.Field, rows []any) bool {
	cols := tableColumns(f, rows)
	if len(cols) == 0 {
		return false
	}

	sb.WriteString("|")
	for _, col := range cols {
		fmt.Fprintf(sb, " %s |", label(col))
	}
	sb.WriteString("\n|")
	for range cols {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	for _, r := range rows {
		if !coverage.Present(schema.Field{Type: schema.TypeText}, r) {
			continue
		}
		row, ok := r.(map[string]any)
		if !ok {
			row = map[string]any{cols[0]: r}
		}
		sb.WriteString("|")
		for _, col := range cols {
			fmt.Fprintf(sb, " %s |", mdEscape(inline(row[col])))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return true
}

// tableColumns returns the schema columns of f, then any other keys found
// in rows, sorted.
func tableColumns(f schema.Field, rows []any) []string {
	cols := append([]string(nil), f.Columns...)
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}
	var extra []string
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		for k := range row {
			if !known[k] {
				known[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// inferType guesses a display type for a field the schema does not know.
func inferType(v any) schema.FieldType {
	rows, ok := v.([]any)
	if !ok {
		return schema.TypeText
	}
	for _, r := range rows {
		if _, isMap := r.(map[string]any); isMap {
			return schema.TypeTable
		}
	}
	return schema.TypeList
}

// label turns an identifier such as "owner_org" into "Owner Org".
func label(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// scalar formats a scalar value.
func scalar(v any) string {
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

// inline formats any value on a single line. Maps become "k: v; k: v" with
// sorted keys.
func inline(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+inline(t[k]))
		}
		return strings.Join(parts, "; ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, inline(e))
		}
		return strings.Join(parts, ", ")
	default:
		return oneLine(scalar(v))
	}
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " ")), " ")
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
