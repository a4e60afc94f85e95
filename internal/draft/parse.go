package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// ParseSuggestion converts raw suggestion text into a card value for f:
//   - text: the trimmed text;
//   - date: a YYYY-MM-DD date;
//   - list: one item per bulleted or numbered line, or a JSON array;
//   - table: a JSON array of objects (a single object is one row).
//
// Markdown fences around the payload are removed first.
func ParseSuggestion(f schema.Field, raw string) (any, error) {
	text := StripFences(raw)
	if text == "" {
		return nil, ErrEmptySuggestion
	}
	switch f.Type {
	case schema.TypeList:
		return parseList(text)
	case schema.TypeTable:
		return parseTable(text)
	case schema.TypeDate:
		return parseDate(text)
	default:
		return text, nil
	}
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line, left behind when a
// response is truncated.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// StripFences removes a markdown code fence wrapped around s.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// bulletRe matches a list marker: "-", "*", "+", "•" or "1." / "1)".
var bulletRe = regexp.MustCompile(`^\s*(?:[-*+•]|\d+[.)])(?:\s+|$)`)

func parseList(text string) (any, error) {
	if strings.HasPrefix(text, "[") {
		var items []any
		if err := decodeJSON(text, &items); err == nil {
			out := make([]any, 0, len(items))
			for _, it := range items {
				if s, ok := it.(string); ok {
					if s = strings.TrimSpace(s); s == "" {
						continue
					}
					it = s
				}
				out = append(out, it)
			}
			if len(out) == 0 {
				return nil, ErrEmptySuggestion
			}
			return out, nil
		}
	}

	var out []any
	for _, line := range strings.Split(text, "\n") {
		item := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, ErrEmptySuggestion
	}
	return out, nil
}

func parseTable(text string) (any, error) {
	var raw any
	if err := decodeJSON(text, &raw); err != nil {
		return nil, fmt.Errorf("draft: table suggestion is not JSON: %w", err)
	}
	var rows []any
	switch t := raw.(type) {
	case []any:
		rows = t
	case map[string]any:
		rows = []any{t}
	default:
		return nil, fmt.Errorf("draft: table suggestion must be an array of objects, got %T", raw)
	}

	out := make([]any, 0, len(rows))
	for i, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("draft: table row %d is %T, want object", i, r)
		}
		if len(row) == 0 {
			continue
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, ErrEmptySuggestion
	}
	return out, nil
}

func parseDate(text string) (any, error) {
	d := strings.Trim(strings.TrimSpace(text), `"'`)
	if _, err := time.Parse(time.DateOnly, d); err != nil {
		return nil, fmt.Errorf("draft: %q is not a YYYY-MM-DD date", d)
	}
	return d, nil
}

// invalidJSONEscapeRe matches a backslash followed by a character that is
// not a valid JSON string escape.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

// decodeJSON decodes text into v with numbers kept as json.Number. On
// failure it retries once with invalid escape sequences doubled.
func decodeJSON(text string, v any) error {
	err := unmarshalNumber(text, v)
	if err == nil {
		return nil
	}
	if err2 := unmarshalNumber(invalidJSONEscapeRe.ReplaceAllString(text, `\\$1`), v); err2 == nil {
		return nil
	}
	return err
}

func unmarshalNumber(text string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	return dec.Decode(v)
}
