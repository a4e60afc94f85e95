// Package render turns a card into Markdown, JSON or HTML, and prints
// coverage reports. Output is a pure function of its inputs: no clocks,
// and every map is walked in a fixed key order.
package render

import (
	"fmt"
	"strings"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// Format is an output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatJSON, FormatHTML}
}

// UnsupportedFormatError is returned for a format outside Formats.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("render: unsupported format %q (want markdown, json or html)", e.Format)
}

// ParseFormat converts a string to a Format. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html":
		return FormatHTML, nil
	}
	return "", &UnsupportedFormatError{Format: s}
}

// Render renders c in format f. Incomplete cards render; gaps in required
// fields show up as placeholders.
func Render(c *card.Card, s *schema.Schema, f Format) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("render: nil card")
	}
	switch f {
	case FormatMarkdown:
		return []byte(Markdown(c, s)), nil
	case FormatJSON:
		return JSON(c, s)
	case FormatHTML:
		return HTML(c, s)
	}
	return nil, &UnsupportedFormatError{Format: string(f)}
}
