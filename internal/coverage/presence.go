package coverage

import (
	"strings"

	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// Present reports whether v counts as a provided value for field f:
//   - text, date: non-empty after trimming (non-string scalars count);
//   - list: non-empty (a bare non-blank scalar counts);
//   - table: at least one populated entry.
func Present(f schema.Field, v any) bool {
	switch f.Type {
	case schema.TypeList:
		switch t := v.(type) {
		case []any:
			return len(t) > 0
		case map[string]any:
			return len(t) > 0
		}
		return populated(v)
	case schema.TypeTable:
		switch t := v.(type) {
		case []any:
			for _, row := range t {
				if populated(row) {
					return true
				}
			}
			return false
		}
		return populated(v)
	default:
		return populated(v)
	}
}

// populated reports whether v holds any non-blank scalar.
func populated(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		for _, e := range t {
			if populated(e) {
				return true
			}
		}
		return false
	case map[string]any:
		for _, e := range t {
			if populated(e) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
