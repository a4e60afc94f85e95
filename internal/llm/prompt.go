package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/KoryJCampbell/modelcard/internal/draft"
	"github.com/KoryJCampbell/modelcard/internal/profile"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

const truncatedMarker = "\n[... inventory truncated]\n"

// buildSystemPrompt assembles the system prompt for one field.
func buildSystemPrompt(prof profile.Profile, req draft.Request) string {
	var sb strings.Builder

	sb.WriteString("You draft one field of a model card that documents an AI system " +
		"against the NIST AI Risk Management Framework.\n\n")

	sb.WriteString("Only state what the repository inventory or the already documented " +
		"fields support. Never invent metrics, names, dates or contacts; when unsure, " +
		"write what a reviewer must confirm.\n\n")

	if g := profile.CategoryGuidance(req.Section.Category); g != "" {
		sb.WriteString(g)
		sb.WriteString("\n\n")
	}

	if prof.SystemPromptAddendum != "" {
		sb.WriteString(prof.SystemPromptAddendum)
		sb.WriteString("\n\n")
	}

	sb.WriteString(formatInstruction(req.Field))
	return sb.String()
}

// formatInstruction tells the model how to shape its answer for f's type.
func formatInstruction(f schema.Field) string {
	switch f.Type {
	case schema.TypeList:
		return "Output format: a bulleted list, one item per line, each line starting " +
			"with \"- \". No heading, no other text."
	case schema.TypeTable:
		cols := f.Columns
		if len(cols) == 0 {
			cols = []string{"value"}
		}
		return fmt.Sprintf("Output format: ONLY a JSON array of objects with the keys %s. "+
			"String values only. No prose, no markdown.", strings.Join(quoteAll(cols), ", "))
	case schema.TypeDate:
		return "Output format: ONLY a date in YYYY-MM-DD form."
	default:
		return "Output format: plain prose, at most one short paragraph. " +
			"No heading, no markdown fences."
	}
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// buildUserPrompt assembles the user prompt. The repository summary is
// truncated to budget bytes.
func buildUserPrompt(req draft.Request, budget int) string {
	var sb strings.Builder

	if req.ModelName != "" {
		fmt.Fprintf(&sb, "MODEL: %s\n", req.ModelName)
	}
	fmt.Fprintf(&sb, "SECTION: %s (NIST AI RMF: %s)\n", req.Section.Title, req.Section.Category.Title())
	if req.Section.Description != "" {
		fmt.Fprintf(&sb, "  %s\n", req.Section.Description)
	}
	kind := "optional"
	if req.Field.Required {
		kind = "required"
	}
	fmt.Fprintf(&sb, "FIELD: %s (%s, %s %s)\n", req.Field.Label, req.Field.ID, kind, req.Field.Type)
	if req.Field.Description != "" {
		fmt.Fprintf(&sb, "  %s\n", req.Field.Description)
	}

	if len(req.SectionContext) > 0 {
		sb.WriteString("\nALREADY DOCUMENTED IN THIS SECTION:\n")
		keys := make([]string, 0, len(req.SectionContext))
		for k := range req.SectionContext {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, contextValue(req.SectionContext[k]))
		}
	}

	if req.RepoPath != "" {
		fmt.Fprintf(&sb, "\nREPOSITORY: %s\n", req.RepoPath)
	}
	if req.RepoSummary != "" {
		sb.WriteString("\nREPOSITORY INVENTORY:\n")
		sb.WriteString(truncate(req.RepoSummary, budget))
	}

	fmt.Fprintf(&sb, "\nDraft the value of %s now.", req.Field.Label)
	return sb.String()
}

func contextValue(v any) string {
	if s, ok := v.(string); ok {
		return strings.Join(strings.Fields(s), " ")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// truncate cuts s to at most limit bytes on a rune boundary, marking the cut.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedMarker
}

// buildRepairPrompt constructs the repair message. It includes the original
// user prompt and the previous invalid response so the LLM has full context.
func buildRepairPrompt(originalUserPrompt, previousResponse string, parseErr error) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response could not be used: ")
	sb.WriteString(parseErr.Error())
	sb.WriteString("\nOutput only the corrected value in the required format.")
	return sb.String()
}
