package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/KoryJCampbell/modelcard/internal/coverage"
)

// ReportJSON produces a pretty-printed JSON representation of the report.
// The output round-trips through json.Unmarshal back to an equal Report.
func ReportJSON(report *coverage.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("render: nil report")
	}
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return append(b, '\n'), nil
}

// ReportMarkdown produces a GitHub-flavoured Markdown summary of the
// report, suitable for PR comments. Every gap appears in the output.
func ReportMarkdown(report *coverage.Report) string {
	if report == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## Model Card Coverage\n\n")
	fmt.Fprintf(&sb, "**Result:** %s  \n", verdict(report))
	fmt.Fprintf(&sb, "**Score:** %d/100  \n", report.Score)
	req, opt := report.CountGaps()
	fmt.Fprintf(&sb, "**Mode:** %s | **Required gaps:** %d | **Optional gaps:** %d\n\n",
		report.Mode, req, opt)

	sb.WriteString("### NIST AI RMF Categories\n\n")
	sb.WriteString("| Category | Required present | Coverage |\n")
	sb.WriteString("|---|---|---|\n")
	for _, cc := range report.Categories {
		fmt.Fprintf(&sb, "| %s | %d/%d | %s |\n",
			cc.Category.Title(), cc.RequiredPresent, cc.RequiredTotal, percent(cc.Ratio))
	}
	sb.WriteString("\n")

	sb.WriteString("### Sections\n\n")
	sb.WriteString("| Section | Category | Status | Required present |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, s := range report.Sections {
		fmt.Fprintf(&sb, "| %s | %s | %s | %d/%d |\n",
			mdEscape(s.Title), s.Category.Title(), s.Status, s.RequiredPresent, s.RequiredTotal)
	}
	sb.WriteString("\n")

	if len(report.Gaps) > 0 {
		sb.WriteString("### Gaps\n\n")
		for _, g := range report.Gaps {
			kind := "optional"
			if g.Required {
				kind = "required"
			}
			fmt.Fprintf(&sb, "- `%s.%s` (%s): %s\n", g.Section, g.Field, kind, mdEscape(g.Description))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// ReportText renders the report for a terminal. With useColor false the
// output carries no escape sequences.
func ReportText(report *coverage.Report, useColor bool) string {
	if report == nil {
		return ""
	}
	paint := func(attrs ...color.Attribute) func(format string, a ...any) string {
		c := color.New(attrs...)
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintfFunc()
	}
	var (
		success = paint(color.FgGreen, color.Bold)
		failure = paint(color.FgRed, color.Bold)
		warning = paint(color.FgYellow)
		info    = paint(color.FgCyan, color.Bold)
		faint   = paint(color.Faint)
	)
	statusColor := map[coverage.Status]func(string, ...any) string{
		coverage.StatusComplete: success,
		coverage.StatusPartial:  warning,
		coverage.StatusMissing:  failure,
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s schema %s, %s mode\n", info("Model card coverage:"), report.SchemaVersion, report.Mode)
	result := success("PASS")
	if !report.Pass {
		result = failure("FAIL")
	}
	fmt.Fprintf(&sb, "Score: %d/100  Result: %s\n\n", report.Score, result)

	sb.WriteString(info("Categories") + "\n")
	for _, cc := range report.Categories {
		fmt.Fprintf(&sb, "  %-8s %3d/%-3d %s\n",
			cc.Category.Title(), cc.RequiredPresent, cc.RequiredTotal, percent(cc.Ratio))
	}
	sb.WriteString("\n")

	sb.WriteString(info("Sections") + "\n")
	for _, s := range report.Sections {
		status := statusColor[s.Status](fmt.Sprintf("%-8s", s.Status))
		opt := ""
		if !s.Required {
			opt = faint(" (optional)")
		}
		fmt.Fprintf(&sb, "  [%s] %s%s %s\n", status, s.Title, opt,
			faint("%d/%d required", s.RequiredPresent, s.RequiredTotal))
	}

	if len(report.Gaps) > 0 {
		sb.WriteString("\n" + info("Gaps") + "\n")
		for _, g := range report.Gaps {
			mark := warning("-")
			if g.Required {
				mark = failure("!")
			}
			fmt.Fprintf(&sb, "  %s %s\n", mark, g.Description)
		}
	}
	return sb.String()
}

func verdict(r *coverage.Report) string {
	if r.Pass {
		return "PASS"
	}
	return "FAIL"
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
