package codeindex

import (
	"bufio"
	"regexp"
	"strings"
)

// DocSection is a heading-delimited part of a Markdown document.
type DocSection struct {
	Heading   string // empty for text before the first heading
	Level     int
	LineStart int // 1-indexed
	LineEnd   int
	Text      string
}

var atxHeadingRe = regexp.MustCompile(`^ {0,3}(#{1,6})\s+(.*?)\s*#*\s*$`)

// relevantHeadingRe matches headings whose content usually belongs in a
// model card.
var relevantHeadingRe = regexp.MustCompile(`(?i)\b(overview|about|model|train\w*|data\w*|eval\w*|metric\w*|benchmark\w*|result\w*|limitation\w*|bias\w*|fairness|risk\w*|ethic\w*|intended|usage|use cases?|safety|privacy|licen[cs]e|citation|monitor\w*|maintenance)\b`)

// SplitSections segments Markdown content at ATX headings. Headings inside
// fenced code blocks are content.
func SplitSections(content string) []DocSection {
	var (
		out       []DocSection
		cur       DocSection
		body      []string
		openFence string
		lineNum   int
	)
	flush := func() {
		cur.Text = strings.TrimSpace(strings.Join(body, "\n"))
		if cur.Heading != "" || cur.Text != "" {
			out = append(out, cur)
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	cur.LineStart = 1
	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if openFence != "" {
			if isClosingFence(line, openFence) {
				openFence = ""
			}
			body = append(body, line)
			cur.LineEnd = lineNum
			continue
		}
		if fp := fencePrefix(line); fp != "" {
			openFence = fp
			body = append(body, line)
			cur.LineEnd = lineNum
			continue
		}
		if m := atxHeadingRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = DocSection{Heading: m[2], Level: len(m[1]), LineStart: lineNum, LineEnd: lineNum}
			body = nil
			continue
		}
		body = append(body, line)
		cur.LineEnd = lineNum
	}
	flush()
	return out
}

// Excerpt returns the parts of a README most useful for drafting: the title
// and introduction, then every section with a model-card heading, within
// limit bytes. Other sections are listed by heading only.
func Excerpt(content string, limit int) string {
	sections := SplitSections(content)
	var (
		sb      strings.Builder
		skipped []string
	)
	write := func(s DocSection) bool {
		var part strings.Builder
		if s.Heading != "" {
			part.WriteString(strings.Repeat("#", s.Level) + " " + s.Heading + "\n")
		}
		if s.Text != "" {
			part.WriteString(s.Text + "\n")
		}
		part.WriteString("\n")
		if sb.Len()+part.Len() > limit {
			return false
		}
		sb.WriteString(part.String())
		return true
	}

	for i, s := range sections {
		keep := i == 0 || s.Level == 1 || relevantHeadingRe.MatchString(s.Heading)
		if !keep || !write(s) {
			if s.Heading != "" {
				skipped = append(skipped, s.Heading)
			}
		}
	}
	if len(skipped) > 0 {
		more := "Other sections: " + strings.Join(skipped, "; ") + "\n"
		if sb.Len()+len(more) <= limit {
			sb.WriteString(more)
		}
	}
	if sb.Len() == 0 && len(content) > 0 {
		return truncateLines(content, limit)
	}
	return strings.TrimSpace(sb.String())
}

// truncateLines cuts s to at most limit bytes at a line boundary.
func truncateLines(s string, limit int) string {
	if len(s) <= limit {
		return strings.TrimSpace(s)
	}
	cut := strings.LastIndex(s[:limit], "\n")
	if cut <= 0 {
		cut = limit
	}
	return strings.TrimSpace(s[:cut])
}

// fencePrefix returns the opening fence string (e.g. "```" or "~~~~") if line
// starts a fenced code block, otherwise "". Up to 3 leading spaces are
// allowed; 4 or more make an indented code block.
func fencePrefix(line string) string {
	leading := 0
	for leading < len(line) && line[leading] == ' ' {
		leading++
	}
	if leading >= 4 {
		return ""
	}
	stripped := line[leading:]
	for _, marker := range []byte{'`', '~'} {
		if len(stripped) < 3 || stripped[0] != marker {
			continue
		}
		count := 0
		for count < len(stripped) && stripped[count] == marker {
			count++
		}
		if count >= 3 {
			return stripped[:count]
		}
	}
	return ""
}

// isClosingFence reports whether line closes openFence: same marker, at
// least as long, nothing but spaces after it.
func isClosingFence(line, openFence string) bool {
	if openFence == "" {
		return false
	}
	fp := fencePrefix(line)
	if fp == "" || fp[0] != openFence[0] || len(fp) < len(openFence) {
		return false
	}
	leading := len(line) - len(strings.TrimLeft(line, " "))
	return strings.TrimLeft(line[leading+len(fp):], " ") == ""
}
