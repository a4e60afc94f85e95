package codeindex

import (
	"strings"
	"testing"
)

const sampleReadme = "# Churn Predictor\n" +
	"\n" +
	"Predicts customer churn.\n" +
	"\n" +
	"## Installation\n" +
	"\n" +
	"```bash\n" +
	"# not a heading\n" +
	"pip install churn\n" +
	"```\n" +
	"\n" +
	"## Training Data\n" +
	"\n" +
	"2024 usage logs, 1.2M rows.\n" +
	"\n" +
	"## Limitations ##\n" +
	"\n" +
	"Not validated outside the EU.\n"

func TestSplitSections(t *testing.T) {
	got := SplitSections(sampleReadme)
	want := []struct {
		heading string
		level   int
	}{
		{"Churn Predictor", 1},
		{"Installation", 2},
		{"Training Data", 2},
		{"Limitations", 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sections: %+v", len(got), got)
	}
	for i, w := range want {
		if got[i].Heading != w.heading || got[i].Level != w.level {
			t.Errorf("section %d = %q (level %d), want %q (level %d)", i, got[i].Heading, got[i].Level, w.heading, w.level)
		}
	}
	if !strings.Contains(got[1].Text, "# not a heading") {
		t.Error("heading inside fenced code block split the section")
	}
	if got[2].LineStart != 12 || got[2].LineEnd != 15 {
		t.Errorf("Training Data lines = %d-%d", got[2].LineStart, got[2].LineEnd)
	}
}

func TestSplitSections_Preamble(t *testing.T) {
	got := SplitSections("Intro text.\n\n## Usage\nRun it.\n")
	if len(got) != 2 || got[0].Heading != "" || got[0].Text != "Intro text." {
		t.Fatalf("sections = %+v", got)
	}
}

func TestExcerpt_KeepsRelevantSections(t *testing.T) {
	got := Excerpt(sampleReadme, 4096)
	for _, want := range []string{"# Churn Predictor", "Predicts customer churn.", "## Training Data", "1.2M rows", "## Limitations"} {
		if !strings.Contains(got, want) {
			t.Errorf("excerpt missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "pip install") {
		t.Error("irrelevant section body kept")
	}
	if !strings.Contains(got, "Other sections: Installation") {
		t.Error("skipped headings not listed")
	}
}

func TestExcerpt_Limit(t *testing.T) {
	got := Excerpt(sampleReadme, 60)
	if len(got) > 60 {
		t.Errorf("excerpt is %d bytes, limit 60", len(got))
	}
	if !strings.HasPrefix(got, "# Churn Predictor") {
		t.Errorf("excerpt = %q", got)
	}
}

func TestFencePrefix(t *testing.T) {
	cases := map[string]string{
		"```go":   "```",
		"   ~~~~": "~~~~",
		"    ```": "",
		"``":      "",
		"plain":   "",
	}
	for line, want := range cases {
		if got := fencePrefix(line); got != want {
			t.Errorf("fencePrefix(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestIsClosingFence(t *testing.T) {
	cases := []struct {
		line, open string
		want       bool
	}{
		{"```", "```", true},
		{"````  ", "```", true},
		{"``", "```", false},
		{"~~~", "```", false},
		{"``` go", "```", false},
	}
	for _, c := range cases {
		if got := isClosingFence(c.line, c.open); got != c.want {
			t.Errorf("isClosingFence(%q, %q) = %v, want %v", c.line, c.open, got, c.want)
		}
	}
}
