// Package prompt collects model-card values from a person at a terminal.
// Questions are asked one at a time with a bubbletea text input; answers are
// applied to a copy of the card.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// ErrCancelled is returned when the user aborts with Ctrl-C or Esc.
var ErrCancelled = errors.New("prompt: cancelled")

// MetadataSection is the Question.Section value for card metadata.
const MetadataSection = "metadata"

// Question is a single prompt and the card location its answer fills.
type Question struct {
	Section string // schema section ID, or MetadataSection
	Field   string // field ID, or model_name / version / authors
	Prompt  string
	Default string
	// List answers are split on commas.
	List bool
}

// Key identifies the question in an answer map.
func (q Question) Key() string { return q.Section + "." + q.Field }

// Asker collects answers keyed by Question.Key.
type Asker interface {
	Ask(questions []Question) (map[string]string, error)
}

// Static answers every question from a fixed map. Unknown keys fall back to
// the question's default.
type Static map[string]string

func (s Static) Ask(questions []Question) (map[string]string, error) {
	out := make(map[string]string, len(questions))
	for _, q := range questions {
		if v, ok := s[q.Key()]; ok {
			out[q.Key()] = v
		} else {
			out[q.Key()] = q.Default
		}
	}
	return out, nil
}

// QuickQuestions asks for the card's identity: model name, version, authors
// and a one-paragraph description. Current values become defaults.
func QuickQuestions(c *card.Card) []Question {
	desc, _ := c.Get("model_details", "description")
	d, _ := desc.(string)
	return []Question{
		{Section: MetadataSection, Field: "model_name", Prompt: "Model name", Default: c.Metadata.ModelName},
		{Section: MetadataSection, Field: "version", Prompt: "Model version", Default: c.Metadata.Version},
		{Section: MetadataSection, Field: "authors", Prompt: "Authors (comma separated)", Default: strings.Join(c.Metadata.Authors, ", "), List: true},
		{Section: "model_details", Field: "description", Prompt: "Short description", Default: d},
	}
}

// MissingRequired returns a question for every required text field that the
// report lists as a gap, in schema order.
func MissingRequired(report *coverage.Report, s *schema.Schema) []Question {
	var out []Question
	for _, g := range report.Gaps {
		if !g.Required {
			continue
		}
		f, err := s.Field(g.Section, g.Field)
		if err != nil || f.Type != schema.TypeText {
			continue
		}
		sec, _ := s.FindSection(g.Section)
		out = append(out, Question{
			Section: g.Section,
			Field:   g.Field,
			Prompt:  fmt.Sprintf("%s / %s", sec.Title, f.Label),
		})
	}
	return out
}

// Apply returns a copy of c with non-blank answers written to their
// locations. Blank answers leave the card unchanged.
func Apply(c *card.Card, questions []Question, answers map[string]string) *card.Card {
	out := c.Clone()
	for _, q := range questions {
		v := strings.TrimSpace(answers[q.Key()])
		if v == "" {
			continue
		}
		if q.Section == MetadataSection {
			switch q.Field {
			case "model_name":
				out.Metadata.ModelName = v
			case "version":
				out.Metadata.Version = v
			case "authors":
				out.Metadata.Authors = splitList(v)
			}
			continue
		}
		if q.List {
			items := splitList(v)
			list := make([]any, len(items))
			for i, it := range items {
				list[i] = it
			}
			out.Set(q.Section, q.Field, list)
			continue
		}
		out.Set(q.Section, q.Field, v)
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TUI asks questions in the terminal. Zero Input and Output use the
// process's stdin and stdout.
type TUI struct {
	Input  io.Reader
	Output io.Writer
}

func (t TUI) Ask(questions []Question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	var opts []tea.ProgramOption
	if t.Input != nil {
		opts = append(opts, tea.WithInput(t.Input))
	}
	if t.Output != nil {
		opts = append(opts, tea.WithOutput(t.Output))
	}
	result, err := tea.NewProgram(newModel(questions), opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("prompt: %w", err)
	}
	final, ok := result.(model)
	if !ok || !final.done {
		return nil, ErrCancelled
	}
	return final.answers(), nil
}

// model is a bubbletea model that asks one question at a time.
type model struct {
	questions []Question
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newModel(questions []Question) model {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.Default
		ti.CharLimit = 2048
		inputs[i] = ti
	}
	m := model{questions: questions, inputs: inputs}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		m.done = true
		return m, tea.Quit
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("[%d/%d] %s: %s\n", m.idx+1, len(m.questions), q.Prompt, m.inputs[m.idx].View())
}

// answers returns typed values, falling back to the default for blank input.
func (m model) answers() map[string]string {
	out := make(map[string]string, len(m.questions))
	for i, q := range m.questions {
		v := m.inputs[i].Value()
		if strings.TrimSpace(v) == "" {
			v = q.Default
		}
		out[q.Key()] = v
	}
	return out
}
