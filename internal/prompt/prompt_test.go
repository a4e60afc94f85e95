package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

func testSchema() *schema.Schema {
	return schema.MustNew("1.0.0", []schema.Section{
		{
			ID: "model_details", Title: "Model Details", Category: schema.CategoryMap, Required: true,
			Fields: []schema.Field{
				{ID: "description", Label: "Description", Type: schema.TypeText, Required: true},
				{ID: "model_type", Label: "Model Type", Type: schema.TypeText, Required: true},
				{ID: "architecture", Label: "Architecture", Type: schema.TypeText},
			},
		},
		{
			ID: "intended_use", Title: "Intended Use", Category: schema.CategoryMap, Required: true,
			Fields: []schema.Field{
				{ID: "primary_uses", Label: "Primary Uses", Type: schema.TypeList, Required: true},
			},
		},
	})
}

func typeText(m model, s string) model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(model)
}

func press(m model, k tea.KeyType) (model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(model), cmd
}

func TestModel_AsksInOrder(t *testing.T) {
	qs := []Question{
		{Section: MetadataSection, Field: "model_name", Prompt: "Model name"},
		{Section: MetadataSection, Field: "version", Prompt: "Model version", Default: "0.1.0"},
	}
	m := newModel(qs)
	assert.Contains(t, m.View(), "[1/2] Model name")

	m = typeText(m, "Churn Predictor")
	m, _ = press(m, tea.KeyEnter)
	assert.False(t, m.done)
	assert.Contains(t, m.View(), "[2/2] Model version")

	m, cmd := press(m, tea.KeyEnter)
	require.True(t, m.done)
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())

	answers := m.answers()
	assert.Equal(t, "Churn Predictor", answers["metadata.model_name"])
	assert.Equal(t, "0.1.0", answers["metadata.version"], "blank input keeps the default")
}

func TestModel_Cancel(t *testing.T) {
	m := newModel([]Question{{Section: MetadataSection, Field: "model_name", Prompt: "Model name"}})
	m, cmd := press(m, tea.KeyEsc)
	assert.False(t, m.done)
	assert.NotNil(t, cmd)
}

func TestTUI_NoQuestions(t *testing.T) {
	answers, err := TUI{}.Ask(nil)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestStatic(t *testing.T) {
	qs := []Question{
		{Section: MetadataSection, Field: "model_name"},
		{Section: MetadataSection, Field: "version", Default: "1.0.0"},
	}
	got, err := Static{"metadata.model_name": "Churn"}.Ask(qs)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"metadata.model_name": "Churn", "metadata.version": "1.0.0"}, got)
}

func TestQuickQuestions_Defaults(t *testing.T) {
	c := card.New(testSchema())
	c.Metadata.ModelName = "Churn"
	c.Metadata.Authors = []string{"Ana", "Bo"}
	c.Set("model_details", "description", "Predicts churn.")

	qs := QuickQuestions(c)
	require.Len(t, qs, 4)
	assert.Equal(t, "Churn", qs[0].Default)
	assert.Equal(t, "Ana, Bo", qs[2].Default)
	assert.True(t, qs[2].List)
	assert.Equal(t, "model_details.description", qs[3].Key())
	assert.Equal(t, "Predicts churn.", qs[3].Default)
}

func TestMissingRequired(t *testing.T) {
	s := testSchema()
	c := card.New(s)
	c.Set("model_details", "model_type", "classifier")
	report := coverage.Validate(c, s, coverage.ModeLenient)

	qs := MissingRequired(report, s)
	require.Len(t, qs, 1, "only empty required text fields are asked")
	assert.Equal(t, "model_details.description", qs[0].Key())
	assert.Equal(t, "Model Details / Description", qs[0].Prompt)
}

func TestApply(t *testing.T) {
	s := testSchema()
	c := card.New(s)
	c.Metadata.Version = "0.9.0"

	qs := append(QuickQuestions(c), Question{Section: "intended_use", Field: "primary_uses", List: true})
	got := Apply(c, qs, map[string]string{
		"metadata.model_name":       "  Churn Predictor ",
		"metadata.version":          "",
		"metadata.authors":          "Ana, , Bo",
		"model_details.description": "Predicts churn.",
		"intended_use.primary_uses": "Retention, Forecasting",
	})

	assert.Equal(t, "Churn Predictor", got.Metadata.ModelName)
	assert.Equal(t, "0.9.0", got.Metadata.Version, "blank answer leaves the value")
	assert.Equal(t, []string{"Ana", "Bo"}, got.Metadata.Authors)
	v, _ := got.Get("model_details", "description")
	assert.Equal(t, "Predicts churn.", v)
	v, _ = got.Get("intended_use", "primary_uses")
	assert.Equal(t, []any{"Retention", "Forecasting"}, v)

	assert.Empty(t, c.Metadata.ModelName, "input card is not mutated")
}
