package coverage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

const cardsDir = "../../testdata/cards/"

// oneSection is a GOVERN-only schema with one required text field and one
// optional list field.
func oneSection(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("1.0.0", []schema.Section{{
		ID:       "governance",
		Title:    "Governance",
		Category: schema.CategoryGovern,
		Required: true,
		Fields: []schema.Field{
			{ID: "owner", Label: "Owner", Type: schema.TypeText, Required: true},
			{ID: "policies", Label: "Policies", Type: schema.TypeList},
		},
	}})
	require.NoError(t, err)
	return s
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"lenient", ModeLenient, true},
		{"STRICT", ModeStrict, true},
		{"", "", false},
		{"loose", "", false},
	}
	for _, c := range cases {
		got, err := ParseMode(c.in)
		if !c.ok {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got)
	}
}

func TestValidate_EmptyCardLenient(t *testing.T) {
	s := oneSection(t)
	r := Validate(card.New(s), s, ModeLenient)

	require.Len(t, r.Sections, 1)
	assert.Equal(t, StatusMissing, r.Sections[0].Status)
	gov, ok := r.Category(schema.CategoryGovern)
	require.True(t, ok)
	assert.Equal(t, 0.0, gov.Ratio)
	assert.False(t, r.Pass)
	assert.Equal(t, 0, r.Score)
	assert.True(t, r.HasGap("governance", "owner"))
}

func TestValidate_RequiredFilled(t *testing.T) {
	s := oneSection(t)
	c := card.New(s)
	c.Set("governance", "owner", "Risk Office")

	lenient := Validate(c, s, ModeLenient)
	assert.Equal(t, StatusComplete, lenient.Sections[0].Status)
	assert.True(t, lenient.Pass)
	assert.Equal(t, 100, lenient.Score)

	strict := Validate(c, s, ModeStrict)
	assert.Equal(t, StatusPartial, strict.Sections[0].Status)
	assert.False(t, strict.Pass)

	// The optional gap is reported in both modes.
	assert.True(t, lenient.HasGap("governance", "policies"))
	assert.True(t, strict.HasGap("governance", "policies"))
}

func TestValidate_AllFilledStrictPasses(t *testing.T) {
	s := oneSection(t)
	c := card.New(s)
	c.Set("governance", "owner", "Risk Office")
	c.Set("governance", "policies", []any{"MRM v4"})

	r := Validate(c, s, ModeStrict)
	assert.Equal(t, StatusComplete, r.Sections[0].Status)
	assert.True(t, r.Pass)
	assert.Empty(t, r.Gaps)
}

func TestValidate_BlankValuesAreAbsent(t *testing.T) {
	s := oneSection(t)
	c := card.New(s)
	c.Set("governance", "owner", "   ")
	c.Set("governance", "policies", []any{})

	r := Validate(c, s, ModeLenient)
	assert.Equal(t, StatusMissing, r.Sections[0].Status)
	assert.Len(t, r.Gaps, 2)
}

func TestValidate_CompleteFixture(t *testing.T) {
	s := schema.Default()
	c, err := card.Load(cardsDir+"complete.yaml", s)
	require.NoError(t, err)

	for _, mode := range []Mode{ModeLenient, ModeStrict} {
		r := Validate(c, s, mode)
		assert.True(t, r.Pass, "mode %s", mode)
		assert.Equal(t, 100, r.Score)
		assert.Empty(t, r.Gaps)
		for _, cc := range r.Categories {
			assert.Equal(t, 1.0, cc.Ratio, "category %s", cc.Category)
		}
	}
}

func TestValidate_PartialFixture(t *testing.T) {
	s := schema.Default()
	c, err := card.Load(cardsDir+"partial.yaml", s)
	require.NoError(t, err)
	r := Validate(c, s, ModeLenient)

	assert.False(t, r.Pass)
	assert.Equal(t, 18, r.Score) // 3 of 17 required fields

	status := func(id string) Status {
		sr, ok := r.Section(id)
		require.True(t, ok, id)
		return sr.Status
	}
	assert.Equal(t, StatusPartial, status("model_details"))
	assert.Equal(t, StatusPartial, status("intended_use"))
	assert.Equal(t, StatusMissing, status("governance"))
	assert.Equal(t, StatusPartial, status("evaluation"))
	assert.Equal(t, StatusMissing, status("monitoring"))

	mapCov, _ := r.Category(schema.CategoryMap)
	assert.Equal(t, 2, mapCov.RequiredPresent)
	assert.Equal(t, 7, mapCov.RequiredTotal)
	assert.InDelta(t, 2.0/7.0, mapCov.Ratio, 1e-9)
	measure, _ := r.Category(schema.CategoryMeasure)
	assert.InDelta(t, 0.2, measure.Ratio, 1e-9)

	assert.True(t, r.HasGap("model_details", "model_type"))
	assert.True(t, r.HasGap("governance", "risk_tolerance"))
	assert.True(t, r.HasGap("evaluation", "datasets"))
	assert.False(t, r.HasGap("evaluation", "metrics"))
}

func TestValidate_GapOrderFollowsSchema(t *testing.T) {
	s := schema.Default()
	r := Validate(card.New(s), s, ModeLenient)

	var want []string
	for _, sec := range s.ListSections() {
		for _, f := range sec.Fields {
			want = append(want, sec.ID+"."+f.ID)
		}
	}
	var got []string
	for _, g := range r.Gaps {
		got = append(got, g.Section+"."+g.Field)
	}
	assert.Equal(t, want, got)
}

func TestValidate_CategoryOrderFixed(t *testing.T) {
	s := oneSection(t)
	r := Validate(card.New(s), s, ModeLenient)
	require.Len(t, r.Categories, 4)
	for i, cat := range schema.Categories() {
		assert.Equal(t, cat, r.Categories[i].Category)
	}
}

func TestValidate_CategoryWithoutRequiredFieldsIsFull(t *testing.T) {
	s := oneSection(t)
	r := Validate(card.New(s), s, ModeLenient)
	for _, cat := range []schema.Category{schema.CategoryMap, schema.CategoryMeasure, schema.CategoryManage} {
		cc, ok := r.Category(cat)
		require.True(t, ok)
		assert.Equal(t, 1.0, cc.Ratio, "category %s", cat)
		assert.Zero(t, cc.RequiredTotal)
	}
}

func TestValidate_OptionalSection(t *testing.T) {
	s, err := schema.New("1.0.0", []schema.Section{
		{
			ID: "core", Title: "Core", Category: schema.CategoryMap, Required: true,
			Fields: []schema.Field{{ID: "desc", Label: "Description", Type: schema.TypeText, Required: true}},
		},
		{
			ID: "extras", Title: "Extras", Category: schema.CategoryManage,
			Fields: []schema.Field{
				{ID: "plan", Label: "Plan", Type: schema.TypeText, Required: true},
				{ID: "notes", Label: "Notes", Type: schema.TypeText},
			},
		},
	})
	require.NoError(t, err)

	c := card.New(s)
	c.Set("core", "desc", "a model")

	// Untouched optional section: still missing, and missing fails both modes.
	r := Validate(c, s, ModeLenient)
	extras, _ := r.Section("extras")
	assert.Equal(t, StatusMissing, extras.Status)
	assert.False(t, r.Pass)
	assert.True(t, r.HasGap("extras", "plan"))
	assert.Contains(t, r.Gaps[0].Description, "optional section")
	assert.False(t, Validate(c, s, ModeStrict).Pass)

	// Filling its required field is enough for lenient.
	c.Set("extras", "plan", "quarterly review")
	r = Validate(c, s, ModeLenient)
	assert.True(t, r.Pass)
	extras, _ = r.Section("extras")
	assert.Equal(t, StatusComplete, extras.Status)
	assert.False(t, Validate(c, s, ModeStrict).Pass, "optional notes still empty")
}

func TestValidate_EmptiedMonitoringFailsLenient(t *testing.T) {
	s := schema.Default()
	c, err := card.Load(cardsDir+"complete.yaml", s)
	require.NoError(t, err)
	c.Sections["monitoring"] = card.Fields{}

	r := Validate(c, s, ModeLenient)
	mon, ok := r.Section("monitoring")
	require.True(t, ok)
	assert.Equal(t, StatusMissing, mon.Status)
	assert.False(t, r.Pass)
}

func TestValidate_ZeroRequiredSection(t *testing.T) {
	s, err := schema.New("1.0.0", []schema.Section{{
		ID: "notes", Title: "Notes", Category: schema.CategoryMeasure, Required: true,
		Fields: []schema.Field{{ID: "text", Label: "Text", Type: schema.TypeText}},
	}})
	require.NoError(t, err)

	c := card.New(s)
	assert.Equal(t, StatusComplete, Validate(c, s, ModeLenient).Sections[0].Status)
	assert.Equal(t, StatusPartial, Validate(c, s, ModeStrict).Sections[0].Status)
	assert.Equal(t, 100, Validate(c, s, ModeLenient).Score)
}

func TestValidate_NilCard(t *testing.T) {
	s := oneSection(t)
	r := Validate(nil, s, ModeLenient)
	assert.False(t, r.Pass)
	assert.NotEmpty(t, r.CardDigest)
}

func TestValidate_UnknownModeIsLenient(t *testing.T) {
	s := oneSection(t)
	r := Validate(card.New(s), s, Mode("other"))
	assert.Equal(t, ModeLenient, r.Mode)
}

func TestValidate_DoesNotMutateCard(t *testing.T) {
	s := schema.Default()
	c, err := card.Load(cardsDir+"partial.yaml", s)
	require.NoError(t, err)
	before := c.Clone()
	Validate(c, s, ModeStrict)
	assert.Equal(t, before, c)
}

func TestValidate_Deterministic(t *testing.T) {
	s := schema.Default()
	c, err := card.Load(cardsDir+"partial.yaml", s)
	require.NoError(t, err)

	a, err := json.Marshal(Validate(c, s, ModeLenient))
	require.NoError(t, err)
	b, err := json.Marshal(Validate(c.Clone(), s, ModeLenient))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestDigest_IndependentOfSourceKeyOrder(t *testing.T) {
	s := schema.Default()
	a, err := card.Parse([]byte("limitations:\n  known_limitations: [x]\n  failure_modes: [y]\nmetadata:\n  model_name: m\n"), s)
	require.NoError(t, err)
	b, err := card.Parse([]byte("metadata:\n  model_name: m\nlimitations:\n  failure_modes: [y]\n  known_limitations: [x]\n"), s)
	require.NoError(t, err)

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
	assert.Len(t, da, 64)

	b.Set("limitations", "failure_modes", []any{"z"})
	dc, err := Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)
}

func TestPresent(t *testing.T) {
	text := schema.Field{ID: "t", Type: schema.TypeText}
	list := schema.Field{ID: "l", Type: schema.TypeList}
	table := schema.Field{ID: "tb", Type: schema.TypeTable}

	cases := []struct {
		name string
		f    schema.Field
		v    any
		want bool
	}{
		{"nil text", text, nil, false},
		{"blank text", text, " \t", false},
		{"text", text, "x", true},
		{"number text", text, json.Number("3"), true},
		{"bool text", text, false, true},
		{"empty list", list, []any{}, false},
		{"list", list, []any{"a"}, true},
		{"scalar list", list, "a", true},
		{"blank scalar list", list, "  ", false},
		{"empty table", table, []any{}, false},
		{"table of empty rows", table, []any{map[string]any{"a": ""}}, false},
		{"table", table, []any{map[string]any{"a": "b"}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Present(c.f, c.v))
		})
	}
}

func TestComputeScore(t *testing.T) {
	assert.Equal(t, 100, ComputeScore(0, 0))
	assert.Equal(t, 0, ComputeScore(0, 4))
	assert.Equal(t, 50, ComputeScore(2, 4))
	assert.Equal(t, 67, ComputeScore(2, 3))
	assert.Equal(t, 100, ComputeScore(5, 4))
}
