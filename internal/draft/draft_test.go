package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

const cardsDir = "../../testdata/cards/"

// answer returns a well-formed suggestion for any field type.
func answer(f schema.Field) string {
	switch f.Type {
	case schema.TypeList:
		return "- drafted item\n- another"
	case schema.TypeTable:
		return "```json\n[{\"" + firstColumn(f) + "\": \"drafted\"}]\n```"
	case schema.TypeDate:
		return "2026-02-01"
	default:
		return "drafted " + f.Label
	}
}

func firstColumn(f schema.Field) string {
	if len(f.Columns) > 0 {
		return f.Columns[0]
	}
	return "value"
}

func loadPartial(t *testing.T) (*card.Card, *schema.Schema, *coverage.Report) {
	t.Helper()
	s := schema.Default()
	c, err := card.Load(cardsDir+"partial.yaml", s)
	require.NoError(t, err)
	return c, s, coverage.Validate(c, s, coverage.ModeLenient)
}

func TestDraft_NeverOverwritesPresentFields(t *testing.T) {
	c, s, report := loadPartial(t)
	var mu sync.Mutex
	var asked []string
	d := &Drafter{Schema: s, Suggester: SuggesterFunc(func(_ context.Context, req Request) (string, error) {
		mu.Lock()
		asked = append(asked, req.Section.ID+"."+req.Field.ID)
		mu.Unlock()
		return answer(req.Field), nil
	})}

	res := d.Draft(context.Background(), c, report, RepoContext{Path: "."})
	require.Empty(t, res.Warnings)

	assert.NotContains(t, asked, "model_details.description")
	assert.NotContains(t, asked, "evaluation.metrics")
	desc, _ := res.Card.Get("model_details", "description")
	assert.Equal(t, "Routes incoming support tickets to the right queue.", desc)

	// Every gap got filled and the card now passes in strict mode.
	assert.Len(t, res.Drafted, len(report.Gaps))
	assert.True(t, coverage.Validate(res.Card, s, coverage.ModeStrict).Pass)
}

func TestDraft_FailureLeavesGap(t *testing.T) {
	c, s, report := loadPartial(t)
	boom := errors.New("quota exceeded")
	d := &Drafter{Schema: s, Suggester: SuggesterFunc(func(_ context.Context, req Request) (string, error) {
		if req.Section.ID == "governance" && req.Field.ID == "risk_tolerance" {
			return "", boom
		}
		return answer(req.Field), nil
	})}

	res := d.Draft(context.Background(), c, report, RepoContext{})
	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, "governance", w.Section)
	assert.Equal(t, "risk_tolerance", w.Field)
	assert.ErrorIs(t, w, boom)

	after := coverage.Validate(res.Card, s, coverage.ModeLenient)
	assert.True(t, after.HasGap("governance", "risk_tolerance"))
	v, _ := res.Card.Get("governance", "risk_tolerance")
	assert.Equal(t, "   ", v)
}

func TestDraft_NoopWarnsPerField(t *testing.T) {
	c, s, report := loadPartial(t)
	d := &Drafter{Schema: s, Suggester: Noop{}}

	res := d.Draft(context.Background(), c, report, RepoContext{})
	assert.Len(t, res.Warnings, len(report.Gaps))
	for _, w := range res.Warnings {
		assert.ErrorIs(t, w, ErrUnavailable)
	}
	assert.Empty(t, res.Drafted)
	assert.Equal(t, c, res.Card)
}

func TestDraft_NilSuggesterDraftsNothing(t *testing.T) {
	c, s, report := loadPartial(t)
	res := (&Drafter{Schema: s}).Draft(context.Background(), c, report, RepoContext{})
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Drafted)
	assert.Equal(t, c, res.Card)
	assert.NotSame(t, c, res.Card)
}

func TestDraft_DoesNotMutateInput(t *testing.T) {
	c, s, report := loadPartial(t)
	before := c.Clone()
	d := &Drafter{Schema: s, Suggester: SuggesterFunc(func(_ context.Context, req Request) (string, error) {
		return answer(req.Field), nil
	})}
	d.Draft(context.Background(), c, report, RepoContext{})
	assert.Equal(t, before, c)
}

func TestDraft_TimeoutIsAFailure(t *testing.T) {
	s := schema.Default()
	c := card.New(s)
	report := coverage.Validate(c, s, coverage.ModeLenient)
	release := make(chan struct{})
	defer close(release)

	d := &Drafter{
		Schema:       s,
		Timeout:      20 * time.Millisecond,
		RequiredOnly: true,
		Suggester: SuggesterFunc(func(_ context.Context, req Request) (string, error) {
			if req.Field.ID == "description" {
				<-release // ignores its context
			}
			return answer(req.Field), nil
		}),
	}

	res := d.Draft(context.Background(), c, report, RepoContext{})
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "description", res.Warnings[0].Field)
	assert.ErrorIs(t, res.Warnings[0], context.DeadlineExceeded)
	assert.True(t, coverage.Validate(res.Card, s, coverage.ModeLenient).HasGap("model_details", "description"))
}

func TestDraft_MergeOrderFollowsGaps(t *testing.T) {
	s := schema.Default()
	c := card.New(s)
	report := coverage.Validate(c, s, coverage.ModeLenient)

	d := &Drafter{
		Schema:      s,
		Concurrency: 8,
		Suggester: SuggesterFunc(func(_ context.Context, req Request) (string, error) {
			time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
			return answer(req.Field), nil
		}),
	}
	res := d.Draft(context.Background(), c, report, RepoContext{})

	var want []string
	for _, g := range report.Gaps {
		want = append(want, g.Section+"."+g.Field)
	}
	assert.Equal(t, want, res.Drafted)
}

func TestDraft_ConcurrencyBounded(t *testing.T) {
	s := schema.Default()
	c := card.New(s)
	report := coverage.Validate(c, s, coverage.ModeLenient)

	var inFlight, peak int32
	d := &Drafter{
		Schema:      s,
		Concurrency: 2,
		Suggester: SuggesterFunc(func(_ context.Context, req Request) (string, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return answer(req.Field), nil
		}),
	}
	d.Draft(context.Background(), c, report, RepoContext{})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestDraft_RequestCarriesContext(t *testing.T) {
	c, s, report := loadPartial(t)
	var got Request
	d := &Drafter{Schema: s, Suggester: SuggesterFunc(func(_ context.Context, req Request) (string, error) {
		if req.Section.ID == "model_details" && req.Field.ID == "model_type" {
			got = req
		}
		return answer(req.Field), nil
	}), Concurrency: 1}

	d.Draft(context.Background(), c, report, RepoContext{Path: "/repo", Summary: "Languages: Python"})
	assert.Equal(t, "/repo", got.RepoPath)
	assert.Equal(t, "Languages: Python", got.RepoSummary)
	assert.Equal(t, "Support Ticket Router", got.ModelName)
	assert.Equal(t, map[string]any{
		"description": "Routes incoming support tickets to the right queue.",
	}, got.SectionContext)
}

func TestDraft_MalformedTableIsWarning(t *testing.T) {
	s := schema.Default()
	c := card.New(s)
	report := coverage.Validate(c, s, coverage.ModeLenient)
	d := &Drafter{Schema: s, RequiredOnly: true, Suggester: SuggesterFunc(func(_ context.Context, req Request) (string, error) {
		if req.Field.Type == schema.TypeTable {
			return "not json at all", nil
		}
		return answer(req.Field), nil
	})}

	res := d.Draft(context.Background(), c, report, RepoContext{})
	var fields []string
	for _, w := range res.Warnings {
		fields = append(fields, fmt.Sprintf("%s.%s", w.Section, w.Field))
	}
	assert.Equal(t, []string{
		"governance.accountable_parties",
		"training_data.sources",
		"evaluation.metrics",
		"risk_management.identified_risks",
	}, fields)
}

func TestParseSuggestion(t *testing.T) {
	text := schema.Field{Type: schema.TypeText}
	list := schema.Field{Type: schema.TypeList}
	table := schema.Field{Type: schema.TypeTable}
	date := schema.Field{Type: schema.TypeDate}

	cases := []struct {
		name string
		f    schema.Field
		raw  string
		want any
	}{
		{"text trimmed", text, "  A classifier.\n", "A classifier."},
		{"fenced text", text, "```\nA classifier.\n```", "A classifier."},
		{"bullets", list, "- one\n* two\n\n3. three\n4) four", []any{"one", "two", "three", "four"}},
		{"plain lines", list, "one\ntwo", []any{"one", "two"}},
		{"bare markers dropped", list, "- one\n-\n- two\n*", []any{"one", "two"}},
		{"negative number kept", list, "-5% churn", []any{"-5% churn"}},
		{"json list", list, `["a", " ", "b"]`, []any{"a", "b"}},
		{"table", table, "```json\n[{\"metric\": \"AUC\", \"value\": 0.9}]\n```",
			[]any{map[string]any{"metric": "AUC", "value": json.Number("0.9")}}},
		{"single row", table, `{"risk": "drift"}`, []any{map[string]any{"risk": "drift"}}},
		{"bad escape repaired", table, `[{"pattern": "\d+"}]`, []any{map[string]any{"pattern": `\d+`}}},
		{"date", date, "2026-03-04", "2026-03-04"},
		{"quoted date", date, `"2026-03-04"`, "2026-03-04"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseSuggestion(c.f, c.raw)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseSuggestion_Errors(t *testing.T) {
	cases := []struct {
		name string
		f    schema.Field
		raw  string
	}{
		{"empty", schema.Field{Type: schema.TypeText}, "   "},
		{"empty fence", schema.Field{Type: schema.TypeText}, "```\n```"},
		{"table not json", schema.Field{Type: schema.TypeTable}, "a | b"},
		{"table of scalars", schema.Field{Type: schema.TypeTable}, `["a"]`},
		{"empty table", schema.Field{Type: schema.TypeTable}, `[{}]`},
		{"bad date", schema.Field{Type: schema.TypeDate}, "next week"},
		{"blank list", schema.Field{Type: schema.TypeList}, "-  \n*  "},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseSuggestion(c.f, c.raw)
			assert.Error(t, err)
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "x", StripFences("```json\nx\n```"))
	assert.Equal(t, "x", StripFences("~~~\nx\n~~~"))
	assert.Equal(t, "x", StripFences("```yaml\nx"))
	assert.Equal(t, "plain", StripFences("  plain  "))
}
