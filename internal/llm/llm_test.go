package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/draft"
	"github.com/KoryJCampbell/modelcard/internal/profile"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// mockProvider is a test double for Provider.
type mockProvider struct {
	mu        sync.Mutex
	responses []string // returned in order; last entry is repeated if list exhausted
	err       error
	callCount int
	prompts   []string // user prompts received
	systems   []string
}

func (m *mockProvider) Complete(_ context.Context, system, user string, _ int, _ float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systems = append(m.systems, system)
	m.prompts = append(m.prompts, user)
	if m.err != nil {
		m.callCount++
		return "", m.err
	}
	if len(m.responses) == 0 {
		m.callCount++
		return "", fmt.Errorf("mockProvider: no responses configured")
	}
	idx := m.callCount
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.callCount++
	return m.responses[idx], nil
}

// installMock replaces NewProvider with a factory returning mp, and restores
// the original after the test.
func installMock(t *testing.T, mp *mockProvider) {
	t.Helper()
	orig := NewProvider
	NewProvider = func(_, _ string) (Provider, error) { return mp, nil }
	t.Cleanup(func() { NewProvider = orig })
}

func newTestSuggester(t *testing.T, mp *mockProvider) *Suggester {
	t.Helper()
	installMock(t, mp)
	s, err := NewSuggester(Options{Model: "test-model", MaxTokens: 100})
	if err != nil {
		t.Fatalf("NewSuggester: %v", err)
	}
	return s
}

// fieldRequest builds a request for sectionID.fieldID of the default schema.
func fieldRequest(t *testing.T, sectionID, fieldID string) draft.Request {
	t.Helper()
	sec, err := schema.Default().FindSection(sectionID)
	if err != nil {
		t.Fatalf("FindSection(%q): %v", sectionID, err)
	}
	f, ok := sec.FindField(fieldID)
	if !ok {
		t.Fatalf("field %s.%s not found", sectionID, fieldID)
	}
	return draft.Request{Section: sec, Field: f, ModelName: "Churn Model"}
}

func TestSuggest_ValidResponse(t *testing.T) {
	mp := &mockProvider{responses: []string{"  A gradient-boosted classifier.  "}}
	s := newTestSuggester(t, mp)

	got, err := s.Suggest(context.Background(), fieldRequest(t, "model_details", "model_type"))
	if err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	if got != "A gradient-boosted classifier." {
		t.Errorf("Suggest = %q", got)
	}
	if mp.callCount != 1 {
		t.Errorf("expected 1 provider call, got %d", mp.callCount)
	}
}

func TestSuggest_RepairTriggered(t *testing.T) {
	// First response is not a JSON table; second is.
	mp := &mockProvider{responses: []string{
		"The owner is the risk team.",
		`[{"role":"Owner","name":"Risk team","contact":"risk@example.com"}]`,
	}}
	s := newTestSuggester(t, mp)

	got, err := s.Suggest(context.Background(), fieldRequest(t, "governance", "accountable_parties"))
	if err != nil {
		t.Fatalf("expected repair to succeed, got error: %v", err)
	}
	if mp.callCount != 2 {
		t.Errorf("expected 2 provider calls (initial + repair), got %d", mp.callCount)
	}
	if !strings.Contains(got, "Risk team") {
		t.Errorf("unexpected answer %q", got)
	}
	repair := mp.prompts[1]
	if !strings.Contains(repair, "The owner is the risk team.") {
		t.Error("repair prompt does not include the previous response")
	}
	if !strings.Contains(repair, "could not be used") {
		t.Error("repair prompt does not include the parse error")
	}
}

func TestSuggest_BothResponsesInvalid(t *testing.T) {
	mp := &mockProvider{responses: []string{"next tuesday"}}
	s := newTestSuggester(t, mp)

	_, err := s.Suggest(context.Background(), fieldRequest(t, "governance", "last_reviewed"))
	if err == nil {
		t.Fatal("expected error after failed repair, got nil")
	}
	if mp.callCount != 2 {
		t.Errorf("expected 2 provider calls, got %d", mp.callCount)
	}
}

func TestSuggest_EmptyResponse(t *testing.T) {
	mp := &mockProvider{responses: []string{"   \n"}}
	s := newTestSuggester(t, mp)

	_, err := s.Suggest(context.Background(), fieldRequest(t, "model_details", "description"))
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestSuggest_ProviderError(t *testing.T) {
	boom := errors.New("rate limited")
	mp := &mockProvider{err: boom}
	s := newTestSuggester(t, mp)

	_, err := s.Suggest(context.Background(), fieldRequest(t, "model_details", "description"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "model_details.description") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestNewSuggester_Defaults(t *testing.T) {
	var gotProvider, gotModel string
	orig := NewProvider
	NewProvider = func(p, m string) (Provider, error) {
		gotProvider, gotModel = p, m
		return &mockProvider{}, nil
	}
	t.Cleanup(func() { NewProvider = orig })

	s, err := NewSuggester(Options{})
	if err != nil {
		t.Fatalf("NewSuggester: %v", err)
	}
	if gotProvider != DefaultProvider || gotModel != DefaultModel(DefaultProvider) {
		t.Errorf("provider/model = %q/%q", gotProvider, gotModel)
	}
	if s.opts.MaxTokens != DefaultMaxTokens || s.opts.RepoBudget != DefaultRepoBudget {
		t.Errorf("defaults not applied: %+v", s.opts)
	}
	if s.opts.Profile.Name != profile.DefaultName {
		t.Errorf("profile = %q, want %q", s.opts.Profile.Name, profile.DefaultName)
	}
}

func TestNewSuggester_ProviderError(t *testing.T) {
	orig := NewProvider
	NewProvider = func(_, _ string) (Provider, error) { return nil, errors.New("no key") }
	t.Cleanup(func() { NewProvider = orig })

	if _, err := NewSuggester(Options{}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestDefaultNewProvider_Unknown(t *testing.T) {
	if _, err := defaultNewProvider("bogus", "m"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestDefaultNewProvider_MissingKeys(t *testing.T) {
	cases := []struct {
		provider string
		env      string
	}{
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"google", "GOOGLE_API_KEY"},
	}
	for _, c := range cases {
		t.Setenv(c.env, "")
		_, err := defaultNewProvider(c.provider, "m")
		if err == nil || !strings.Contains(err.Error(), c.env) {
			t.Errorf("%s: expected error naming %s, got %v", c.provider, c.env, err)
		}
	}
}

// The Suggester plugs into the Drafter and its answers are merged.
func TestSuggester_WithDrafter(t *testing.T) {
	mp := &mockProvider{responses: []string{"- Ticket routing\n- Queue balancing"}}
	s := newTestSuggester(t, mp)

	sch := schema.MustNew("1.0.0", []schema.Section{{
		ID: "intended_use", Title: "Intended Use", Category: schema.CategoryMap, Required: true,
		Fields: []schema.Field{{ID: "primary_uses", Label: "Primary Uses", Type: schema.TypeList, Required: true}},
	}})
	c := card.New(sch)
	report := coverage.Validate(c, sch, coverage.ModeLenient)

	d := &draft.Drafter{Suggester: s, Schema: sch}
	res := d.Draft(context.Background(), c, report, draft.RepoContext{Path: "/repo", Summary: "Languages: Python (3 files)"})
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	got, _ := res.Card.Get("intended_use", "primary_uses")
	want := []any{"Ticket routing", "Queue balancing"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("primary_uses = %v, want %v", got, want)
	}
	if !strings.Contains(mp.prompts[0], "Languages: Python") {
		t.Error("prompt does not carry the repository summary")
	}
}
