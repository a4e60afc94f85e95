// Package llm drafts model-card fields with a hosted language model. It
// implements draft.Suggester over Anthropic, OpenAI and Google backends,
// with prompt construction and a single repair attempt for unparseable
// answers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/KoryJCampbell/modelcard/internal/draft"
	"github.com/KoryJCampbell/modelcard/internal/profile"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call site.
// Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

const (
	DefaultProvider    = "anthropic"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.2
	// DefaultRepoBudget caps the repository summary embedded in each prompt,
	// in bytes.
	DefaultRepoBudget = 6000
)

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "gpt-4o"
	case "google":
		return "gemini-1.5-pro"
	default:
		return "claude-sonnet-4-6"
	}
}

// Options configures a Suggester.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Profile     profile.Profile
	RepoBudget  int
	// Debug logs full prompts at debug level.
	Debug  bool
	Logger *slog.Logger
}

// Suggester implements draft.Suggester with a Provider.
type Suggester struct {
	provider Provider
	opts     Options
}

var _ draft.Suggester = (*Suggester)(nil)

// NewSuggester creates the configured provider and fills option defaults.
func NewSuggester(opts Options) (*Suggester, error) {
	if opts.Provider == "" {
		opts.Provider = DefaultProvider
	}
	if opts.Model == "" {
		opts.Model = DefaultModel(opts.Provider)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.RepoBudget <= 0 {
		opts.RepoBudget = DefaultRepoBudget
	}
	if opts.Profile.Name == "" {
		p, err := profile.Load(profile.DefaultName)
		if err != nil {
			return nil, err
		}
		opts.Profile = p
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	p, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("llm: create provider: %w", err)
	}
	return &Suggester{provider: p, opts: opts}, nil
}

// Suggest asks the model for one field value. When the answer does not parse
// for the field's type, the model gets one repair attempt that includes its
// previous answer and the parse error.
func (s *Suggester) Suggest(ctx context.Context, req draft.Request) (string, error) {
	key := req.Section.ID + "." + req.Field.ID
	sysPrompt := buildSystemPrompt(s.opts.Profile, req)
	userPrompt := buildUserPrompt(req, s.opts.RepoBudget)

	if s.opts.Debug {
		s.opts.Logger.Debug("llm prompt", "field", key, "system", sysPrompt, "user", userPrompt)
	}

	raw, err := s.complete(ctx, sysPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("llm: complete %s: %w", key, err)
	}
	_, perr := draft.ParseSuggestion(req.Field, raw)
	if perr == nil {
		return raw, nil
	}

	s.opts.Logger.Debug("llm repair", "field", key, "error", perr)
	raw2, err := s.complete(ctx, sysPrompt, buildRepairPrompt(userPrompt, raw, perr))
	if err != nil {
		return "", fmt.Errorf("llm: repair complete %s: %w", key, err)
	}
	if _, err := draft.ParseSuggestion(req.Field, raw2); err != nil {
		return "", fmt.Errorf("llm: invalid answer for %s after repair: %w", key, err)
	}
	return raw2, nil
}

func (s *Suggester) complete(ctx context.Context, sysPrompt, userPrompt string) (string, error) {
	raw, err := s.provider.Complete(ctx, sysPrompt, userPrompt, s.opts.MaxTokens, s.opts.Temperature)
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	case "google":
		return newGoogleProvider(model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
}

// ── Anthropic provider ───────────────────────────────────────────────────────

// anthropicProvider implements Provider using the Anthropic SDK.
// anthropic.Client is a value type; the SDK's NewClient returns it by value.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(model string) (Provider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY environment variable not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{client: client, model: model}, nil
}

func (p *anthropicProvider) Complete(
	ctx context.Context,
	systemPrompt, userPrompt string,
	maxTokens int,
	temperature float64,
) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		// "text" is the only content block type carrying assistant output.
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	return strings.Join(parts, ""), nil
}
