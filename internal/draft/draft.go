// Package draft pre-fills card gaps with suggestions from an external
// text-generation capability. Drafting is best effort: every failure is
// downgraded to a warning on the Result, and a card is always returned.
package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// ErrUnavailable is reported when no drafting backend is configured.
var ErrUnavailable = errors.New("draft: suggester unavailable")

// ErrEmptySuggestion is reported when a suggestion carries no usable value.
var ErrEmptySuggestion = errors.New("draft: empty suggestion")

const (
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4
)

// Request is one field to draft.
type Request struct {
	RepoPath    string
	RepoSummary string
	ModelName   string
	Section     schema.Section
	Field       schema.Field
	// SectionContext holds the fields of the section that already have values.
	SectionContext map[string]any
}

// Suggester produces raw suggestion text for one field.
type Suggester interface {
	Suggest(ctx context.Context, req Request) (string, error)
}

// SuggesterFunc adapts a function to Suggester.
type SuggesterFunc func(ctx context.Context, req Request) (string, error)

// Suggest calls f.
func (f SuggesterFunc) Suggest(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Noop is the suggester used when no backend is configured. Every request
// fails with ErrUnavailable.
type Noop struct{}

// Suggest returns ErrUnavailable.
func (Noop) Suggest(context.Context, Request) (string, error) {
	return "", ErrUnavailable
}

// AdapterFailure records a field that could not be drafted.
type AdapterFailure struct {
	Section string
	Field   string
	Err     error
}

func (e *AdapterFailure) Error() string {
	return fmt.Sprintf("draft: %s.%s: %v", e.Section, e.Field, e.Err)
}

func (e *AdapterFailure) Unwrap() error { return e.Err }

// RepoContext is the repository information passed to the suggester.
type RepoContext struct {
	Path    string
	Summary string
}

// Result is the outcome of Draft.
type Result struct {
	// Card is a copy of the input with drafted values merged in.
	Card *card.Card
	// Drafted lists "section.field" for every field filled, in schema order.
	Drafted []string
	// Warnings lists fields that could not be drafted, in schema order.
	Warnings []*AdapterFailure
}

// Drafter fills gaps using a Suggester.
type Drafter struct {
	Suggester Suggester
	// Schema defaults to schema.Default().
	Schema *schema.Schema
	// Timeout bounds each field request. Zero means DefaultTimeout.
	Timeout time.Duration
	// Concurrency bounds in-flight requests. Zero means DefaultConcurrency.
	Concurrency int
	// RatePerSecond throttles request starts. Zero disables throttling.
	RatePerSecond float64
	// RequiredOnly restricts drafting to required-field gaps.
	RequiredOnly bool
	Logger       *slog.Logger
}

type candidate struct {
	section schema.Section
	field   schema.Field
}

type outcome struct {
	value any
	err   error
}

// Draft requests suggestions for the gaps listed in report and merges the
// successful ones into a clone of c. Fields that already have a value are
// never candidates. c is not modified.
func (d *Drafter) Draft(ctx context.Context, c *card.Card, report *coverage.Report, repo RepoContext) *Result {
	s := d.Schema
	if s == nil {
		s = schema.Default()
	}
	if c == nil {
		c = card.New(s)
	}
	res := &Result{Card: c.Clone()}
	if d.Suggester == nil || report == nil {
		return res
	}

	cands := d.candidates(res.Card, s, report)
	if len(cands) == 0 {
		return res
	}
	log := d.logger()
	log.Debug("drafting gaps", "fields", len(cands), "concurrency", d.concurrency())

	var limiter *rate.Limiter
	if d.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(d.RatePerSecond), 1)
	}

	results := make([]outcome, len(cands))
	var g errgroup.Group
	g.SetLimit(d.concurrency())
	for i, cand := range cands {
		req := Request{
			RepoPath:       repo.Path,
			RepoSummary:    repo.Summary,
			ModelName:      res.Card.Metadata.ModelName,
			Section:        cand.section,
			Field:          cand.field,
			SectionContext: sectionContext(res.Card, cand.section),
		}
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					results[i] = outcome{err: err}
					return nil
				}
			}
			results[i] = d.draftOne(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	for i, cand := range cands {
		key := cand.section.ID + "." + cand.field.ID
		if err := results[i].err; err != nil {
			log.Warn("draft failed", "field", key, "error", err)
			res.Warnings = append(res.Warnings, &AdapterFailure{
				Section: cand.section.ID,
				Field:   cand.field.ID,
				Err:     err,
			})
			continue
		}
		res.Card.Set(cand.section.ID, cand.field.ID, results[i].value)
		res.Drafted = append(res.Drafted, key)
		log.Debug("drafted", "field", key)
	}
	return res
}

// candidates returns the report gaps that are still empty in c, in report
// order.
func (d *Drafter) candidates(c *card.Card, s *schema.Schema, report *coverage.Report) []candidate {
	var out []candidate
	for _, g := range report.Gaps {
		if d.RequiredOnly && !g.Required {
			continue
		}
		sec, err := s.FindSection(g.Section)
		if err != nil {
			continue
		}
		f, ok := sec.FindField(g.Field)
		if !ok {
			continue
		}
		if v, _ := c.Get(sec.ID, f.ID); coverage.Present(f, v) {
			continue
		}
		out = append(out, candidate{section: sec, field: f})
	}
	return out
}

func (d *Drafter) draftOne(ctx context.Context, req Request) outcome {
	ctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()

	text, err := d.suggest(ctx, req)
	if err != nil {
		return outcome{err: err}
	}
	v, err := ParseSuggestion(req.Field, text)
	if err != nil {
		return outcome{err: err}
	}
	if !coverage.Present(req.Field, v) {
		return outcome{err: ErrEmptySuggestion}
	}
	return outcome{value: v}
}

// suggest calls the suggester and gives up when ctx is done, even if the
// suggester ignores cancellation.
func (d *Drafter) suggest(ctx context.Context, req Request) (string, error) {
	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		text, err := d.Suggester.Suggest(ctx, req)
		ch <- reply{text, err}
	}()
	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func sectionContext(c *card.Card, sec schema.Section) map[string]any {
	out := make(map[string]any)
	for _, f := range sec.Fields {
		if v, _ := c.Get(sec.ID, f.ID); coverage.Present(f, v) {
			out[f.ID] = v
		}
	}
	return out
}

func (d *Drafter) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

func (d *Drafter) concurrency() int {
	if d.Concurrency > 0 {
		return d.Concurrency
	}
	return DefaultConcurrency
}

func (d *Drafter) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
