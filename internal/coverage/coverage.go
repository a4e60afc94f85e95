// Package coverage scores a model card against a schema. Validation is a
// pure function: it never fails and never mutates its inputs; absence of
// data is reported through the returned Report.
package coverage

import (
	"fmt"
	"math"
	"strings"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// Mode is the validation policy.
type Mode string

const (
	// ModeLenient fails only on required-field gaps.
	ModeLenient Mode = "lenient"
	// ModeStrict additionally fails on optional-field gaps.
	ModeStrict Mode = "strict"
)

// ParseMode converts a string to a Mode constant.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeLenient:
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("coverage: unknown mode %q", s)
}

// Status is the completeness of one section.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusMissing  Status = "missing"
)

// FieldResult records presence of one schema field.
type FieldResult struct {
	ID       string           `json:"id"`
	Label    string           `json:"label"`
	Type     schema.FieldType `json:"type"`
	Required bool             `json:"required"`
	Present  bool             `json:"present"`
}

// SectionResult is the status of one schema section.
type SectionResult struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Category        schema.Category `json:"category"`
	Required        bool            `json:"required"`
	Status          Status          `json:"status"`
	RequiredPresent int             `json:"required_present"`
	RequiredTotal   int             `json:"required_total"`
	OptionalPresent int             `json:"optional_present"`
	OptionalTotal   int             `json:"optional_total"`
	Fields          []FieldResult   `json:"fields"`
}

// CategoryCoverage is the required-field coverage of one NIST category.
type CategoryCoverage struct {
	Category        schema.Category `json:"category"`
	RequiredPresent int             `json:"required_present"`
	RequiredTotal   int             `json:"required_total"`
	Ratio           float64         `json:"ratio"`
}

// Gap describes one absent field.
type Gap struct {
	Section     string `json:"section"`
	Field       string `json:"field"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// Report is the result of validating a card. It is never mutated after
// Validate returns.
type Report struct {
	SchemaVersion string             `json:"schema_version"`
	Mode          Mode               `json:"mode"`
	CardDigest    string             `json:"card_digest,omitempty"`
	Pass          bool               `json:"pass"`
	Score         int                `json:"score"`
	Sections      []SectionResult    `json:"sections"`
	Categories    []CategoryCoverage `json:"categories"`
	Gaps          []Gap              `json:"gaps"`
}

// Section returns the result for section id.
func (r *Report) Section(id string) (SectionResult, bool) {
	for _, s := range r.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return SectionResult{}, false
}

// Category returns the coverage entry for c.
func (r *Report) Category(c schema.Category) (CategoryCoverage, bool) {
	for _, cc := range r.Categories {
		if cc.Category == c {
			return cc, true
		}
	}
	return CategoryCoverage{}, false
}

// HasGap reports whether section.field is listed as a gap.
func (r *Report) HasGap(section, field string) bool {
	for _, g := range r.Gaps {
		if g.Section == section && g.Field == field {
			return true
		}
	}
	return false
}

// CountGaps returns the number of required and optional gaps.
func (r *Report) CountGaps() (required, optional int) {
	for _, g := range r.Gaps {
		if g.Required {
			required++
		} else {
			optional++
		}
	}
	return
}

// Validate scores c against s under mode. Any mode other than ModeStrict is
// treated as lenient. A nil card is scored as an empty card.
func Validate(c *card.Card, s *schema.Schema, mode Mode) *Report {
	if mode != ModeStrict {
		mode = ModeLenient
	}
	if c == nil {
		c = card.New(s)
	}

	r := &Report{
		SchemaVersion: s.Version(),
		Mode:          mode,
		Pass:          true,
		Sections:      []SectionResult{},
		Categories:    []CategoryCoverage{},
		Gaps:          []Gap{},
	}
	if d, err := Digest(c); err == nil {
		r.CardDigest = d
	}

	byCategory := make(map[schema.Category]*CategoryCoverage)
	for _, cat := range schema.Categories() {
		byCategory[cat] = &CategoryCoverage{Category: cat}
	}

	var reqPresent, reqTotal int
	for _, sec := range s.ListSections() {
		res := scoreSection(c, sec, mode)
		r.Sections = append(r.Sections, res)

		cc := byCategory[sec.Category]
		cc.RequiredPresent += res.RequiredPresent
		cc.RequiredTotal += res.RequiredTotal
		reqPresent += res.RequiredPresent
		reqTotal += res.RequiredTotal

		for _, f := range res.Fields {
			if !f.Present {
				r.Gaps = append(r.Gaps, newGap(sec, f))
			}
		}
		if fails(res, mode) {
			r.Pass = false
		}
	}

	for _, cat := range schema.Categories() {
		cc := byCategory[cat]
		cc.Ratio = Ratio(cc.RequiredPresent, cc.RequiredTotal)
		r.Categories = append(r.Categories, *cc)
	}
	r.Score = ComputeScore(reqPresent, reqTotal)
	return r
}

func scoreSection(c *card.Card, sec schema.Section, mode Mode) SectionResult {
	res := SectionResult{
		ID:       sec.ID,
		Title:    sec.Title,
		Category: sec.Category,
		Required: sec.Required,
		Fields:   make([]FieldResult, 0, len(sec.Fields)),
	}
	values := c.Sections[sec.ID]
	for _, f := range sec.Fields {
		present := Present(f, values[f.ID])
		res.Fields = append(res.Fields, FieldResult{
			ID:       f.ID,
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
			Present:  present,
		})
		if f.Required {
			res.RequiredTotal++
			if present {
				res.RequiredPresent++
			}
		} else {
			res.OptionalTotal++
			if present {
				res.OptionalPresent++
			}
		}
	}
	res.Status = sectionStatus(res, mode)
	return res
}

// sectionStatus classifies a section:
//   - missing: it has required fields and none is present;
//   - complete: every required field is present (strict: every field);
//   - partial: anything else.
func sectionStatus(r SectionResult, mode Mode) Status {
	if r.RequiredTotal > 0 && r.RequiredPresent == 0 {
		return StatusMissing
	}
	if r.RequiredPresent < r.RequiredTotal {
		return StatusPartial
	}
	if mode == ModeStrict && r.OptionalPresent < r.OptionalTotal {
		return StatusPartial
	}
	return StatusComplete
}

// fails reports whether a section result causes the overall verdict to
// fail. Strict mode fails on any incomplete section. Lenient mode fails on
// any required-field gap, so a missing section always fails.
func fails(r SectionResult, mode Mode) bool {
	if mode == ModeStrict {
		return r.Status != StatusComplete
	}
	return r.RequiredPresent < r.RequiredTotal
}

func newGap(sec schema.Section, f FieldResult) Gap {
	kind := "optional"
	if f.Required {
		kind = "required"
	}
	where := ""
	if !sec.Required {
		where = " (optional section)"
	}
	return Gap{
		Section:  sec.ID,
		Field:    f.ID,
		Required: f.Required,
		Description: fmt.Sprintf("%s.%s: %s field %q in %s%s is not provided",
			sec.ID, f.ID, kind, f.Label, sec.Title, where),
	}
}

// Ratio returns present/total in [0,1]. A total of zero is full coverage.
func Ratio(present, total int) float64 {
	if total <= 0 {
		return 1
	}
	r := float64(present) / float64(total)
	return math.Max(0, math.Min(1, r))
}

// ComputeScore returns the percentage of required fields present, rounded
// and clamped to [0, 100].
func ComputeScore(present, total int) int {
	score := int(math.Round(100 * Ratio(present, total)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
