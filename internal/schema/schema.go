// Package schema declares the canonical model-card structure: which sections a
// compliant card contains, the fields inside each section, and the NIST AI RMF
// category every section demonstrates. It is pure data; policy questions such
// as "is this field required" are answered here so scoring stays generic.
package schema

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ErrNotFound is returned by lookups for an unknown section or field.
var ErrNotFound = errors.New("schema: not found")

// Category is one of the four NIST AI RMF functions.
type Category string

const (
	CategoryGovern  Category = "GOVERN"
	CategoryMap     Category = "MAP"
	CategoryMeasure Category = "MEASURE"
	CategoryManage  Category = "MANAGE"
)

// Categories returns the fixed category set in framework order.
func Categories() []Category {
	return []Category{CategoryGovern, CategoryMap, CategoryMeasure, CategoryManage}
}

// Title returns the display form of the category ("Govern").
func (c Category) Title() string {
	switch c {
	case CategoryGovern:
		return "Govern"
	case CategoryMap:
		return "Map"
	case CategoryMeasure:
		return "Measure"
	case CategoryManage:
		return "Manage"
	default:
		return string(c)
	}
}

// Valid reports whether c is one of the four framework categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryGovern, CategoryMap, CategoryMeasure, CategoryManage:
		return true
	}
	return false
}

// FieldType is the semantic type of a field value.
type FieldType string

const (
	TypeText  FieldType = "text"
	TypeList  FieldType = "list"
	TypeTable FieldType = "table"
	TypeDate  FieldType = "date"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeList, TypeTable, TypeDate:
		return true
	}
	return false
}

// Field describes one entry of a section.
type Field struct {
	ID          string
	Label       string
	Type        FieldType
	Required    bool
	Description string
	// Columns lists the expected row keys of a table field, in display order.
	Columns []string
}

// Section groups fields under one NIST AI RMF category.
type Section struct {
	ID          string
	Title       string
	Category    Category
	Required    bool
	Description string
	Fields      []Field
}

// FindField returns the field with the given identifier.
func (s Section) FindField(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields returns the number of required fields in the section.
func (s Section) RequiredFields() int {
	n := 0
	for _, f := range s.Fields {
		if f.Required {
			n++
		}
	}
	return n
}

// Schema is an immutable, ordered collection of sections. Safe for
// concurrent read-only use.
type Schema struct {
	version  *semver.Version
	sections []Section
	index    map[string]int
}

// New builds a schema and checks its invariants: a semantic version, at
// least one section, unique section identifiers, unique field identifiers
// within each section, and categories and field types drawn from the fixed
// sets. The sections slice is copied.
func New(version string, sections []Section) (*Schema, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("schema: version %q: %w", version, err)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("schema: at least one section is required")
	}

	s := &Schema{
		version:  v,
		sections: make([]Section, len(sections)),
		index:    make(map[string]int, len(sections)),
	}
	for i, sec := range sections {
		if sec.ID == "" {
			return nil, fmt.Errorf("schema: section %d has an empty id", i)
		}
		if _, dup := s.index[sec.ID]; dup {
			return nil, fmt.Errorf("schema: duplicate section id %q", sec.ID)
		}
		if !sec.Category.Valid() {
			return nil, fmt.Errorf("schema: section %q: invalid category %q", sec.ID, sec.Category)
		}
		seen := make(map[string]bool, len(sec.Fields))
		for _, f := range sec.Fields {
			if f.ID == "" {
				return nil, fmt.Errorf("schema: section %q has a field with an empty id", sec.ID)
			}
			if seen[f.ID] {
				return nil, fmt.Errorf("schema: section %q: duplicate field id %q", sec.ID, f.ID)
			}
			seen[f.ID] = true
			if !f.Type.Valid() {
				return nil, fmt.Errorf("schema: field %s.%s: invalid type %q", sec.ID, f.ID, f.Type)
			}
		}
		sec.Fields = append([]Field(nil), sec.Fields...)
		s.sections[i] = sec
		s.index[sec.ID] = i
	}
	return s, nil
}

// MustNew is New for package-level tables; it panics on an invalid schema.
func MustNew(version string, sections []Section) *Schema {
	s, err := New(version, sections)
	if err != nil {
		panic(err)
	}
	return s
}

// Version returns the schema's semantic version string.
func (s *Schema) Version() string {
	return s.version.String()
}

// ListSections returns the sections in declaration order. The returned slice
// is a copy; callers may not mutate the schema through it.
func (s *Schema) ListSections() []Section {
	out := make([]Section, len(s.sections))
	copy(out, s.sections)
	return out
}

// FindSection returns the section with the given identifier, or an error
// wrapping ErrNotFound.
func (s *Schema) FindSection(id string) (Section, error) {
	i, ok := s.index[id]
	if !ok {
		return Section{}, fmt.Errorf("section %q: %w", id, ErrNotFound)
	}
	return s.sections[i], nil
}

// HasSection reports whether id names a schema section.
func (s *Schema) HasSection(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Field returns the definition of sectionID.fieldID.
func (s *Schema) Field(sectionID, fieldID string) (Field, error) {
	sec, err := s.FindSection(sectionID)
	if err != nil {
		return Field{}, err
	}
	f, ok := sec.FindField(fieldID)
	if !ok {
		return Field{}, fmt.Errorf("field %s.%s: %w", sectionID, fieldID, ErrNotFound)
	}
	return f, nil
}

// IsRequired reports whether sectionID.fieldID is a required field. Unknown
// fields are never required.
func (s *Schema) IsRequired(sectionID, fieldID string) bool {
	f, err := s.Field(sectionID, fieldID)
	return err == nil && f.Required
}

// Accepts checks a card's declared schema version. Cards must target the
// same major version as the schema; an empty declaration is accepted.
func (s *Schema) Accepts(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("schema version %q is not a semantic version", version)
	}
	c, err := semver.NewConstraint(fmt.Sprintf("^%d", s.version.Major()))
	if err != nil {
		return fmt.Errorf("schema: constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("card targets schema %s; this tool implements %s", v, s.version)
	}
	return nil
}
