// Package profile holds the drafting guidance appended to suggestion
// prompts: a named profile describing the kind of system being documented,
// plus fixed guidance for each NIST AI RMF category.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// DefaultName is the profile used when none is configured.
const DefaultName = "general"

// Profile describes a drafting strategy.
type Profile struct {
	Name                 string
	Description          string
	SystemPromptAddendum string
}

// builtins is the registry of built-in profiles keyed by name.
var builtins = map[string]Profile{
	"general": {
		Name:        "general",
		Description: "Default profile; drafts from repository evidence only.",
		SystemPromptAddendum: "Base every statement on the repository inventory and the fields " +
			"already filled in. When the evidence does not support an answer, say what a reviewer " +
			"should confirm instead of inventing details.",
	},
	"regulated": {
		Name:        "regulated",
		Description: "Regulated domains such as lending, insurance, hiring or health.",
		SystemPromptAddendum: "This system operates in a regulated domain. Name the accountable " +
			"roles explicitly, call out protected characteristics that must be assessed, and " +
			"describe human review and appeal paths. Prefer conservative wording and never " +
			"claim compliance with a specific regulation.",
	},
	"research": {
		Name:        "research",
		Description: "Research prototypes not intended for production use.",
		SystemPromptAddendum: "This system is a research artifact. Emphasize out-of-scope uses, " +
			"reproducibility of evaluations and the limits of the datasets. State plainly that " +
			"production deployment requires further review.",
	},
	"generative": {
		Name:        "generative",
		Description: "Generative models producing text, images, audio or code.",
		SystemPromptAddendum: "This system generates content. Cover misuse and abuse scenarios, " +
			"content provenance, hallucination and harmful-output risks, and the filtering or " +
			"monitoring in place for generated content.",
	},
}

// Names returns the built-in profile names sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load returns the named built-in profile or an error if the name is unknown.
// An empty name selects DefaultName.
func Load(name string) (Profile, error) {
	if name == "" {
		name = DefaultName
	}
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown profile %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

var categoryGuidance = map[schema.Category]string{
	schema.CategoryGovern: "GOVERN covers accountability and culture: who owns the system, " +
		"the risk tolerance they accept, the policies that apply and how often decisions are reviewed.",
	schema.CategoryMap: "MAP covers context: what the system is, who uses it and for what, " +
		"where it is deployed, the data it learned from and who could be affected.",
	schema.CategoryMeasure: "MEASURE covers assessment: metrics and the datasets they were " +
		"computed on, fairness and bias findings, and known limitations with their failure modes.",
	schema.CategoryManage: "MANAGE covers response: identified risks with likelihood, impact " +
		"and mitigation, incident handling, monitoring, and criteria for decommissioning.",
}

// CategoryGuidance returns the drafting guidance for category c.
func CategoryGuidance(c schema.Category) string {
	return categoryGuidance[c]
}
