package schema

import "sync"

// DefaultVersion is the version of the built-in NIST AI RMF card schema.
const DefaultVersion = "1.0.0"

// Default returns the built-in NIST AI RMF model-card schema. The value is
// built once per process and shared read-only.
var Default = sync.OnceValue(func() *Schema {
	return MustNew(DefaultVersion, nistSections)
})

var nistSections = []Section{
	{
		ID:          "model_details",
		Title:       "Model Details",
		Category:    CategoryMap,
		Required:    true,
		Description: "What the system is and how it is built.",
		Fields: []Field{
			{ID: "description", Label: "Description", Type: TypeText, Required: true,
				Description: "Plain-language summary of what the model does."},
			{ID: "model_type", Label: "Model Type", Type: TypeText, Required: true,
				Description: "Model family or task type (e.g. gradient-boosted classifier, LLM)."},
			{ID: "architecture", Label: "Architecture", Type: TypeText,
				Description: "Architecture, size and notable design choices."},
			{ID: "license", Label: "License", Type: TypeText,
				Description: "License under which the model is distributed."},
			{ID: "contact", Label: "Contact", Type: TypeText,
				Description: "Where questions and incident reports should be sent."},
		},
	},
	{
		ID:          "intended_use",
		Title:       "Intended Use",
		Category:    CategoryMap,
		Required:    true,
		Description: "The context the system was designed for (MAP 1).",
		Fields: []Field{
			{ID: "primary_uses", Label: "Primary Uses", Type: TypeList, Required: true,
				Description: "Tasks the model is intended to perform."},
			{ID: "primary_users", Label: "Primary Users", Type: TypeList, Required: true,
				Description: "Who is expected to operate or rely on the model."},
			{ID: "out_of_scope_uses", Label: "Out-of-Scope Uses", Type: TypeList,
				Description: "Uses the model was not designed or evaluated for."},
		},
	},
	{
		ID:          "context_and_impacts",
		Title:       "Context and Impacts",
		Category:    CategoryMap,
		Description: "Deployment setting and who is affected by the system (MAP 3, MAP 5).",
		Fields: []Field{
			{ID: "deployment_context", Label: "Deployment Context", Type: TypeText, Required: true,
				Description: "Where and how the model is deployed."},
			{ID: "affected_stakeholders", Label: "Affected Stakeholders", Type: TypeList, Required: true,
				Description: "Individuals or groups affected by model outputs."},
			{ID: "potential_impacts", Label: "Potential Impacts", Type: TypeList,
				Description: "Positive and negative impacts identified."},
		},
	},
	{
		ID:          "governance",
		Title:       "Governance",
		Category:    CategoryGovern,
		Required:    true,
		Description: "Accountability structures and risk tolerance (GOVERN 1, GOVERN 2).",
		Fields: []Field{
			{ID: "accountable_parties", Label: "Accountable Parties", Type: TypeTable, Required: true,
				Description: "Roles accountable for the system.",
				Columns:     []string{"role", "name", "contact"}},
			{ID: "risk_tolerance", Label: "Risk Tolerance", Type: TypeText, Required: true,
				Description: "Organizational risk tolerance that applies to this system."},
			{ID: "policies", Label: "Policies", Type: TypeList,
				Description: "Policies and procedures governing development and use."},
			{ID: "review_cadence", Label: "Review Cadence", Type: TypeText,
				Description: "How often the card and the system are reviewed."},
			{ID: "last_reviewed", Label: "Last Reviewed", Type: TypeDate,
				Description: "Date of the most recent review (YYYY-MM-DD)."},
		},
	},
	{
		ID:          "training_data",
		Title:       "Training Data",
		Category:    CategoryMap,
		Required:    true,
		Description: "Data provenance and preparation (MAP 2).",
		Fields: []Field{
			{ID: "sources", Label: "Sources", Type: TypeTable, Required: true,
				Description: "Datasets used for training.",
				Columns:     []string{"name", "description", "license"}},
			{ID: "preprocessing", Label: "Preprocessing", Type: TypeText,
				Description: "Cleaning, filtering and labelling steps."},
			{ID: "known_gaps", Label: "Known Gaps", Type: TypeList,
				Description: "Populations or conditions under-represented in the data."},
		},
	},
	{
		ID:          "evaluation",
		Title:       "Evaluation",
		Category:    CategoryMeasure,
		Required:    true,
		Description: "How performance was measured (MEASURE 1, MEASURE 2).",
		Fields: []Field{
			{ID: "metrics", Label: "Metrics", Type: TypeTable, Required: true,
				Description: "Quantitative results.",
				Columns:     []string{"metric", "value", "dataset"}},
			{ID: "datasets", Label: "Evaluation Datasets", Type: TypeList, Required: true,
				Description: "Datasets used for evaluation."},
			{ID: "results_summary", Label: "Results Summary", Type: TypeText,
				Description: "Interpretation of the results."},
			{ID: "evaluation_date", Label: "Evaluation Date", Type: TypeDate,
				Description: "Date the evaluation was run (YYYY-MM-DD)."},
		},
	},
	{
		ID:          "fairness_and_bias",
		Title:       "Fairness and Bias",
		Category:    CategoryMeasure,
		Required:    true,
		Description: "Evaluation of harmful bias (MEASURE 2.11).",
		Fields: []Field{
			{ID: "assessed_groups", Label: "Assessed Groups", Type: TypeList, Required: true,
				Description: "Demographic or other groups included in bias testing."},
			{ID: "findings", Label: "Findings", Type: TypeText, Required: true,
				Description: "Disparities found and their magnitude."},
			{ID: "mitigations", Label: "Mitigations", Type: TypeList,
				Description: "Steps taken to reduce identified bias."},
		},
	},
	{
		ID:          "limitations",
		Title:       "Limitations",
		Category:    CategoryMeasure,
		Required:    true,
		Description: "Known limitations and failure modes.",
		Fields: []Field{
			{ID: "known_limitations", Label: "Known Limitations", Type: TypeList, Required: true,
				Description: "Conditions under which the model performs poorly."},
			{ID: "failure_modes", Label: "Failure Modes", Type: TypeList,
				Description: "Observed or anticipated failure modes."},
		},
	},
	{
		ID:          "risk_management",
		Title:       "Risk Management",
		Category:    CategoryManage,
		Required:    true,
		Description: "Prioritized risks and responses (MANAGE 1, MANAGE 2).",
		Fields: []Field{
			{ID: "identified_risks", Label: "Identified Risks", Type: TypeTable, Required: true,
				Description: "Risks with likelihood, impact and mitigation.",
				Columns:     []string{"risk", "likelihood", "impact", "mitigation"}},
			{ID: "mitigations", Label: "Mitigations", Type: TypeList, Required: true,
				Description: "Risk treatments in place."},
			{ID: "residual_risk", Label: "Residual Risk", Type: TypeText,
				Description: "Risk remaining after mitigation."},
			{ID: "incident_response", Label: "Incident Response", Type: TypeText,
				Description: "How incidents are detected, reported and handled."},
		},
	},
	{
		ID:          "monitoring",
		Title:       "Monitoring",
		Category:    CategoryManage,
		Description: "Post-deployment monitoring and decommissioning (MANAGE 4).",
		Fields: []Field{
			{ID: "monitoring_plan", Label: "Monitoring Plan", Type: TypeText, Required: true,
				Description: "Metrics and signals tracked in production."},
			{ID: "decommission_criteria", Label: "Decommission Criteria", Type: TypeText,
				Description: "Conditions under which the model is retired."},
		},
	},
}
