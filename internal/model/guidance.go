package model

// AnalysisStatement is one in-depth claim extracted from a paper, backed by
// sentence keys on both sides: positive keys support the statement, negative
// keys contradict or weaken it. All keys are primary references here.
type AnalysisStatement struct {
	StatementKey string   `json:"statement_key"`
	Statement    string   `json:"statement"`
	PositiveKeys []string `json:"positive_keys"`
	NegativeKeys []string `json:"negative_keys"`
}

// AnalysisVerdict is the verifier output for one in-depth statement,
// annotated with the statement it judged.
type AnalysisVerdict struct {
	ValidGroup               string `json:"valid_group"`
	ExperimentDataSupport    bool   `json:"experiment_data_support"`
	CalculationDataSupport   bool   `json:"calculation_data_support"`
	MechanismAnalysisSupport bool   `json:"mechanism_analysis_support"`
	Statement                string `json:"statement,omitempty"`
	StatementKey             string `json:"statement_key,omitempty"`
}

// Accepted reports whether the statement survived verification.
func (v AnalysisVerdict) Accepted() bool {
	return v.ValidGroup == GroupA
}

// AnalysisArtifact is the persisted in-depth analysis for one paper.
type AnalysisArtifact struct {
	Statements  []AnalysisStatement `json:"formatted_in_depth_analysis"`
	Reflections []AnalysisVerdict   `json:"reflection_results"`
}

// GuidanceItem is one synthesized design guideline, keyed G_<i>, citing
// accepted analysis statements by their combined "doi+S_k" keys.
type GuidanceItem struct {
	Guidance     string   `json:"guidance"`
	GuidanceKey  string   `json:"guidance_key"`
	PositiveKeys []string `json:"positive_keys"`
	NegativeKeys []string `json:"negative_keys"`
}

// GuidanceVerdict is the verifier output for one guidance item.
type GuidanceVerdict struct {
	ValidGroup  string `json:"valid_group"`
	Feasible    bool   `json:"feasible"`
	Guidance    string `json:"guidance,omitempty"`
	GuidanceKey string `json:"guidance_key,omitempty"`
}

// Accepted reports whether the guidance item survived verification.
func (v GuidanceVerdict) Accepted() bool {
	return v.ValidGroup == GroupA && v.Feasible
}

// GuidanceArtifact is the persisted guidance synthesis result.
type GuidanceArtifact struct {
	Items         []GuidanceItem    `json:"generate_guidance"`
	ReflectResult []GuidanceVerdict `json:"reflect_result"`
}

// GuidanceSupport records, for one (guidance, paper) pair, which of the
// paper's analysis statements back the guidance. NegativeStatements are
// model-authored counterstatements, not corpus references.
type GuidanceSupport struct {
	PositiveKeys       []string `json:"positive_keys"`
	NegativeStatements []string `json:"negative_statements"`
}

// SupportVerdict is the verifier output for a guidance support lookup.
type SupportVerdict struct {
	ValidGroup string `json:"valid_group"`
}

// Accepted reports whether the support lookup survived verification.
func (v SupportVerdict) Accepted() bool {
	return v.ValidGroup == GroupA
}

// SupportArtifact is the persisted per-(guidance, paper) support result.
type SupportArtifact struct {
	Support       *GuidanceSupport `json:"generate_guidance,omitempty"`
	ReflectResult *SupportVerdict  `json:"reflect_result,omitempty"`
}

// SupportSummary aggregates how many papers back one guidance item.
type SupportSummary struct {
	SupportCount int `json:"support_count"`
}
