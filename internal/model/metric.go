package model

// SamplePair names the exemplar papers backing one induced metric category.
type SamplePair struct {
	Positive string `json:"positive"`
	Negative string `json:"negative"`
}

// MetricCategory is one induced variant of a metric family (e.g. "half-wave
// potential" under the "activity" family). Induced once from a paper sample,
// never mutated afterward.
type MetricCategory struct {
	Description     string     `json:"description"`
	Unit            string     `json:"unit"`
	BetterDirection string     `json:"better_direction"`
	Abbreviation    string     `json:"abbreviation"`
	Sample          SamplePair `json:"sample"`
}

// TaxonomyVerdict is the verifier output for one induced category.
type TaxonomyVerdict struct {
	ValidGroup              string `json:"valid_group"`
	ClarityAssessment       bool   `json:"clarity_assessment"`
	EffectivenessAssessment bool   `json:"effectiveness_assessment"`
}

// Accepted reports whether the category survived verification.
func (v TaxonomyVerdict) Accepted() bool {
	return v.ValidGroup == GroupA && v.ClarityAssessment && v.EffectivenessAssessment
}

// TaxonomyArtifact is the persisted result of metric-taxonomy induction for
// one metric family.
type TaxonomyArtifact struct {
	GeneratedMetrics map[string]MetricCategory  `json:"generated_metrics,omitempty"`
	ReflectResult    map[string]TaxonomyVerdict `json:"overall_reflect_result,omitempty"`
}

// CategorySample is one side of a per-paper categorization answer: the
// category the paper's best value belongs to plus the numeric value itself.
// MetricValue is nil when the model reports none.
type CategorySample struct {
	MetricType  string   `json:"metric_type"`
	MetricValue *float64 `json:"metric_value"`
}

// CategoryAnalysis pairs the claimed-correct categorization with a
// deliberately wrong one.
type CategoryAnalysis struct {
	Positive CategorySample `json:"positive"`
	Negative CategorySample `json:"negative"`
}

// CategoryVerdict is the verifier output for a per-paper categorization.
type CategoryVerdict struct {
	ValidGroup  string `json:"valid_group"`
	MetricValue bool   `json:"metric_value"`
}

// Accepted reports whether the categorization survived verification.
func (v CategoryVerdict) Accepted() bool {
	return v.ValidGroup == GroupA && v.MetricValue
}

// CategoryArtifact is the persisted per-paper categorization result.
type CategoryArtifact struct {
	MetricAnalyzeResult        *CategoryAnalysis `json:"metric_analyze_result,omitempty"`
	MetricAnalyzeReflectResult *CategoryVerdict  `json:"metric_analyze_reflect_result,omitempty"`
}
