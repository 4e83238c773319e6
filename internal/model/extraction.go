package model

// NotAvailable is the sentinel for a field the model legitimately could not
// fill. Supporting references that fail to resolve are downgraded to it;
// primary references that carry it terminate the unit with a null result.
const NotAvailable = "not_available"

// Direction values for better_direction fields.
const (
	DirectionHigher = "higher"
	DirectionLower  = "lower"
)

// PerformanceRef points at the sentence claiming the paper's best reported
// value for one metric family. Key is the primary reference; SupportKey is
// supporting and may be "not_available".
type PerformanceRef struct {
	Key        string `json:"key"`
	SupportKey string `json:"supporting_statement_key"`
}

// DirectionRef records which direction of the metric is favorable, with an
// optional supporting sentence.
type DirectionRef struct {
	Direction  string `json:"direction"`
	SupportKey string `json:"supporting_statement_key"`
}

// MetricExtraction is the per-metric-family slice of one extraction side.
type MetricExtraction struct {
	BestPerformance PerformanceRef `json:"best_performance"`
	BetterDirection DirectionRef   `json:"better_direction"`
}

// ExtractionSide maps metric family name to its extraction. The model
// produces two sides per paper: the claimed-correct one and a deliberately
// wrong one used to build contrastive pairs.
type ExtractionSide map[string]MetricExtraction

// PaperExtraction is the validated per-paper metric-occurrence result.
type PaperExtraction struct {
	Positive ExtractionSide `json:"positive"`
	Negative ExtractionSide `json:"negative"`
}

// PerformanceJudgement carries the verifier's task-specific booleans for the
// best-performance half of an extraction verdict.
type PerformanceJudgement struct {
	IsRelevant             bool   `json:"is_relevant"`
	HasNumericalResult     bool   `json:"has_numerical_result"`
	SupportBestPerformance string `json:"support_best_performance"`
}

// DirectionJudgement carries the verifier's judgement of the claimed
// favorable direction.
type DirectionJudgement struct {
	SupportBetterDirection string `json:"support_better_direction"`
}

// ExtractionVerdict is the verifier output for one metric family of one
// paper extraction.
type ExtractionVerdict struct {
	ValidGroup      string               `json:"valid_group"`
	BestPerformance PerformanceJudgement `json:"best_performance"`
	BetterDirection DirectionJudgement   `json:"better_direction"`
}

// Accepted reports whether the verdict lets the extraction through: the
// verifier must name group A.
func (v ExtractionVerdict) Accepted() bool {
	return v.ValidGroup == GroupA
}

// PaperExtractionArtifact is the persisted unit result for per-paper metric
// extraction: the accepted extraction together with its verdicts. A unit
// that exhausted its budget persists the zero value.
type PaperExtractionArtifact struct {
	ExtractedInfo *PaperExtraction             `json:"extracted_info,omitempty"`
	ReflectResult map[string]ExtractionVerdict `json:"reflect_result,omitempty"`
}

// ValidMetricInfo is the downstream view of one accepted extraction: the
// best-performance sentence resolved to text plus the supported direction.
type ValidMetricInfo struct {
	Statement       string `json:"statement"`
	BetterDirection string `json:"better_direction"`
	DOIKey          string `json:"doi_key,omitempty"`
}

// RelevanceArtifact records the topic-relevance screening outcome for one
// paper.
type RelevanceArtifact struct {
	IsRelevant bool `json:"is_relevant"`
}
