package schema

import (
	"fmt"

	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/model"
)

// Raw shapes use pointer fields so that a missing key is distinguishable
// from a zero value; every required field is presence-checked before use.

type rawPerformance struct {
	Key        *string `json:"key"`
	SupportKey *string `json:"supporting_statement_key"`
}

type rawDirection struct {
	Direction  *string `json:"direction"`
	SupportKey *string `json:"supporting_statement_key"`
}

type rawMetric struct {
	BestPerformance *rawPerformance `json:"best_performance"`
	BetterDirection *rawDirection   `json:"better_direction"`
}

type rawExtraction struct {
	Positive map[string]rawMetric `json:"positive"`
	Negative map[string]rawMetric `json:"negative"`
}

// ValidateExtraction checks a per-paper metric-occurrence candidate: both
// sides present, exactly the requested metric families on each side, every
// reference resolved against the paper's sentence keys.
func ValidateExtraction(raw string, metrics []string, sentences corpus.Corpus) (*model.PaperExtraction, error) {
	var cand rawExtraction
	if err := decodeObject(raw, &cand); err != nil {
		return nil, err
	}
	if cand.Positive == nil || cand.Negative == nil {
		return nil, fmt.Errorf("%w: missing positive/negative side", ErrMalformed)
	}

	positive, err := validateExtractionSide(cand.Positive, metrics, sentences)
	if err != nil {
		return nil, err
	}
	negative, err := validateExtractionSide(cand.Negative, metrics, sentences)
	if err != nil {
		return nil, err
	}

	return &model.PaperExtraction{Positive: positive, Negative: negative}, nil
}

func validateExtractionSide(side map[string]rawMetric, metrics []string, sentences corpus.Corpus) (model.ExtractionSide, error) {
	if len(side) != len(metrics) {
		return nil, fmt.Errorf("%w: expected %d metric families, got %d", ErrMalformed, len(metrics), len(side))
	}

	result := make(model.ExtractionSide, len(metrics))
	for _, metric := range metrics {
		item, ok := side[metric]
		if !ok {
			return nil, fmt.Errorf("%w: missing metric family %q", ErrMalformed, metric)
		}
		if item.BestPerformance == nil || item.BestPerformance.Key == nil || item.BestPerformance.SupportKey == nil {
			return nil, fmt.Errorf("%w: incomplete best_performance for %q", ErrMalformed, metric)
		}
		if item.BetterDirection == nil || item.BetterDirection.Direction == nil || item.BetterDirection.SupportKey == nil {
			return nil, fmt.Errorf("%w: incomplete better_direction for %q", ErrMalformed, metric)
		}

		out := model.MetricExtraction{
			BestPerformance: model.PerformanceRef{Key: model.NotAvailable, SupportKey: model.NotAvailable},
			BetterDirection: model.DirectionRef{Direction: model.NotAvailable, SupportKey: model.NotAvailable},
		}

		// Primary reference: must resolve or the candidate is rejected.
		if *item.BestPerformance.Key != model.NotAvailable {
			key, err := corpus.ParseKey(*item.BestPerformance.Key)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			if !sentences.Has(key) {
				return nil, fmt.Errorf("%w: unresolvable primary key %q for %q", ErrMalformed, key, metric)
			}
			out.BestPerformance.Key = key
		}
		out.BestPerformance.SupportKey = resolveSupporting(*item.BestPerformance.SupportKey, sentences)

		direction := *item.BetterDirection.Direction
		switch direction {
		case model.DirectionHigher, model.DirectionLower, model.NotAvailable:
			out.BetterDirection.Direction = direction
		default:
			return nil, fmt.Errorf("%w: invalid direction %q for %q", ErrMalformed, direction, metric)
		}
		out.BetterDirection.SupportKey = resolveSupporting(*item.BetterDirection.SupportKey, sentences)

		result[metric] = out
	}

	return result, nil
}

// resolveSupporting applies the tolerant path: a supporting key that is
// malformed or absent from the corpus degrades to "not_available" instead
// of rejecting the candidate.
func resolveSupporting(key string, sentences corpus.Corpus) string {
	if key == model.NotAvailable {
		return model.NotAvailable
	}
	parsed, err := corpus.ParseKey(key)
	if err != nil || !sentences.Has(parsed) {
		return model.NotAvailable
	}
	return parsed
}

type rawPerformanceJudgement struct {
	IsRelevant             *bool   `json:"is_relevant"`
	HasNumericalResult     *bool   `json:"has_numerical_result"`
	SupportBestPerformance *string `json:"support_best_performance"`
}

type rawExtractionVerdict struct {
	ValidGroup      *string                  `json:"valid_group"`
	BestPerformance *rawPerformanceJudgement `json:"best_performance"`
	BetterDirection *struct {
		SupportBetterDirection *string `json:"support_better_direction"`
	} `json:"better_direction"`
}

func yesNoNA(s string) bool {
	return s == "yes" || s == "no" || s == model.NotAvailable
}

// CheckExtractionVerdict validates a verifier response for the extraction
// task against the verdict schema.
func CheckExtractionVerdict(raw string) (*model.ExtractionVerdict, error) {
	var v rawExtractionVerdict
	if err := decodeObject(raw, &v); err != nil {
		return nil, err
	}
	if v.ValidGroup == nil || !model.ValidGroup(*v.ValidGroup) {
		return nil, fmt.Errorf("%w: bad valid_group", ErrMalformed)
	}
	bp := v.BestPerformance
	if bp == nil || bp.IsRelevant == nil || bp.HasNumericalResult == nil || bp.SupportBestPerformance == nil ||
		!yesNoNA(*bp.SupportBestPerformance) {
		return nil, fmt.Errorf("%w: incomplete best_performance judgement", ErrMalformed)
	}
	if v.BetterDirection == nil || v.BetterDirection.SupportBetterDirection == nil ||
		!yesNoNA(*v.BetterDirection.SupportBetterDirection) {
		return nil, fmt.Errorf("%w: incomplete better_direction judgement", ErrMalformed)
	}

	return &model.ExtractionVerdict{
		ValidGroup: *v.ValidGroup,
		BestPerformance: model.PerformanceJudgement{
			IsRelevant:             *bp.IsRelevant,
			HasNumericalResult:     *bp.HasNumericalResult,
			SupportBestPerformance: *bp.SupportBestPerformance,
		},
		BetterDirection: model.DirectionJudgement{
			SupportBetterDirection: *v.BetterDirection.SupportBetterDirection,
		},
	}, nil
}

type rawCategory struct {
	Description     *string `json:"description"`
	Unit            *string `json:"unit"`
	BetterDirection *string `json:"better_direction"`
	Abbreviation    *string `json:"abbreviation"`
	Sample          *struct {
		Positive *string `json:"positive"`
		Negative *string `json:"negative"`
	} `json:"sample"`
}

// ValidateTaxonomy checks an induced category set. Exemplar papers are named
// by short doi-keys; both must resolve through the mapping, and the stored
// categories carry the real paper identifiers.
func ValidateTaxonomy(raw string, doiKeys map[string]string) (map[string]model.MetricCategory, error) {
	var cand map[string]rawCategory
	if err := decodeObject(raw, &cand); err != nil {
		return nil, err
	}
	if len(cand) == 0 {
		return nil, fmt.Errorf("%w: empty category set", ErrMalformed)
	}

	result := make(map[string]model.MetricCategory, len(cand))
	for name, c := range cand {
		if c.Description == nil || c.Unit == nil || c.BetterDirection == nil || c.Abbreviation == nil || c.Sample == nil {
			return nil, fmt.Errorf("%w: incomplete category %q", ErrMalformed, name)
		}
		if *c.BetterDirection != model.DirectionHigher && *c.BetterDirection != model.DirectionLower {
			return nil, fmt.Errorf("%w: invalid better_direction for %q", ErrMalformed, name)
		}
		if c.Sample.Positive == nil || c.Sample.Negative == nil {
			return nil, fmt.Errorf("%w: incomplete sample for %q", ErrMalformed, name)
		}
		positive, ok := doiKeys[*c.Sample.Positive]
		if !ok {
			return nil, fmt.Errorf("%w: unknown positive exemplar %q", ErrMalformed, *c.Sample.Positive)
		}
		negative, ok := doiKeys[*c.Sample.Negative]
		if !ok {
			return nil, fmt.Errorf("%w: unknown negative exemplar %q", ErrMalformed, *c.Sample.Negative)
		}

		result[name] = model.MetricCategory{
			Description:     *c.Description,
			Unit:            *c.Unit,
			BetterDirection: *c.BetterDirection,
			Abbreviation:    *c.Abbreviation,
			Sample:          model.SamplePair{Positive: positive, Negative: negative},
		}
	}

	return result, nil
}

type rawTaxonomyVerdict struct {
	ValidGroup              *string `json:"valid_group"`
	ClarityAssessment       *bool   `json:"clarity_assessment"`
	EffectivenessAssessment *bool   `json:"effectiveness_assessment"`
}

// CheckTaxonomyVerdict validates a verifier response for one induced
// category.
func CheckTaxonomyVerdict(raw string) (*model.TaxonomyVerdict, error) {
	var v rawTaxonomyVerdict
	if err := decodeObject(raw, &v); err != nil {
		return nil, err
	}
	if v.ValidGroup == nil || !model.ValidGroup(*v.ValidGroup) ||
		v.ClarityAssessment == nil || v.EffectivenessAssessment == nil {
		return nil, fmt.Errorf("%w: incomplete taxonomy verdict", ErrMalformed)
	}
	return &model.TaxonomyVerdict{
		ValidGroup:              *v.ValidGroup,
		ClarityAssessment:       *v.ClarityAssessment,
		EffectivenessAssessment: *v.EffectivenessAssessment,
	}, nil
}

type rawCategorySample struct {
	MetricType  *string  `json:"metric_type"`
	MetricValue *float64 `json:"metric_value"`
}

type rawCategoryAnalysis struct {
	Positive *rawCategorySample `json:"positive"`
	Negative *rawCategorySample `json:"negative"`
}

// ValidateCategorization checks a per-paper categorization candidate. The
// positive metric_type is a primary reference into the induced category set;
// "not_available" is a legal terminal answer.
func ValidateCategorization(raw string, categories map[string]model.MetricCategory) (*model.CategoryAnalysis, error) {
	var cand rawCategoryAnalysis
	if err := decodeObject(raw, &cand); err != nil {
		return nil, err
	}
	if cand.Positive == nil || cand.Positive.MetricType == nil ||
		cand.Negative == nil || cand.Negative.MetricType == nil {
		return nil, fmt.Errorf("%w: incomplete categorization", ErrMalformed)
	}

	positiveType := *cand.Positive.MetricType
	if positiveType != model.NotAvailable {
		if _, ok := categories[positiveType]; !ok {
			return nil, fmt.Errorf("%w: unknown metric category %q", ErrMalformed, positiveType)
		}
	}

	return &model.CategoryAnalysis{
		Positive: model.CategorySample{MetricType: positiveType, MetricValue: cand.Positive.MetricValue},
		Negative: model.CategorySample{MetricType: *cand.Negative.MetricType, MetricValue: cand.Negative.MetricValue},
	}, nil
}

type rawCategoryVerdict struct {
	ValidGroup  *string `json:"valid_group"`
	MetricValue *bool   `json:"metric_value"`
}

// CheckCategoryVerdict validates a verifier response for a per-paper
// categorization.
func CheckCategoryVerdict(raw string) (*model.CategoryVerdict, error) {
	var v rawCategoryVerdict
	if err := decodeObject(raw, &v); err != nil {
		return nil, err
	}
	if v.ValidGroup == nil || !model.ValidGroup(*v.ValidGroup) || v.MetricValue == nil {
		return nil, fmt.Errorf("%w: incomplete categorization verdict", ErrMalformed)
	}
	return &model.CategoryVerdict{ValidGroup: *v.ValidGroup, MetricValue: *v.MetricValue}, nil
}

type rawKeyedStatement struct {
	Statement    *string  `json:"statement"`
	Guidance     *string  `json:"guidance"`
	PositiveKeys []string `json:"positive_keys"`
	NegativeKeys []string `json:"negative_keys"`
}

// ValidateAnalysis checks an in-depth analysis candidate: a list of
// statements whose positive and negative keys are all primary references
// into the paper's sentence corpus.
func ValidateAnalysis(raw string, sentences corpus.Corpus) ([]model.AnalysisStatement, error) {
	var cand []rawKeyedStatement
	if err := decodeArray(raw, &cand); err != nil {
		return nil, err
	}
	if len(cand) == 0 {
		return nil, fmt.Errorf("%w: empty analysis", ErrMalformed)
	}

	result := make([]model.AnalysisStatement, 0, len(cand))
	for i, item := range cand {
		if item.Statement == nil || item.PositiveKeys == nil || item.NegativeKeys == nil {
			return nil, fmt.Errorf("%w: incomplete analysis item %d", ErrMalformed, i)
		}
		positive, err := resolvePrimaryKeys(item.PositiveKeys, sentences)
		if err != nil {
			return nil, err
		}
		negative, err := resolvePrimaryKeys(item.NegativeKeys, sentences)
		if err != nil {
			return nil, err
		}
		result = append(result, model.AnalysisStatement{
			StatementKey: fmt.Sprintf("S_%d", i),
			Statement:    *item.Statement,
			PositiveKeys: positive,
			NegativeKeys: negative,
		})
	}

	return result, nil
}

func resolvePrimaryKeys(keys []string, sentences corpus.Corpus) ([]string, error) {
	resolved := make([]string, 0, len(keys))
	for _, key := range keys {
		parsed, err := corpus.ParseKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if !sentences.Has(parsed) {
			return nil, fmt.Errorf("%w: unresolvable primary key %q", ErrMalformed, parsed)
		}
		resolved = append(resolved, parsed)
	}
	return resolved, nil
}

type rawAnalysisVerdict struct {
	ValidGroup               *string `json:"valid_group"`
	ExperimentDataSupport    *bool   `json:"experiment_data_support"`
	CalculationDataSupport   *bool   `json:"calculation_data_support"`
	MechanismAnalysisSupport *bool   `json:"mechanism_analysis_support"`
}

// CheckAnalysisVerdict validates a verifier response for one in-depth
// statement.
func CheckAnalysisVerdict(raw string) (*model.AnalysisVerdict, error) {
	var v rawAnalysisVerdict
	if err := decodeObject(raw, &v); err != nil {
		return nil, err
	}
	if v.ValidGroup == nil || !model.ValidGroup(*v.ValidGroup) ||
		v.ExperimentDataSupport == nil || v.CalculationDataSupport == nil || v.MechanismAnalysisSupport == nil {
		return nil, fmt.Errorf("%w: incomplete analysis verdict", ErrMalformed)
	}
	return &model.AnalysisVerdict{
		ValidGroup:               *v.ValidGroup,
		ExperimentDataSupport:    *v.ExperimentDataSupport,
		CalculationDataSupport:   *v.CalculationDataSupport,
		MechanismAnalysisSupport: *v.MechanismAnalysisSupport,
	}, nil
}

// ValidateGuidance checks a guidance synthesis candidate; the keys cite
// accepted analysis statements ("doi+S_k") and are primary references into
// that combined dictionary.
func ValidateGuidance(raw string, analysisKeys map[string]string) ([]model.GuidanceItem, error) {
	var cand []rawKeyedStatement
	if err := decodeArray(raw, &cand); err != nil {
		return nil, err
	}
	if len(cand) == 0 {
		return nil, fmt.Errorf("%w: empty guidance", ErrMalformed)
	}

	result := make([]model.GuidanceItem, 0, len(cand))
	for i, item := range cand {
		if item.Guidance == nil || item.PositiveKeys == nil || item.NegativeKeys == nil {
			return nil, fmt.Errorf("%w: incomplete guidance item %d", ErrMalformed, i)
		}
		for _, key := range append(append([]string{}, item.PositiveKeys...), item.NegativeKeys...) {
			if _, ok := analysisKeys[key]; !ok {
				return nil, fmt.Errorf("%w: unknown analysis key %q", ErrMalformed, key)
			}
		}
		result = append(result, model.GuidanceItem{
			Guidance:     *item.Guidance,
			GuidanceKey:  fmt.Sprintf("G_%d", i),
			PositiveKeys: item.PositiveKeys,
			NegativeKeys: item.NegativeKeys,
		})
	}

	return result, nil
}

type rawGuidanceVerdict struct {
	ValidGroup *string `json:"valid_group"`
	Feasible   *bool   `json:"feasible"`
}

// CheckGuidanceVerdict validates a verifier response for one guidance item.
func CheckGuidanceVerdict(raw string) (*model.GuidanceVerdict, error) {
	var v rawGuidanceVerdict
	if err := decodeObject(raw, &v); err != nil {
		return nil, err
	}
	if v.ValidGroup == nil || !model.ValidGroup(*v.ValidGroup) || v.Feasible == nil {
		return nil, fmt.Errorf("%w: incomplete guidance verdict", ErrMalformed)
	}
	return &model.GuidanceVerdict{ValidGroup: *v.ValidGroup, Feasible: *v.Feasible}, nil
}

type rawSupport struct {
	PositiveKeys       []string `json:"positive_keys"`
	NegativeStatements []string `json:"negative_statements"`
}

// ValidateSupport checks a guidance-support candidate. Positive keys are
// primary references into the paper's accepted statement dictionary; the
// negative side is model-authored text, not corpus references.
func ValidateSupport(raw string, statements map[string]string) (*model.GuidanceSupport, error) {
	var cand rawSupport
	if err := decodeObject(raw, &cand); err != nil {
		return nil, err
	}
	if cand.PositiveKeys == nil || cand.NegativeStatements == nil {
		return nil, fmt.Errorf("%w: incomplete support result", ErrMalformed)
	}
	for _, key := range cand.PositiveKeys {
		if _, ok := statements[key]; !ok {
			return nil, fmt.Errorf("%w: unknown statement key %q", ErrMalformed, key)
		}
	}
	return &model.GuidanceSupport{
		PositiveKeys:       cand.PositiveKeys,
		NegativeStatements: cand.NegativeStatements,
	}, nil
}

// CheckSupportVerdict validates a verifier response for a support lookup.
func CheckSupportVerdict(raw string) (*model.SupportVerdict, error) {
	var v rawGuidanceVerdict
	if err := decodeObject(raw, &v); err != nil {
		return nil, err
	}
	if v.ValidGroup == nil || !model.ValidGroup(*v.ValidGroup) {
		return nil, fmt.Errorf("%w: incomplete support verdict", ErrMalformed)
	}
	return &model.SupportVerdict{ValidGroup: *v.ValidGroup}, nil
}
