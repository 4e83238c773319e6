// Package sample builds contrastive pairs out of validated extractions.
// Verification is framed as "pick the correct one of two candidates" rather
// than judging a lone extraction; the A side resolves the claimed-correct
// result to sentence text, the B side carries the deliberately wrong one.
package sample

import (
	"errors"
	"fmt"

	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/model"
)

// ErrNotAvailable signals that the primary field legitimately holds no
// extractable content. Not a retry condition: the consensus loop counts it
// toward the null cap and eventually accepts the null result.
var ErrNotAvailable = errors.New("primary field not available")

// ErrEmptyPair signals a pair whose A side resolved to nothing; there is
// nothing to verify and the round is treated as malformed output.
var ErrEmptyPair = errors.New("contrastive pair has empty A side")

// StatementPair is one resolved field of an extraction sample.
type StatementPair struct {
	Statement           string `json:"statement"`
	SupportingStatement string `json:"supporting_statement"`
}

// ExtractionSample is one side of an extraction contrastive pair with all
// references resolved to sentence text.
type ExtractionSample struct {
	BestPerformance StatementPair `json:"best_performance"`
	BetterDirection StatementPair `json:"better_direction"`
}

// ExtractionPairs builds one contrastive pair per metric family. Families
// whose positive side reports no best-performance sentence are skipped; if
// every family is empty the paper offers no signal at all.
func ExtractionPairs(ext *model.PaperExtraction, sentences corpus.Corpus) (map[string]model.ContrastivePair, error) {
	pairs := make(map[string]model.ContrastivePair)

	for metric, positive := range ext.Positive {
		a, err := resolveExtractionSample(positive, sentences)
		if err != nil {
			continue
		}

		pair := model.ContrastivePair{Label: metric, A: a}
		if negative, ok := ext.Negative[metric]; ok {
			if b, err := resolveExtractionSample(negative, sentences); err == nil {
				pair.B = b
			}
		}
		pairs[metric] = pair
	}

	if len(pairs) == 0 {
		return nil, ErrNotAvailable
	}
	return pairs, nil
}

func resolveExtractionSample(item model.MetricExtraction, sentences corpus.Corpus) (*ExtractionSample, error) {
	if item.BestPerformance.Key == model.NotAvailable {
		return nil, ErrNotAvailable
	}

	statement, ok := sentences.Resolve(item.BestPerformance.Key)
	if !ok {
		return nil, fmt.Errorf("primary key %q vanished from corpus", item.BestPerformance.Key)
	}

	sample := &ExtractionSample{
		BestPerformance: StatementPair{
			Statement:           statement,
			SupportingStatement: resolveOptional(item.BestPerformance.SupportKey, sentences),
		},
		BetterDirection: StatementPair{
			Statement:           model.NotAvailable,
			SupportingStatement: model.NotAvailable,
		},
	}

	if item.BetterDirection.Direction != model.NotAvailable {
		sample.BetterDirection.Statement = item.BetterDirection.Direction
		sample.BetterDirection.SupportingStatement = resolveOptional(item.BetterDirection.SupportKey, sentences)
	}

	return sample, nil
}

func resolveOptional(key string, sentences corpus.Corpus) string {
	if key == model.NotAvailable {
		return model.NotAvailable
	}
	if text, ok := sentences.Resolve(key); ok {
		return text
	}
	return model.NotAvailable
}

// TaxonomyPairs pairs each induced category with its exemplar papers'
// accepted metric statements: A from the positive exemplar, B from the
// negative one.
func TaxonomyPairs(categories map[string]model.MetricCategory, infoByDOI map[string]model.ValidMetricInfo) (map[string]model.ContrastivePair, error) {
	pairs := make(map[string]model.ContrastivePair, len(categories))
	for name, category := range categories {
		positive, ok := infoByDOI[category.Sample.Positive]
		if !ok {
			return nil, fmt.Errorf("positive exemplar %q has no metric info", category.Sample.Positive)
		}
		negative, ok := infoByDOI[category.Sample.Negative]
		if !ok {
			return nil, fmt.Errorf("negative exemplar %q has no metric info", category.Sample.Negative)
		}
		pairs[name] = model.ContrastivePair{Label: name, A: positive, B: negative}
	}
	return pairs, nil
}

// CategorizationSample is one side of a categorization pair: the claimed
// category and value read against the source statement.
type CategorizationSample struct {
	MetricType  string   `json:"metric_type"`
	MetricValue *float64 `json:"metric_value"`
	Statement   string   `json:"statement"`
}

// CategorizationPair builds the pair for a per-paper categorization. A
// positive side categorized as "not_available" is the null outcome, not a
// buildable pair.
func CategorizationPair(analysis *model.CategoryAnalysis, info model.ValidMetricInfo) (model.ContrastivePair, error) {
	if analysis.Positive.MetricType == model.NotAvailable {
		return model.ContrastivePair{}, ErrNotAvailable
	}

	return model.ContrastivePair{
		A: CategorizationSample{
			MetricType:  analysis.Positive.MetricType,
			MetricValue: analysis.Positive.MetricValue,
			Statement:   info.Statement,
		},
		B: CategorizationSample{
			MetricType:  analysis.Negative.MetricType,
			MetricValue: analysis.Negative.MetricValue,
			Statement:   info.Statement,
		},
	}, nil
}

// KeyedPairs resolves positive/negative key lists against a content
// dictionary, one pair per item. Used by both in-depth analysis (sentence
// corpus) and guidance synthesis (accepted-statement dictionary).
func KeyedPairs(positiveKeys, negativeKeys []string, content map[string]string, label string) (model.ContrastivePair, error) {
	a := resolveKeys(positiveKeys, content)
	if len(a) == 0 {
		return model.ContrastivePair{}, ErrEmptyPair
	}
	return model.ContrastivePair{
		Label: label,
		A:     a,
		B:     resolveKeys(negativeKeys, content),
	}, nil
}

// SupportPair builds the pair for a guidance-support lookup: A resolves the
// cited statement keys, B is the model-authored counterstatement list.
func SupportPair(support *model.GuidanceSupport, statements map[string]string) (model.ContrastivePair, error) {
	a := resolveKeys(support.PositiveKeys, statements)
	if len(a) == 0 {
		return model.ContrastivePair{}, ErrNotAvailable
	}
	return model.ContrastivePair{A: a, B: support.NegativeStatements}, nil
}

func resolveKeys(keys []string, content map[string]string) []string {
	resolved := make([]string, 0, len(keys))
	for _, key := range keys {
		if text, ok := content[key]; ok {
			resolved = append(resolved, text)
		}
	}
	return resolved
}
