package sample

import (
	"errors"
	"testing"

	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/model"
)

var testSentences = corpus.Corpus{
	"C_0010": "The catalyst reached 500 mA/cm2.",
	"C_0011": "Higher current density indicates better activity.",
	"C_0012": "Stability degraded after 10 hours.",
}

func TestExtractionPairsResolvesText(t *testing.T) {
	ext := &model.PaperExtraction{
		Positive: model.ExtractionSide{
			"activity": {
				BestPerformance: model.PerformanceRef{Key: "C_0010", SupportKey: "C_0011"},
				BetterDirection: model.DirectionRef{Direction: model.DirectionHigher, SupportKey: "C_0011"},
			},
		},
		Negative: model.ExtractionSide{
			"activity": {
				BestPerformance: model.PerformanceRef{Key: "C_0012", SupportKey: model.NotAvailable},
				BetterDirection: model.DirectionRef{Direction: model.DirectionLower, SupportKey: model.NotAvailable},
			},
		},
	}

	pairs, err := ExtractionPairs(ext, testSentences)
	if err != nil {
		t.Fatalf("ExtractionPairs failed: %v", err)
	}

	pair, ok := pairs["activity"]
	if !ok {
		t.Fatalf("missing activity pair, got %v", pairs)
	}
	a, ok := pair.A.(*ExtractionSample)
	if !ok {
		t.Fatalf("A side has type %T", pair.A)
	}
	if a.BestPerformance.Statement != "The catalyst reached 500 mA/cm2." {
		t.Errorf("A statement = %q, want the resolved sentence", a.BestPerformance.Statement)
	}
	if a.BetterDirection.Statement != model.DirectionHigher {
		t.Errorf("A direction = %q, want higher", a.BetterDirection.Statement)
	}
	b, ok := pair.B.(*ExtractionSample)
	if !ok {
		t.Fatalf("B side has type %T", pair.B)
	}
	if b.BestPerformance.Statement != "Stability degraded after 10 hours." {
		t.Errorf("B statement = %q, want the wrong sentence resolved", b.BestPerformance.Statement)
	}
}

func TestExtractionPairsAllNotAvailable(t *testing.T) {
	ext := &model.PaperExtraction{
		Positive: model.ExtractionSide{
			"activity": {
				BestPerformance: model.PerformanceRef{Key: model.NotAvailable, SupportKey: model.NotAvailable},
				BetterDirection: model.DirectionRef{Direction: model.NotAvailable, SupportKey: model.NotAvailable},
			},
		},
		Negative: model.ExtractionSide{},
	}

	if _, err := ExtractionPairs(ext, testSentences); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("all-empty extraction should report ErrNotAvailable, got %v", err)
	}
}

func TestCategorizationPairNullPositive(t *testing.T) {
	analysis := &model.CategoryAnalysis{
		Positive: model.CategorySample{MetricType: model.NotAvailable},
		Negative: model.CategorySample{MetricType: "current density"},
	}
	_, err := CategorizationPair(analysis, model.ValidMetricInfo{Statement: "x"})
	if !errors.Is(err, ErrNotAvailable) {
		t.Errorf("null categorization should report ErrNotAvailable, got %v", err)
	}
}

func TestKeyedPairsRequiresNonEmptyA(t *testing.T) {
	content := map[string]string{"S_0": "finding one", "S_1": "finding two"}

	pair, err := KeyedPairs([]string{"S_0"}, []string{"S_1", "S_9"}, content, "G_0")
	if err != nil {
		t.Fatalf("KeyedPairs failed: %v", err)
	}
	if got := pair.A.([]string); len(got) != 1 || got[0] != "finding one" {
		t.Errorf("A = %v, want the resolved finding", got)
	}
	// Unresolvable B keys are dropped, not fatal.
	if got := pair.B.([]string); len(got) != 1 {
		t.Errorf("B = %v, want one resolved entry", got)
	}

	if _, err := KeyedPairs([]string{"S_9"}, nil, content, "G_0"); !errors.Is(err, ErrEmptyPair) {
		t.Errorf("empty A side should report ErrEmptyPair, got %v", err)
	}
}

func TestTaxonomyPairsMissingExemplar(t *testing.T) {
	categories := map[string]model.MetricCategory{
		"current density": {Sample: model.SamplePair{Positive: "0000", Negative: "0001"}},
	}
	info := map[string]model.ValidMetricInfo{"0000": {Statement: "a"}}

	if _, err := TaxonomyPairs(categories, info); err == nil {
		t.Error("missing negative exemplar should fail")
	}

	info["0001"] = model.ValidMetricInfo{Statement: "b"}
	pairs, err := TaxonomyPairs(categories, info)
	if err != nil {
		t.Fatalf("TaxonomyPairs failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Errorf("pairs = %v, want one entry", pairs)
	}
}

func TestSupportPair(t *testing.T) {
	statements := map[string]string{"S_0": "finding one"}

	support := &model.GuidanceSupport{PositiveKeys: []string{"S_0"}, NegativeStatements: []string{"off-topic"}}
	pair, err := SupportPair(support, statements)
	if err != nil {
		t.Fatalf("SupportPair failed: %v", err)
	}
	if got := pair.A.([]string); got[0] != "finding one" {
		t.Errorf("A = %v, want the resolved finding", got)
	}

	empty := &model.GuidanceSupport{PositiveKeys: nil, NegativeStatements: nil}
	if _, err := SupportPair(empty, statements); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("no cited findings should report ErrNotAvailable, got %v", err)
	}
}
