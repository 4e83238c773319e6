package pipeline

import (
	"fmt"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/artifact"
	"github.com/dkovalov/papermine/internal/model"
)

func TestRunFilterEndToEnd(t *testing.T) {
	out := t.TempDir()
	cfg := model.DefaultConfig()
	cfg.Mining.Metrics = []string{"activity"}

	// Induced taxonomy: one category, higher is better.
	taxonomyStore := artifact.NewStore(filepath.Join(out, "extract_info", "overall_metrics"))
	err := taxonomyStore.Save("activity", model.TaxonomyArtifact{
		GeneratedMetrics: map[string]model.MetricCategory{
			"current density": {Unit: "mA/cm2", BetterDirection: model.DirectionHigher},
		},
	})
	if err != nil {
		t.Fatalf("Save taxonomy failed: %v", err)
	}

	// Fifteen categorized papers with values 1..15, all accepted.
	catStore := artifact.NewStore(filepath.Join(out, "extract_info", "individual_metrics", "activity"))
	info := make(map[string]model.ValidMetricInfo)
	for i := 1; i <= 15; i++ {
		stem := fmt.Sprintf("p%02d", i)
		value := float64(i)
		err := catStore.Save(stem, model.CategoryArtifact{
			MetricAnalyzeResult: &model.CategoryAnalysis{
				Positive: model.CategorySample{MetricType: "current density", MetricValue: &value},
				Negative: model.CategorySample{MetricType: model.NotAvailable},
			},
			MetricAnalyzeReflectResult: &model.CategoryVerdict{ValidGroup: model.GroupA, MetricValue: true},
		})
		if err != nil {
			t.Fatalf("Save categorization failed: %v", err)
		}
		info[stem] = model.ValidMetricInfo{Statement: fmt.Sprintf("reached %d mA/cm2", i)}
	}
	if err := artifact.SaveJSON(filepath.Join(out, "extract_info", "valid_metric_info", "activity.json"), info); err != nil {
		t.Fatalf("Save valid metric info failed: %v", err)
	}

	p, err := New(cfg, nil, Paths{OutputRoot: out}, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := p.RunFilter(); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	var combinations map[string][]string
	if err := artifact.LoadJSON(filepath.Join(out, "filtering", "overall_high_performance_papers.json"), &combinations); err != nil {
		t.Fatalf("load combinations: %v", err)
	}
	// Cutoff at rank 6 of 15 ascending is value 7; nine papers at-or-above.
	papers := combinations["1"]
	if len(papers) != 9 {
		t.Errorf("qualifying papers = %v, want 9 entries", papers)
	}

	var families []string
	if err := artifact.LoadJSON(filepath.Join(out, "filtering", "metric_type_list.json"), &families); err != nil {
		t.Fatalf("load metric type list: %v", err)
	}
	if len(families) != 1 || families[0] != "activity" {
		t.Errorf("families = %v, want [activity]", families)
	}

	var content map[string]map[string]model.ValidMetricInfo
	if err := artifact.LoadJSON(filepath.Join(out, "filtering", "to_process_content.json"), &content); err != nil {
		t.Fatalf("load selected content: %v", err)
	}
	if len(content) != 9 {
		t.Errorf("selected content has %d papers, want 9", len(content))
	}
	if entry, ok := content["p15"]; !ok || entry["activity"].Statement == "" {
		t.Errorf("top paper missing its statement, got %v", content["p15"])
	}
}
