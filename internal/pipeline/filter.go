package pipeline

import (
	"sort"

	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/artifact"
	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/filtering"
	"github.com/dkovalov/papermine/internal/model"
)

// RunFilter executes the filtering stage over the extraction artifacts. It
// makes no model calls; rerunning it simply recomputes the outputs.
func (p *Pipeline) RunFilter() error {
	families, err := p.loadFamilies()
	if err != nil {
		return err
	}

	result, err := filtering.Select(families, p.cfg.Filter.RetentionRatio, p.cfg.Filter.MinSampleCount)
	if err != nil {
		return err
	}

	p.log.Info("filtering done",
		zap.Int("families", len(result.Families)),
		zap.Int("combinations", len(result.Combinations)))

	if err := artifact.SaveJSON(p.filterDir("overall_high_performance_papers.json"), result.Combinations); err != nil {
		return err
	}
	if err := artifact.SaveJSON(p.filterDir("metric_type_list.json"), result.Families); err != nil {
		return err
	}
	if err := artifact.SaveJSON(p.filterDir("metric_value_stats.json"), result.Stats); err != nil {
		return err
	}

	return p.writeSelectedContent(result)
}

// loadFamilies assembles the filtering input: per family, the induced
// categories in sorted name order (the 1-based combination indices) and the
// accepted numeric value of every categorized paper.
func (p *Pipeline) loadFamilies() ([]filtering.Family, error) {
	taxonomyStore := artifact.NewStore(p.extractDir("overall_metrics"))

	var families []filtering.Family
	for _, familyName := range p.cfg.Mining.Metrics {
		if !taxonomyStore.Completed(familyName) {
			continue
		}
		var taxonomy model.TaxonomyArtifact
		if err := taxonomyStore.Load(familyName, &taxonomy); err != nil {
			return nil, err
		}
		if len(taxonomy.GeneratedMetrics) == 0 {
			continue
		}

		names := make([]string, 0, len(taxonomy.GeneratedMetrics))
		for name := range taxonomy.GeneratedMetrics {
			names = append(names, name)
		}
		sort.Strings(names)

		values, err := p.loadCategoryValues(familyName)
		if err != nil {
			return nil, err
		}

		family := filtering.Family{Name: familyName}
		for i, name := range names {
			family.Categories = append(family.Categories, filtering.Category{
				Index:           i + 1,
				Name:            name,
				BetterDirection: taxonomy.GeneratedMetrics[name].BetterDirection,
				Values:          values[name],
			})
		}
		families = append(families, family)
	}
	return families, nil
}

// loadCategoryValues reads every categorization artifact of one family and
// groups the accepted numeric values by category.
func (p *Pipeline) loadCategoryValues(familyName string) (map[string][]filtering.Value, error) {
	dir := p.extractDir("individual_metrics", familyName)
	stems, err := corpus.Stems(dir)
	if err != nil {
		// A family nobody was categorized under contributes no values.
		return map[string][]filtering.Value{}, nil
	}

	store := artifact.NewStore(dir)
	values := make(map[string][]filtering.Value)
	for _, stem := range stems {
		if !store.Completed(stem) {
			continue
		}
		var art model.CategoryArtifact
		if err := store.Load(stem, &art); err != nil {
			return nil, err
		}
		if art.MetricAnalyzeResult == nil || art.MetricAnalyzeReflectResult == nil {
			continue
		}
		if !art.MetricAnalyzeReflectResult.Accepted() {
			continue
		}
		positive := art.MetricAnalyzeResult.Positive
		if positive.MetricType == model.NotAvailable || positive.MetricValue == nil {
			continue
		}
		values[positive.MetricType] = append(values[positive.MetricType], filtering.Value{
			Paper: stem,
			Value: *positive.MetricValue,
		})
	}
	return values, nil
}

// writeSelectedContent persists the union of selected papers with their
// accepted statements; the guidance stage reads exactly this file.
func (p *Pipeline) writeSelectedContent(result *filtering.Result) error {
	selected := make(map[string]bool)
	for _, papers := range result.Combinations {
		for _, paper := range papers {
			selected[paper] = true
		}
	}

	content := make(map[string]map[string]model.ValidMetricInfo, len(selected))
	for _, family := range p.cfg.Mining.Metrics {
		var info map[string]model.ValidMetricInfo
		path := p.extractDir("valid_metric_info", family+".json")
		if err := artifact.LoadJSON(path, &info); err != nil {
			continue
		}
		for stem, entry := range info {
			if !selected[stem] {
				continue
			}
			if content[stem] == nil {
				content[stem] = make(map[string]model.ValidMetricInfo)
			}
			content[stem][family] = entry
		}
	}

	// Selected papers with no surviving statement still appear, so the
	// guidance stage sees the full selection.
	for stem := range selected {
		if content[stem] == nil {
			content[stem] = make(map[string]model.ValidMetricInfo)
		}
	}

	return artifact.SaveJSON(p.filterDir("to_process_content.json"), content)
}
